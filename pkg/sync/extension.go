package sync

import (
	"strings"
)

// specialExtensions maps declared types whose extension can't be derived
// from the type name itself.
var specialExtensions = map[string]string{
	"Microsoft Excel":    "xlsx",
	"Service Definition": "sd",
	"Image Collection":   "zip",
}

// literalExtensions are the types whose name, lowercased, is the
// extension.
var literalExtensions = map[string]bool{
	"CSV": true,
	"KML": true,
	"PDF": true,
	"ZIP": true,
}

// ResolveExtension infers the local file extension for an item from its
// declared type and, as a fallback, its title. The result is a
// best-effort guess: it's never validated against the actual payload,
// and callers must tolerate a nonsensical extension.
func ResolveExtension(declaredType, title string) string {
	if ext, ok := specialExtensions[declaredType]; ok {
		return ext
	}

	// Titles like "roads.kml" already embed the true extension.
	if idx := strings.LastIndex(title, "."); idx != -1 {
		return title[idx+1:]
	}

	if literalExtensions[declaredType] {
		return strings.ToLower(declaredType)
	}

	// Last resort: derive something filesystem-safe from the type name.
	return strings.ReplaceAll(strings.ToLower(declaredType), " ", "_")
}
