package util

import (
	"fmt"
	"os"
	"runtime/debug"

	log "github.com/sirupsen/logrus"

	"github.com/gisbox/gisbox/pkg/config"
	"github.com/gisbox/gisbox/pkg/errors"
	"github.com/gisbox/gisbox/pkg/portal"
)

// HandleFatalError prints the user-facing message for err and exits
// nonzero.
func HandleFatalError(err error) {
	fmt.Fprintln(os.Stderr, errors.GetPrintableMessage(err))
	os.Exit(1)
}

// HandlePanic recovers from panics in the main goroutine so that we can
// log them before exiting.
func HandlePanic() {
	if r := recover(); r != nil {
		log.WithField("stack", string(debug.Stack())).
			Errorf("Unexpected panic: %v", r)
		os.Exit(1)
	}
}

// ConnectPortal establishes the portal session described by the user
// config. Connection failures are fatal to the calling command; there is
// no retry.
func ConnectPortal(cfg config.User) (*portal.Session, error) {
	session, err := portal.Connect(portal.Config{
		URL:      cfg.URL,
		Username: cfg.Username,
		Password: cfg.Password,
		Profile:  cfg.Profile,
	})
	if err != nil {
		return nil, errors.WithContext(err, "connect to portal")
	}
	return session, nil
}
