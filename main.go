package main

import (
	"github.com/gisbox/gisbox/cmd"
	"github.com/gisbox/gisbox/cmd/util"
)

func main() {
	defer util.HandlePanic()
	cmd.Execute()
}
