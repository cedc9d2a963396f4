package main

import (
	"os"

	"github.com/danmuck/omm/internal/logging"
)

var version = "dev"

func main() {
	logging.ConfigureRuntime()
	cmd := newRootCmd()
	cmd.Version = version
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
