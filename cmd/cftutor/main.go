package main

import (
	"os"

	"github.com/tillberg/autorestart"

	"github.com/soyeahso/cftutor/internal/cli"
)

func main() {
	// Restart when the binary is rebuilt; development only.
	if os.Getenv("CFTUTOR_DEV_RESTART") != "" {
		go autorestart.RestartOnChange()
	}

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
