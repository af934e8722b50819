package main

import (
	"os"

	"github.com/returnloop/kiosk/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
