package main

import (
	"os"

	"github.com/cwrk-planet/signal-service/internal/ui"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		ui.PrintError(os.Stderr, err.Error())
		os.Exit(1)
	}
}
