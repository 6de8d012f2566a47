package main

import (
	"os"

	"github.com/roomcast/roomcast/internal/cli"
	"github.com/roomcast/roomcast/internal/logging"
)

func main() {
	logging.Init()

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
