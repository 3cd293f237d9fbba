package main

import (
	"os"

	"github.com/logsift-systems/logsift/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
