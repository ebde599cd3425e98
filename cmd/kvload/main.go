package main

import (
	"os"

	"github.com/kvload/kvload/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
