package main

import (
	"os"

	"github.com/masra91/clubhouse/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
