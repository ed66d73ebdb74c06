package main

import (
	"os"

	"github.com/phpipam-ops/phpipam-provision/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
