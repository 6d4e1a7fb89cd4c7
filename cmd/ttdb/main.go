package main

import (
	"os"

	"github.com/dshills/ttdb/pkg/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
