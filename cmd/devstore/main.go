package main

import (
	"os"

	"github.com/RoyceAzure/lab/devstore/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
