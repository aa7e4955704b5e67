package main

import (
	"os"

	"github.com/posledger/posledger/cmd/ledgerctl/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
