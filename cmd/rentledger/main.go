package main

import (
	"os"

	"github.com/rentledger/rentledger/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
