package main

import (
	"os"

	"github.com/starcontent/adpulse/cmd/adpulse/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
