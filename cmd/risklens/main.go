package main

import (
	"os"

	"github.com/wonny/risklens/cmd/risklens/commands"
)

// main is the entry point for the risklens CLI
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
