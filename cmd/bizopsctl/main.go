package main

import (
	"os"

	"bizops/internal/cli"
	"bizops/internal/commands"
)

func main() {
	cli.LoadEnvFile()

	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
