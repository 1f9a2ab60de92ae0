package main

import (
	"os"

	"github.com/openaria/ariad/cmd/ariad/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
