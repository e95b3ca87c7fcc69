package main

import (
	"os"

	"github.com/goliatone/go-langopts/cmd/langopts/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
