package main

import (
	"os"

	"yarnpull/cmd/pullout/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
