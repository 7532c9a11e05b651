package main

import (
	"os"

	"keeperbridge/cmd/keeperbridge/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
