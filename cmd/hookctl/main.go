package main

import (
	"os"

	"github.com/smartstore/Smartstore-sub032/internal/cli/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
