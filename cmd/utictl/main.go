package main

import (
	"os"

	"github.com/utidosgames/storefront/cmd/utictl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
