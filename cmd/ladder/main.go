package main

import (
	"os"

	"github.com/rustyeddy/ladder/cmd/ladder/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
