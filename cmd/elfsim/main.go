package main

import (
	"os"

	"github.com/rustyeddy/elfsim/cmd/elfsim/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
