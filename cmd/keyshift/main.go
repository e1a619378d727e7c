package main

import (
	"os"

	"github.com/solatis/keyshift/cmd/keyshift/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
