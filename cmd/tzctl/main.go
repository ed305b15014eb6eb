package main

import (
	"os"

	"github.com/ngrash/go-libtz/cmd/tzctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
