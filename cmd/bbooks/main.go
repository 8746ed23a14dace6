// Package main is the entry point for the bbooks CLI.
package main

import (
	"os"

	"github.com/shweproperty/buildingbooks/cmd/bbooks/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
