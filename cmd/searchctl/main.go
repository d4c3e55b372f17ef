// Package main provides the entry point for the searchctl CLI.
package main

import (
	"os"

	"github.com/Adithya-Monish-Kumar-K/textsearch/cmd/searchctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
