// Package main is the entry point for the swapdesk CLI.
package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/mrz1836/swapdesk/internal/cli"
)

func main() {
	// A missing .env is normal.
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		os.Exit(cli.ExitCode(err))
	}
}
