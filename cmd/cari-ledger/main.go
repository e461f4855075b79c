// Package main is the entry point for the cari-ledger CLI.
package main

import (
	"os"

	"github.com/shunichi-ikebuchi/cari-ledger/cmd/cari-ledger/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
