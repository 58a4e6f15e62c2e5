// Package main is the scry-dealer command. It serves the HTTP API and offers
// CLI access to filters, dealers and card queries over the same storage.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error:"), err)
		os.Exit(1)
	}
}
