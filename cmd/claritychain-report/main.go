// Command claritychain-report prints dashboard aggregates from a ledger
// backend without starting the API server.
package main

import (
	"fmt"
	"os"

	"claritychain/internal/cli"
)

func main() {
	cli.LoadEnvFile()
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
