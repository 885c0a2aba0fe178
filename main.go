// ABOUTME: Entry point for the pagen insights CLI and MCP server
// ABOUTME: Delegates to the cobra command tree in the cli package
package main

import (
	"fmt"
	"os"

	"github.com/harperreed/pagen/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
