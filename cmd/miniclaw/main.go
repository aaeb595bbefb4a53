// Command miniclaw is the single-host agent daemon: a tool-using LLM agent
// reachable over Telegram and the local terminal.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/miniclaw/miniclaw/cmd/miniclaw/commands"
)

// version is injected at build time via ldflags.
var version = "0.1.0"

func main() {
	rootCmd := commands.NewRootCmd(version)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		var usage *commands.UsageError
		if errors.As(err, &usage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
