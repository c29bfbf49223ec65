package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "mcp-browser-use",
	Short: "MCP server that runs a browser agent",
	Long: `mcp-browser-use exposes a single run_browser_agent tool over the Model Context
Protocol. Each call drives a real browser with an LLM until the task is done.`,
	SilenceUsage: true,
}

func main() {
	rootCmd.Version = Version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
