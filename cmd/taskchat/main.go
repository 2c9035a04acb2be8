// taskchat: todo backend with an LLM chat agent that edits tasks through
// MCP tools.
//
// Usage:
//
//	taskchat serve     # HTTP API (tasks, chat, conversations)
//	taskchat mcp       # MCP task tool server over stdio
//	taskchat version
package main

import (
	"fmt"
	"os"

	"github.com/HendryAvila/taskchat/internal/server"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "taskchat",
	Short: "Todo backend with a tool-calling chat agent",
	Long: `taskchat serves a REST API for per-user todo lists and a chat endpoint
where a language model manages the same tasks through MCP tools.

Configuration comes from the environment, an optional .env file and an
optional YAML file named by TASKCHAT_CONFIG.`,
	Version:       server.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("taskchat v%s\n", server.Version)
	},
}

func main() {
	rootCmd.AddCommand(serveCmd, mcpCmd, versionCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
