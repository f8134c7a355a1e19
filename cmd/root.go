// Package cmd contains the docsage CLI commands.
package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/docsage/docsage/internal/log"
)

var rootCmd = &cobra.Command{
	Use:   "docsage",
	Short: "Chat with your documents over MCP",
	Long: `docsage is a command-line chat client that connects a Gemini chat
model to MCP servers. It ships with a built-in document server and an
orchestration loop that lets the model read and edit documents through
tools mid-conversation.

Running docsage without arguments starts the interactive chat.`,
	RunE: runChat,
}

// Execute is the CLI entry point.
func Execute() error {
	return rootCmd.Execute()
}

// newLogger builds the process logger. DEBUG in the environment lowers
// the level; output goes to stderr so serve mode keeps stdout clean for
// JSON-RPC.
func newLogger() log.Logger {
	cfg := log.Config{Level: slog.LevelInfo}
	if os.Getenv("DEBUG") != "" {
		cfg.Level = slog.LevelDebug
	}
	logger := log.New(cfg)
	slog.SetDefault(logger)
	return logger
}
