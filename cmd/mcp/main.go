// Package main serves the todo tools to MCP hosts over stdio.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fady17/task/internal/mcp"
	"github.com/fady17/task/internal/todo"
	"github.com/fady17/task/internal/tools"
	"github.com/fady17/task/pkg/logger"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		apiURL   string
		timeout  time.Duration
		logLevel string
	)

	cmd := &cobra.Command{
		Use:   "todo-mcp",
		Short: "Expose the todo list tools over the Model Context Protocol",
		Long: `todo-mcp speaks MCP on stdin/stdout and forwards every tool call to the
todo list backend. Logs go to stderr.`,
		Version:      version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// stdout carries the protocol.
			log, err := logger.New(logLevel, "json", logger.WithOutput("stderr"))
			if err != nil {
				return fmt.Errorf("failed to create logger: %w", err)
			}
			defer log.Sync()

			client := todo.NewClient(apiURL, timeout, log)
			defer client.Close()

			s := mcp.NewServer("todo-mcp", version, tools.NewDispatcher(client, log), log)
			log.Info("serving MCP over stdio", zap.String("todo_api_url", apiURL))
			return server.ServeStdio(s)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&apiURL, "api-url", envOr("TODO_API_URL", "http://localhost:8000"), "todo backend base URL")
	flags.DurationVar(&timeout, "timeout", todo.DefaultTimeout, "request timeout for the todo backend")
	flags.StringVar(&logLevel, "log-level", envOr("LOG_LEVEL", "info"), "log level")
	return cmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
