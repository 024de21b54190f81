// Package mcp exposes the todo tools over the Model Context Protocol.
package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/fady17/task/internal/model"
	"github.com/fady17/task/internal/tools"
	"github.com/fady17/task/pkg/logger"
)

// Dispatcher executes one tool call.
type Dispatcher interface {
	Dispatch(ctx context.Context, name string, rawArgs string) model.ToolResult
}

// NewServer returns an MCP server offering every catalog tool.
func NewServer(name, version string, d Dispatcher, log *logger.Logger) *server.MCPServer {
	s := server.NewMCPServer(name, version, server.WithToolCapabilities(true))
	s.AddTools(Tools(d, log)...)
	return s
}

// Tools builds one server tool per catalog entry.
func Tools(d Dispatcher, log *logger.Logger) []server.ServerTool {
	defs := tools.Catalog()
	out := make([]server.ServerTool, 0, len(defs))
	for _, def := range defs {
		out = append(out, server.ServerTool{
			Tool:    mcp.NewToolWithRawSchema(string(def.Name), def.Description, def.Parameters),
			Handler: handler(d, string(def.Name), log),
		})
	}
	return out
}

func handler(d Dispatcher, name string, log *logger.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := "{}"
		if raw := req.GetRawArguments(); raw != nil {
			data, err := json.Marshal(raw)
			if err != nil {
				return mcp.NewToolResultError("invalid arguments: " + err.Error()), nil
			}
			args = string(data)
		}

		result := d.Dispatch(ctx, name, args)
		log.Debug("mcp tool call", zap.String("tool", name), zap.Bool("success", result.Success))
		if !result.Success {
			return mcp.NewToolResultError(result.Error), nil
		}
		return mcp.NewToolResultText(string(result.Result)), nil
	}
}
