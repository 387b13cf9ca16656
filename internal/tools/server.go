// Package tools exposes the workspace context operations as MCP tools
// over a stdio transport. The dispatcher is stateless: every call names
// its workspace and resolves services through the registry.
package tools

import (
	"context"
	"fmt"
	"time"

	mcp "github.com/fredcamaral/gomcp-sdk"
	"github.com/fredcamaral/gomcp-sdk/server"
	"github.com/fredcamaral/gomcp-sdk/transport"
	"github.com/go-viper/mapstructure/v2"

	"novaport-mcp/internal/config"
	"novaport-mcp/internal/embeddings"
	stderrors "novaport-mcp/internal/errors"
	"novaport-mcp/internal/logging"
	"novaport-mcp/internal/services"
	"novaport-mcp/internal/workspace"
)

const (
	serverName    = "novaport-mcp"
	serverVersion = "1.0.0"
)

// handlerFunc is the shape every tool handler takes after workspace
// resolution.
type handlerFunc func(ctx context.Context, b *services.Bundle, args map[string]interface{}) (interface{}, error)

// ContextServer wires the tool catalog onto an MCP server instance.
type ContextServer struct {
	registry  *workspace.Registry
	embedder  embeddings.Service
	mcpServer *server.Server
	logger    logging.Logger
}

// NewContextServer builds the server and registers every tool.
func NewContextServer(cfg *config.Config) (*ContextServer, error) {
	mcpServer := mcp.NewServer(serverName, serverVersion)
	if mcpServer == nil {
		return nil, stderrors.NewInternal("create MCP server", nil)
	}

	cs := &ContextServer{
		registry:  workspace.NewRegistry(cfg.Database, cfg.Embeddings.Dimensions),
		embedder:  embeddings.NewLazy(cfg.Embeddings),
		mcpServer: mcpServer,
		logger:    logging.WithComponent("tools"),
	}
	cs.registerTools()
	return cs, nil
}

// MCPServer returns the underlying server, for transports and tests.
func (cs *ContextServer) MCPServer() *server.Server { return cs.mcpServer }

// ServeStdio attaches the stdio transport and blocks until the context
// is canceled or the input stream closes.
func (cs *ContextServer) ServeStdio(ctx context.Context) error {
	cs.mcpServer.SetTransport(transport.NewStdioTransport())
	cs.logger.InfoContext(ctx, "serving MCP tools on stdio", "tools", len(catalog()))
	return cs.mcpServer.Start(ctx)
}

// Close releases every cached workspace handle.
func (cs *ContextServer) Close() {
	cs.registry.Close()
}

func (cs *ContextServer) registerTools() {
	handlers := cs.handlerTable()
	for _, def := range catalog() {
		handler, ok := handlers[def.name]
		if !ok {
			panic(fmt.Sprintf("tool %q has no handler", def.name))
		}
		cs.mcpServer.AddTool(mcp.NewTool(
			def.name,
			def.description,
			mcp.ObjectSchema(def.description, def.schema, def.required),
		), mcp.ToolHandlerFunc(cs.wrap(def.name, handler)))
	}
}

// wrap resolves the workspace, dispatches, and converts failures into
// the uniform {error, details?} envelope.
func (cs *ContextServer) wrap(name string, handler handlerFunc) func(context.Context, map[string]interface{}) (interface{}, error) {
	return func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		ctx = logging.WithTrace(ctx, logging.NewTraceID())

		workspaceID, _ := args["workspace_id"].(string)
		if workspaceID == "" {
			return cs.fail(ctx, name, stderrors.ErrWorkspaceIDRequired), nil
		}
		ws, err := cs.registry.Acquire(ctx, workspaceID)
		if err != nil {
			return cs.fail(ctx, name, err), nil
		}

		result, err := handler(ctx, services.NewBundle(ws, cs.embedder), args)
		if err != nil {
			return cs.fail(ctx, name, err), nil
		}
		return result, nil
	}
}

// fail logs the failure and renders the error envelope.
func (cs *ContextServer) fail(ctx context.Context, tool string, err error) map[string]interface{} {
	std := stderrors.AsStandard(err).WithTraceID(logging.TraceID(ctx))
	cs.logger.WarnContext(ctx, "tool call failed",
		"tool", tool, "code", string(std.ErrorInfo.Code), "error", std.ErrorInfo.Message)
	return std.ToEnvelope()
}

// decodeArgs maps raw tool arguments onto a typed parameter record.
func decodeArgs(args map[string]interface{}, out interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return stderrors.NewInternal("build argument decoder", err)
	}
	if err := dec.Decode(args); err != nil {
		return stderrors.NewValidation("arguments", err.Error(), nil)
	}
	return nil
}

// Argument extraction helpers. Tool arguments arrive as decoded JSON,
// so numbers are float64 and everything is optional until checked.

func argString(args map[string]interface{}, key string) string {
	s, _ := args[key].(string)
	return s
}

func argInt(args map[string]interface{}, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case int64:
		return int(v), true
	}
	return 0, false
}

func argInt64(args map[string]interface{}, key string) (int64, bool) {
	n, ok := argInt(args, key)
	return int64(n), ok
}

func requireInt64(args map[string]interface{}, key string) (int64, error) {
	n, ok := argInt64(args, key)
	if !ok {
		return 0, stderrors.NewRequiredField(key)
	}
	return n, nil
}

// argTime parses an optional RFC 3339 timestamp argument.
func argTime(args map[string]interface{}, key string) (*time.Time, error) {
	raw, ok := args[key].(string)
	if !ok || raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, stderrors.NewValidation(key, "must be an RFC 3339 timestamp", raw)
	}
	return &t, nil
}
