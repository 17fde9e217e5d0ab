package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"log/slog"
	"os"

	"maven/app/client/model"
	"maven/app/service/registry"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/samber/do"
	"github.com/samber/oops"
)

const (
	serverName    = "maven"
	serverVersion = "1.0.0"
)

// Service exposes every registered action as an MCP tool.
type Service struct {
	registry *registry.Registry
	server   *server.MCPServer
}

func New(di *do.Injector) (*Service, error) {
	return NewService(do.MustInvoke[*registry.Registry](di))
}

func NewService(reg *registry.Registry) (*Service, error) {
	s := &Service{
		registry: reg,
		server: server.NewMCPServer(serverName, serverVersion,
			server.WithToolCapabilities(false),
			server.WithRecovery(),
		),
	}

	for _, spec := range reg.DescribeAll() {
		tool, err := toTool(spec)
		if err != nil {
			return nil, err
		}

		s.server.AddTool(tool, s.handler(spec.Name))
	}

	return s, nil
}

func (s *Service) MCPServer() *server.MCPServer {
	return s.server
}

// Serve speaks MCP over stdin and stdout until ctx is done.
func (s *Service) Serve(ctx context.Context) error {
	return s.Listen(ctx, os.Stdin, os.Stdout)
}

func (s *Service) Listen(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.server)
	stdio.SetErrorLogger(log.New(os.Stderr, "mcp: ", log.LstdFlags))

	slog.Info("MCP server listening on stdio", "tools", s.registry.Len())

	if err := stdio.Listen(ctx, in, out); err != nil && !errors.Is(err, context.Canceled) {
		return oops.In("mcp").Wrapf(err, "stdio server failed")
	}

	return nil
}

func (s *Service) handler(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := s.registry.Invoke(ctx, name, req.GetArguments())
		if err != nil {
			slog.Warn("MCP tool call failed",
				"tool", name,
				"error", err,
			)

			var validationErr *registry.ValidationError
			switch {
			case errors.As(err, &validationErr):
				return mcp.NewToolResultError("invalid arguments: " + validationErr.Error()), nil
			case errors.Is(err, registry.ErrUnknownAction):
				return mcp.NewToolResultError("unknown tool: " + name), nil
			}

			return mcp.NewToolResultError("action failed: " + err.Error()), nil
		}

		slog.Info("MCP tool called",
			"tool", name,
			"result", result,
			"telegram", true,
		)

		return mcp.NewToolResultText(result), nil
	}
}

func toTool(spec registry.ActionSpec) (mcp.Tool, error) {
	schema, err := json.Marshal(model.FieldsSchema(spec.Parameters).JSONSchema())
	if err != nil {
		return mcp.Tool{}, oops.In("mcp").With("action", spec.Name).Wrapf(err, "failed to encode input schema")
	}

	return mcp.NewToolWithRawSchema(spec.Name, spec.Description, schema), nil
}
