package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/supplyops/wc-optimizer/internal/core/domain"
	"github.com/supplyops/wc-optimizer/internal/core/ports"
)

// Server exposes the analysis catalogue over the Model Context Protocol so
// LLM clients can call every analysis as a tool.
type Server struct {
	mcpServer *server.MCPServer
	catalog   ports.AnalysisCatalog
	log       *slog.Logger
}

func NewServer(name, version string, catalog ports.AnalysisCatalog, log *slog.Logger) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer(name, version, server.WithToolCapabilities(false)),
		catalog:   catalog,
		log:       log,
	}
	for _, spec := range catalog.Specs() {
		s.mcpServer.AddTool(toolFromSpec(spec), s.handlerFor(spec.Name))
	}
	return s
}

// ServeStdio blocks until the stdio transport closes.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func toolFromSpec(spec domain.AnalysisSpec) mcp.Tool {
	options := []mcp.ToolOption{mcp.WithDescription(spec.Description)}
	for _, p := range spec.Params {
		options = append(options, paramOption(p))
	}
	return mcp.NewTool(spec.Name, options...)
}

func paramOption(p domain.ParamSpec) mcp.ToolOption {
	var props []mcp.PropertyOption
	props = append(props, mcp.Description(p.Description))
	if p.Required {
		props = append(props, mcp.Required())
	}

	switch p.Kind {
	case domain.ParamNumber:
		if def, ok := p.Default.(float64); ok {
			props = append(props, mcp.DefaultNumber(def))
		}
		return mcp.WithNumber(p.Name, props...)
	case domain.ParamStringList:
		props = append(props, mcp.Items(map[string]any{"type": "string"}))
		return mcp.WithArray(p.Name, props...)
	default:
		if def, ok := p.Default.(string); ok {
			props = append(props, mcp.DefaultString(def))
		}
		return mcp.WithString(p.Name, props...)
	}
}

func (s *Server) handlerFor(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := s.catalog.Run(ctx, name, domain.Params(req.GetArguments()))
		if err != nil {
			s.log.Warn("tool call failed", "tool", name, "error", err)
			return mcp.NewToolResultError(err.Error()), nil
		}

		payload, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode tool result: %w", err)
		}
		return mcp.NewToolResultText(string(payload)), nil
	}
}
