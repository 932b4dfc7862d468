package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/server"

	"semdex/internal/retriever"
	"semdex/internal/store"
)

const (
	// ServerName is the MCP server name
	ServerName = "semdex"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server. Each tool call names a project root and the
// server assembles a retrieval engine for it on demand, so one server
// instance can serve any number of projects.
type Server struct {
	mcp *server.MCPServer
}

// NewServer creates a new MCP server instance
func NewServer() (*Server, error) {
	mcpServer := server.NewMCPServer(
		ServerName,
		ServerVersion,
	)

	s := &Server{mcp: mcpServer}

	if err := s.registerTools(); err != nil {
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}

	return s, nil
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() error {
	s.mcp.AddTool(indexProjectTool(), s.handleIndexProject)
	s.mcp.AddTool(retrieveContextTool(), s.handleRetrieveContext)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
	return nil
}

// openEngine assembles a retrieval engine for a project root. The returned
// store must be closed by the caller.
func openEngine(root string) (*retriever.Engine, *store.Store, error) {
	return retriever.Open(root)
}
