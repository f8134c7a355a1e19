package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/docsage/docsage/internal/docstore"
	"github.com/docsage/docsage/internal/log"
)

// Server wraps the MCP SDK server around a document store.
type Server struct {
	mcpServer *mcp.Server
	store     *docstore.Store
	logger    log.Logger
	name      string
	version   string
}

// Config holds document server configuration.
type Config struct {
	Name    string
	Version string
	Logger  log.Logger
	Store   *docstore.Store
}

func (cfg Config) validate() error {
	if cfg.Name == "" {
		return fmt.Errorf("server name is required")
	}
	if cfg.Version == "" {
		return fmt.Errorf("server version is required")
	}
	if cfg.Store == nil {
		return fmt.Errorf("document store is required")
	}
	return nil
}

// NewServer creates a document MCP server and registers all tools,
// resources, and prompts.
func NewServer(cfg Config) (*Server, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	s := &Server{
		mcpServer: mcp.NewServer(&mcp.Implementation{
			Name:    cfg.Name,
			Version: cfg.Version,
		}, nil),
		store:   cfg.Store,
		logger:  logger,
		name:    cfg.Name,
		version: cfg.Version,
	}

	if err := s.registerTools(); err != nil {
		return nil, fmt.Errorf("registering tools: %w", err)
	}
	s.registerResources()
	s.registerPrompts()

	return s, nil
}

// Run serves the MCP protocol on the given transport. It blocks until the
// context is cancelled or the transport closes.
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	s.logger.Info("document MCP server running", "name", s.name, "version", s.version)
	return s.mcpServer.Run(ctx, transport)
}
