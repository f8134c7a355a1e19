package cmd

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/time/rate"

	"github.com/docsage/docsage/internal/chat"
	"github.com/docsage/docsage/internal/config"
	"github.com/docsage/docsage/internal/log"
	"github.com/docsage/docsage/internal/mcpclient"
	"github.com/docsage/docsage/internal/tools"
)

// session wires together everything one conversation needs: the MCP
// clients, the aggregated tool registry, and the orchestrator. Each CLI
// invocation owns its own session; nothing is shared.
type session struct {
	cfg      *config.Config
	logger   log.Logger
	clients  []*mcpclient.Client
	registry *tools.Registry
	chat     *chat.Chat

	// docs is the first connected client, used by the front end for
	// resource reads and prompt fetches.
	docs *mcpclient.Client
}

// newSession connects all configured MCP servers, discovers their tools,
// and builds the orchestrator. Callers must Close the session on every
// exit path.
func newSession(ctx context.Context, cfg *config.Config, logger log.Logger) (*session, error) {
	if err := cfg.RequireAPIKey(); err != nil {
		fmt.Fprintln(os.Stderr, "Error: GEMINI_API_KEY environment variable not set")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Please run:")
		fmt.Fprintln(os.Stderr, "  export GEMINI_API_KEY=your-api-key")
		return nil, err
	}

	s := &session{cfg: cfg, logger: logger}
	specs, err := serverSpecs(cfg)
	if err != nil {
		return nil, err
	}

	for _, spec := range specs {
		transport, err := mcpclient.BuildTransport(ctx, spec)
		if err != nil {
			s.Close()
			return nil, err
		}
		client, err := mcpclient.Connect(ctx, spec.Name, transport, mcpclient.Options{
			Logger: logger.With("component", "mcpclient"),
		})
		if err != nil {
			s.Close()
			return nil, err
		}
		s.clients = append(s.clients, client)
	}
	if len(s.clients) > 0 {
		s.docs = s.clients[0]
	}

	s.registry = tools.NewRegistry(logger.With("component", "registry"))
	providers := make([]tools.Provider, len(s.clients))
	for i, c := range s.clients {
		providers[i] = c
	}
	if err := s.registry.Discover(ctx, providers...); err != nil {
		s.Close()
		return nil, fmt.Errorf("discovering tools: %w", err)
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}

	completer, err := chat.NewGemini(ctx, chat.GeminiConfig{
		APIKey:       cfg.GeminiAPIKey,
		Model:        cfg.ModelName,
		SystemPrompt: cfg.SystemPrompt,
		Temperature:  float32(cfg.Temperature),
		MaxTokens:    int32(cfg.MaxTokens),
		RateLimiter:  limiter,
		Logger:       logger.With("component", "gemini"),
	})
	if err != nil {
		s.Close()
		return nil, err
	}

	s.chat, err = chat.New(chat.Config{
		Completer: completer,
		Registry:  s.registry,
		Logger:    logger.With("component", "chat"),
		MaxRounds: cfg.MaxRounds,
	})
	if err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Close tears down every MCP session.
func (s *session) Close() {
	for _, c := range s.clients {
		if err := c.Close(); err != nil {
			s.logger.Warn("closing MCP client", "server", c.Name(), "error", err)
		}
	}
	s.clients = nil
}

// serverSpecs returns the configured MCP servers, falling back to the
// built-in document server spawned from this binary over a process pipe.
func serverSpecs(cfg *config.Config) ([]mcpclient.ServerSpec, error) {
	if len(cfg.Servers) > 0 {
		specs := make([]mcpclient.ServerSpec, 0, len(cfg.Servers))
		for _, s := range cfg.Servers {
			specs = append(specs, mcpclient.ServerSpec{
				Name:    s.Name,
				Command: s.Command,
				Args:    s.Args,
				URL:     s.URL,
			})
		}
		return specs, nil
	}

	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("resolving executable for built-in server: %w", err)
	}
	return []mcpclient.ServerSpec{{
		Name:    "docs",
		Command: exe,
		Args:    []string{"serve"},
	}}, nil
}
