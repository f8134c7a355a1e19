package mcpclient

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ServerSpec describes how to reach one MCP server. Exactly one of
// Command or URL must be set.
type ServerSpec struct {
	// Name identifies the server in logs and the registry.
	Name string

	// Command plus Args launches a local server process speaking MCP on
	// its stdio.
	Command string
	Args    []string

	// URL points at a streamable-HTTP MCP endpoint.
	URL string
}

func (s ServerSpec) validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("server spec needs a name")
	}
	hasCommand := strings.TrimSpace(s.Command) != ""
	hasURL := strings.TrimSpace(s.URL) != ""
	if hasCommand == hasURL {
		return fmt.Errorf("server %q: exactly one of command or url must be set", s.Name)
	}
	if hasURL && !strings.HasPrefix(s.URL, "http://") && !strings.HasPrefix(s.URL, "https://") {
		return fmt.Errorf("server %q: unsupported url %q", s.Name, s.URL)
	}
	return nil
}

// BuildTransport constructs the client transport for a server spec.
func BuildTransport(ctx context.Context, spec ServerSpec) (mcp.Transport, error) {
	if err := spec.validate(); err != nil {
		return nil, err
	}

	if spec.Command != "" {
		// #nosec G204 -- the command comes from the user's own config
		cmd := exec.CommandContext(ctx, spec.Command, spec.Args...)
		return &mcp.CommandTransport{Command: cmd}, nil
	}
	return &mcp.StreamableClientTransport{Endpoint: spec.URL}, nil
}
