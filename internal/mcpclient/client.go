// Package mcpclient provides the client-side handle to one MCP capability
// provider.
//
// A Client owns exactly one live transport session for its lifetime: the
// session is opened by Connect and torn down by Close, and a closed client
// must not be reused. Callers that need several providers open one Client
// per provider and hand them all to the tool registry.
package mcpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/docsage/docsage/internal/log"
	"github.com/docsage/docsage/internal/tools"
)

// DefaultCallTimeout bounds a single tool-call round trip.
const DefaultCallTimeout = 30 * time.Second

// Client wraps one MCP client session.
type Client struct {
	name        string
	session     *mcp.ClientSession
	logger      log.Logger
	callTimeout time.Duration
}

// Options configures a Client beyond its transport.
type Options struct {
	// Logger receives connection and call logging. Defaults to a nop
	// logger.
	Logger log.Logger

	// CallTimeout bounds each CallTool round trip. Defaults to
	// DefaultCallTimeout.
	CallTimeout time.Duration
}

// Connect opens a session to the provider reachable over transport.
// The caller owns the returned Client and must Close it on every exit
// path.
func Connect(ctx context.Context, name string, transport mcp.Transport, opts Options) (*Client, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.NewNop()
	}
	callTimeout := opts.CallTimeout
	if callTimeout <= 0 {
		callTimeout = DefaultCallTimeout
	}

	impl := mcp.NewClient(&mcp.Implementation{Name: "docsage", Version: "1.0.0"}, nil)
	session, err := impl.Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("connecting to MCP server %s: %w", name, err)
	}

	logger.Info("connected to MCP server", "server", name)
	return &Client{
		name:        name,
		session:     session,
		logger:      logger,
		callTimeout: callTimeout,
	}, nil
}

// Name returns the configured provider name.
func (c *Client) Name() string {
	return c.name
}

// ListTools returns the provider's tool catalog in server order.
func (c *Client) ListTools(ctx context.Context) ([]tools.Descriptor, error) {
	res, err := c.session.ListTools(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("listing tools on %s: %w", c.name, err)
	}

	descriptors := make([]tools.Descriptor, 0, len(res.Tools))
	for _, t := range res.Tools {
		schema, err := json.Marshal(t.InputSchema)
		if err != nil {
			return nil, fmt.Errorf("encoding schema for tool %s: %w", t.Name, err)
		}
		descriptors = append(descriptors, tools.Descriptor{
			Name:        t.Name,
			Description: t.Description,
			Schema:      schema,
		})
	}
	return descriptors, nil
}

// CallTool invokes a named tool, passing arguments through unvalidated;
// the remote side performs schema validation and reports mismatches as
// IsError results. An error return means the round trip itself failed.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (*tools.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	res, err := c.session.CallTool(ctx, &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		return nil, fmt.Errorf("calling tool %s on %s: %w", name, c.name, err)
	}

	result := &tools.Result{IsError: res.IsError}
	for _, content := range res.Content {
		if text, ok := content.(*mcp.TextContent); ok {
			result.Content = append(result.Content, text.Text)
		}
	}
	return result, nil
}

// ListResources returns the provider's resource catalog.
func (c *Client) ListResources(ctx context.Context) ([]tools.ResourceInfo, error) {
	res, err := c.session.ListResources(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("listing resources on %s: %w", c.name, err)
	}

	infos := make([]tools.ResourceInfo, 0, len(res.Resources))
	for _, r := range res.Resources {
		infos = append(infos, tools.ResourceInfo{
			URI:         r.URI,
			Name:        r.Name,
			Description: r.Description,
			MIMEType:    r.MIMEType,
		})
	}
	return infos, nil
}

// ReadResource reads a resource by URI and returns its text content.
// Multi-part contents are concatenated in order.
func (c *Client) ReadResource(ctx context.Context, uri string) (string, error) {
	res, err := c.session.ReadResource(ctx, &mcp.ReadResourceParams{URI: uri})
	if err != nil {
		return "", fmt.Errorf("reading resource %s on %s: %w", uri, c.name, err)
	}

	var out string
	for i, contents := range res.Contents {
		if i > 0 {
			out += "\n"
		}
		out += contents.Text
	}
	return out, nil
}

// PromptInfo describes one prompt advertised by the provider.
type PromptInfo struct {
	Name        string
	Description string
	Arguments   []string
}

// ListPrompts returns the provider's prompt catalog.
func (c *Client) ListPrompts(ctx context.Context) ([]PromptInfo, error) {
	res, err := c.session.ListPrompts(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("listing prompts on %s: %w", c.name, err)
	}

	infos := make([]PromptInfo, 0, len(res.Prompts))
	for _, p := range res.Prompts {
		info := PromptInfo{Name: p.Name, Description: p.Description}
		for _, arg := range p.Arguments {
			info.Arguments = append(info.Arguments, arg.Name)
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// GetPrompt fetches a prompt and returns its message texts in order.
func (c *Client) GetPrompt(ctx context.Context, name string, args map[string]string) ([]string, error) {
	res, err := c.session.GetPrompt(ctx, &mcp.GetPromptParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		return nil, fmt.Errorf("getting prompt %s on %s: %w", name, c.name, err)
	}

	var messages []string
	for _, m := range res.Messages {
		if text, ok := m.Content.(*mcp.TextContent); ok {
			messages = append(messages, text.Text)
		}
	}
	return messages, nil
}

// Close tears down the transport session. The client must not be used
// afterwards.
func (c *Client) Close() error {
	if c.session == nil {
		return nil
	}
	err := c.session.Close()
	c.session = nil
	if err != nil {
		return fmt.Errorf("closing session to %s: %w", c.name, err)
	}
	c.logger.Info("disconnected from MCP server", "server", c.name)
	return nil
}
