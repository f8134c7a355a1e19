package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/docsage/docsage/internal/docstore"
	"github.com/docsage/docsage/internal/log"
)

// connectServer builds a document server over the given store and an SDK
// client connected via in-memory transports. Both sessions are cleaned
// up via t.Cleanup.
func connectServer(t *testing.T, store *docstore.Store) *mcp.ClientSession {
	t.Helper()

	server, err := NewServer(Config{
		Name:    "test-docs",
		Version: "0.0.1",
		Logger:  log.NewNop(),
		Store:   store,
	})
	if err != nil {
		t.Fatalf("NewServer() unexpected error: %v", err)
	}

	ctx := context.Background()
	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	serverSession, err := server.mcpServer.Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("server.Connect() unexpected error: %v", err)
	}
	t.Cleanup(func() { _ = serverSession.Close() })

	client := mcp.NewClient(&mcp.Implementation{
		Name:    "test-client",
		Version: "1.0.0",
	}, nil)

	clientSession, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client.Connect() unexpected error: %v", err)
	}
	t.Cleanup(func() { _ = clientSession.Close() })

	return clientSession
}

// callTool invokes a tool and returns the joined text content plus the
// IsError flag.
func callTool(t *testing.T, session *mcp.ClientSession, name string, args map[string]any) (string, bool) {
	t.Helper()

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s) unexpected error: %v", name, err)
	}

	var sb strings.Builder
	for _, content := range result.Content {
		if text, ok := content.(*mcp.TextContent); ok {
			sb.WriteString(text.Text)
		}
	}
	return sb.String(), result.IsError
}

func TestNewServer_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"missing name", Config{Version: "1", Store: docstore.New()}},
		{"missing version", Config{Name: "docs", Store: docstore.New()}},
		{"missing store", Config{Name: "docs", Version: "1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewServer(tt.cfg); err == nil {
				t.Errorf("NewServer(%+v) expected error, got nil", tt.cfg)
			}
		})
	}
}

func TestListTools(t *testing.T) {
	session := connectServer(t, docstore.New())

	result, err := session.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListTools() unexpected error: %v", err)
	}

	want := map[string]bool{
		"list_documents":    false,
		"read_doc_contents": false,
		"edit_document":     false,
	}
	for _, tool := range result.Tools {
		if _, ok := want[tool.Name]; !ok {
			t.Errorf("unexpected tool %q", tool.Name)
			continue
		}
		want[tool.Name] = true
		if tool.Description == "" {
			t.Errorf("tool %q has empty description", tool.Name)
		}
	}
	for name, seen := range want {
		if !seen {
			t.Errorf("tool %q not advertised", name)
		}
	}
}

func TestListDocumentsTool(t *testing.T) {
	session := connectServer(t, docstore.New())

	text, isError := callTool(t, session, "list_documents", map[string]any{})
	if isError {
		t.Fatalf("list_documents returned IsError with text %q", text)
	}

	var ids []string
	if err := json.Unmarshal([]byte(text), &ids); err != nil {
		t.Fatalf("list_documents returned invalid JSON %q: %v", text, err)
	}
	if len(ids) != 6 {
		t.Errorf("list_documents returned %d ids, want 6: %v", len(ids), ids)
	}
}

func TestReadDocTool(t *testing.T) {
	session := connectServer(t, docstore.New())

	text, isError := callTool(t, session, "read_doc_contents", map[string]any{"doc_id": "plan.md"})
	if isError {
		t.Fatalf("read_doc_contents returned IsError with text %q", text)
	}
	if !strings.Contains(text, "plan") {
		t.Errorf("read_doc_contents = %q, want plan.md content", text)
	}
}

func TestReadDocTool_NotFound(t *testing.T) {
	session := connectServer(t, docstore.New())

	text, isError := callTool(t, session, "read_doc_contents", map[string]any{"doc_id": "nope.md"})
	if !isError {
		t.Fatalf("read_doc_contents for unknown id should set IsError, got text %q", text)
	}
	if text != "Doc with id nope.md not found" {
		t.Errorf("error text = %q, want %q", text, "Doc with id nope.md not found")
	}
}

func TestEditDocTool(t *testing.T) {
	store, err := docstore.NewWithDocuments(
		[]string{"a.md"},
		map[string]string{"a.md": "hello world"},
	)
	if err != nil {
		t.Fatalf("NewWithDocuments() unexpected error: %v", err)
	}
	session := connectServer(t, store)

	text, isError := callTool(t, session, "edit_document", map[string]any{
		"doc_id":  "a.md",
		"old_str": "world",
		"new_str": "there",
	})
	if isError {
		t.Fatalf("edit_document returned IsError with text %q", text)
	}

	content, isError := callTool(t, session, "read_doc_contents", map[string]any{"doc_id": "a.md"})
	if isError {
		t.Fatalf("read after edit returned IsError with text %q", content)
	}
	if content != "hello there" {
		t.Errorf("content after edit = %q, want %q", content, "hello there")
	}

	// The same edit again must fail: "world" is gone.
	text, isError = callTool(t, session, "edit_document", map[string]any{
		"doc_id":  "a.md",
		"old_str": "world",
		"new_str": "x",
	})
	if !isError {
		t.Fatalf("second identical edit should set IsError, got text %q", text)
	}
}

func TestEditDocTool_NotFound(t *testing.T) {
	session := connectServer(t, docstore.New())

	text, isError := callTool(t, session, "edit_document", map[string]any{
		"doc_id":  "missing.md",
		"old_str": "a",
		"new_str": "b",
	})
	if !isError {
		t.Fatalf("edit_document for unknown id should set IsError, got %q", text)
	}
	if text != "Doc with id missing.md not found" {
		t.Errorf("error text = %q, want %q", text, "Doc with id missing.md not found")
	}
}

func TestDocListResource(t *testing.T) {
	session := connectServer(t, docstore.New())

	result, err := session.ReadResource(context.Background(), &mcp.ReadResourceParams{
		URI: "docs://list",
	})
	if err != nil {
		t.Fatalf("ReadResource(docs://list) unexpected error: %v", err)
	}
	if len(result.Contents) != 1 {
		t.Fatalf("docs://list returned %d contents, want 1", len(result.Contents))
	}

	var ids []string
	if err := json.Unmarshal([]byte(result.Contents[0].Text), &ids); err != nil {
		t.Fatalf("docs://list returned invalid JSON: %v", err)
	}
	if len(ids) != 6 || ids[0] != "deposition.md" {
		t.Errorf("docs://list = %v, want 6 ids starting with deposition.md", ids)
	}
}

func TestDocContentResource(t *testing.T) {
	session := connectServer(t, docstore.New())

	result, err := session.ReadResource(context.Background(), &mcp.ReadResourceParams{
		URI: "docs://content/report.pdf",
	})
	if err != nil {
		t.Fatalf("ReadResource(docs://content/report.pdf) unexpected error: %v", err)
	}
	if len(result.Contents) != 1 {
		t.Fatalf("expected 1 contents entry, got %d", len(result.Contents))
	}
	if !strings.Contains(result.Contents[0].Text, "condenser tower") {
		t.Errorf("docs://content/report.pdf = %q, want report content", result.Contents[0].Text)
	}
}

func TestDocContentResource_NotFound(t *testing.T) {
	session := connectServer(t, docstore.New())

	_, err := session.ReadResource(context.Background(), &mcp.ReadResourceParams{
		URI: "docs://content/missing.md",
	})
	if err == nil {
		t.Fatal("ReadResource for unknown document should fail")
	}
}

func TestListPrompts(t *testing.T) {
	session := connectServer(t, docstore.New())

	result, err := session.ListPrompts(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListPrompts() unexpected error: %v", err)
	}

	want := map[string]bool{
		"markdown_rewrite":   false,
		"summarize_doc":      false,
		"extract_key_points": false,
	}
	for _, p := range result.Prompts {
		if _, ok := want[p.Name]; !ok {
			t.Errorf("unexpected prompt %q", p.Name)
			continue
		}
		want[p.Name] = true
	}
	for name, seen := range want {
		if !seen {
			t.Errorf("prompt %q not advertised", name)
		}
	}
}

func TestGetPrompt(t *testing.T) {
	session := connectServer(t, docstore.New())

	result, err := session.GetPrompt(context.Background(), &mcp.GetPromptParams{
		Name:      "summarize_doc",
		Arguments: map[string]string{"doc_id": "plan.md"},
	})
	if err != nil {
		t.Fatalf("GetPrompt(summarize_doc) unexpected error: %v", err)
	}
	if len(result.Messages) != 1 {
		t.Fatalf("expected 1 prompt message, got %d", len(result.Messages))
	}

	text, ok := result.Messages[0].Content.(*mcp.TextContent)
	if !ok {
		t.Fatalf("prompt message content is %T, want *mcp.TextContent", result.Messages[0].Content)
	}
	if !strings.Contains(text.Text, "summarize") || !strings.Contains(text.Text, "plan") {
		t.Errorf("prompt text = %q, want summarize instruction with plan.md content", text.Text)
	}
}

func TestGetPrompt_UnknownDocument(t *testing.T) {
	session := connectServer(t, docstore.New())

	_, err := session.GetPrompt(context.Background(), &mcp.GetPromptParams{
		Name:      "summarize_doc",
		Arguments: map[string]string{"doc_id": "missing.md"},
	})
	if err == nil {
		t.Fatal("GetPrompt for unknown document should fail")
	}
}
