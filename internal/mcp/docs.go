package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/docsage/docsage/internal/docstore"
)

// ListDocumentsInput is the (empty) input for the list_documents tool.
type ListDocumentsInput struct{}

// ReadDocInput is the input for the read_doc_contents tool.
type ReadDocInput struct {
	DocID string `json:"doc_id" jsonschema:"Id of the document to read"`
}

// EditDocInput is the input for the edit_document tool.
type EditDocInput struct {
	DocID  string `json:"doc_id" jsonschema:"Id of the document that will be edited"`
	OldStr string `json:"old_str" jsonschema:"The text to replace. Must match exactly, including whitespace."`
	NewStr string `json:"new_str" jsonschema:"The new text to insert in place of the old text."`
}

// registerTools registers the three document tools.
func (s *Server) registerTools() error {
	listSchema, err := jsonschema.For[ListDocumentsInput](nil)
	if err != nil {
		return fmt.Errorf("schema for list_documents: %w", err)
	}
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_documents",
		Description: "List all available document IDs.",
		InputSchema: listSchema,
	}, s.listDocuments)

	readSchema, err := jsonschema.For[ReadDocInput](nil)
	if err != nil {
		return fmt.Errorf("schema for read_doc_contents: %w", err)
	}
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "read_doc_contents",
		Description: "Read the contents of a document and return it as a string.",
		InputSchema: readSchema,
	}, s.readDocContents)

	editSchema, err := jsonschema.For[EditDocInput](nil)
	if err != nil {
		return fmt.Errorf("schema for edit_document: %w", err)
	}
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "edit_document",
		Description: "Edit a document by replacing a string in the documents content with a new string.",
		InputSchema: editSchema,
	}, s.editDocument)

	return nil
}

// listDocuments handles the list_documents tool call.
func (s *Server) listDocuments(ctx context.Context, req *mcp.CallToolRequest, in ListDocumentsInput) (*mcp.CallToolResult, any, error) {
	ids := s.store.List()

	b, err := json.Marshal(ids)
	if err != nil {
		return nil, nil, fmt.Errorf("marshaling document ids: %w", err)
	}
	return textResult(string(b)), nil, nil
}

// readDocContents handles the read_doc_contents tool call.
func (s *Server) readDocContents(ctx context.Context, req *mcp.CallToolRequest, in ReadDocInput) (*mcp.CallToolResult, any, error) {
	content, err := s.store.Read(in.DocID)
	if err != nil {
		return storeErrorResult(err, in.DocID, ""), nil, nil
	}
	return textResult(content), nil, nil
}

// editDocument handles the edit_document tool call.
func (s *Server) editDocument(ctx context.Context, req *mcp.CallToolRequest, in EditDocInput) (*mcp.CallToolResult, any, error) {
	if err := s.store.Edit(in.DocID, in.OldStr, in.NewStr); err != nil {
		return storeErrorResult(err, in.DocID, in.OldStr), nil, nil
	}
	s.logger.Info("document edited", "doc_id", in.DocID)
	return textResult(fmt.Sprintf("Successfully updated document %s", in.DocID)), nil, nil
}

// registerResources registers the document list resource and the
// per-document content resource template.
func (s *Server) registerResources() {
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         "docs://list",
		Name:        "Document List",
		Description: "A list of all document ids",
		MIMEType:    "application/json",
	}, s.readDocList)

	s.mcpServer.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "docs://content/{doc_id}",
		Name:        "Document Content",
		Description: "The content of a specific document",
		MIMEType:    "text/plain",
	}, s.readDocResource)
}

// readDocList serves the docs://list resource.
func (s *Server) readDocList(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	b, err := json.Marshal(s.store.List())
	if err != nil {
		return nil, fmt.Errorf("marshaling document ids: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(b),
		}},
	}, nil
}

// readDocResource serves docs://content/{doc_id}.
func (s *Server) readDocResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := req.Params.URI
	docID := strings.TrimPrefix(uri, "docs://content/")
	if docID == uri || docID == "" {
		return nil, mcp.ResourceNotFoundError(uri)
	}

	content, err := s.store.Read(docID)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, mcp.ResourceNotFoundError(uri)
		}
		return nil, err
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     content,
		}},
	}, nil
}

// documentPrompts drives prompt registration: name, description, and the
// instruction prefixed to the document content.
var documentPrompts = []struct {
	name        string
	description string
	instruction string
}{
	{
		name:        "markdown_rewrite",
		description: "Rewrite a document's content in markdown format",
		instruction: "Please rewrite the following content in markdown format:",
	},
	{
		name:        "summarize_doc",
		description: "Summarize a document's content",
		instruction: "Please summarize the following content:",
	},
	{
		name:        "extract_key_points",
		description: "Extract key points from a document's content",
		instruction: "Please extract and list the key points from the following content:",
	},
}

// registerPrompts registers the document workflow prompts.
func (s *Server) registerPrompts() {
	for _, p := range documentPrompts {
		instruction := p.instruction
		s.mcpServer.AddPrompt(&mcp.Prompt{
			Name:        p.name,
			Description: p.description,
			Arguments: []*mcp.PromptArgument{{
				Name:        "doc_id",
				Description: "Id of the document",
				Required:    true,
			}},
		}, func(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
			docID := req.Params.Arguments["doc_id"]
			content, err := s.store.Read(docID)
			if err != nil {
				return nil, fmt.Errorf("doc with id %s not found", docID)
			}
			return &mcp.GetPromptResult{
				Messages: []*mcp.PromptMessage{{
					Role: "user",
					Content: &mcp.TextContent{
						Text: instruction + "\n\n" + content,
					},
				}},
			}, nil
		})
	}
}

// textResult builds a single-text-block success result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

// storeErrorResult converts a docstore error into an IsError tool result.
// The not-found message format is part of the tool contract.
func storeErrorResult(err error, docID, oldStr string) *mcp.CallToolResult {
	var text string
	switch {
	case errors.Is(err, docstore.ErrNotFound):
		text = fmt.Sprintf("Doc with id %s not found", docID)
	case errors.Is(err, docstore.ErrNoMatch):
		text = fmt.Sprintf("Text %q not found in doc with id %s", oldStr, docID)
	default:
		text = err.Error()
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}
