// Package mcp implements the document MCP server.
//
// The server exposes the in-memory document store over the Model Context
// Protocol using the official Go SDK:
//
//   - Tools: list_documents, read_doc_contents, edit_document
//   - Resources: docs://list and docs://content/{doc_id}
//   - Prompts: markdown_rewrite, summarize_doc, extract_key_points
//
// Store-level failures (unknown document, non-matching edit text) are
// reported as IsError tool results with a plain-text explanation, never
// as protocol faults, so a conversational client can surface them to the
// model and continue.
package mcp
