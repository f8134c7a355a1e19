// Package chat implements the conversation orchestrator.
//
// A Chat owns an append-only transcript of conversation turns. Run sends
// the transcript plus the aggregated tool catalog to the chat model and,
// whenever the model requests tools, executes them sequentially through
// the registry, appends the results, and resends, until the model
// produces a final answer or the round bound is hit.
package chat

import (
	"context"
	"strings"

	"github.com/docsage/docsage/internal/tools"
)

// Role identifies who produced a transcript turn.
type Role string

const (
	// RoleUser marks turns carrying user input.
	RoleUser Role = "user"

	// RoleAssistant marks turns produced by the chat model.
	RoleAssistant Role = "assistant"

	// RoleTool marks turns carrying tool invocation results.
	RoleTool Role = "tool"
)

// StopReason is the discriminant a completion ends with.
type StopReason string

const (
	// StopEnd means the assistant turn is a final answer.
	StopEnd StopReason = "end"

	// StopToolUse means the assistant turn contains tool requests that
	// must be satisfied before the conversation can continue.
	StopToolUse StopReason = "tool_use"
)

// ToolRequest is the model's request to invoke one tool.
type ToolRequest struct {
	// ID correlates the request with its result across turns.
	ID string

	// Name is the tool to invoke.
	Name string

	// Args are passed through to the provider unvalidated.
	Args map[string]any
}

// Block is one element of a turn's content. Exactly one field is set.
type Block struct {
	Text        string
	ToolRequest *ToolRequest
	ToolResult  *tools.Result
}

// Turn is one entry of the transcript. Once appended to a transcript a
// turn is never mutated.
type Turn struct {
	Role   Role
	Blocks []Block
}

// UserTurn builds a user turn from a single text block.
func UserTurn(text string) Turn {
	return Turn{Role: RoleUser, Blocks: []Block{{Text: text}}}
}

// Text concatenates the turn's text blocks.
func (t Turn) Text() string {
	var sb strings.Builder
	for _, b := range t.Blocks {
		if b.Text != "" {
			sb.WriteString(b.Text)
		}
	}
	return sb.String()
}

// ToolRequests returns the turn's tool-request blocks in order.
func (t Turn) ToolRequests() []*ToolRequest {
	var reqs []*ToolRequest
	for _, b := range t.Blocks {
		if b.ToolRequest != nil {
			reqs = append(reqs, b.ToolRequest)
		}
	}
	return reqs
}

// Completion is one chat-model reply: the assistant turn to append and
// the discriminant saying why generation stopped.
type Completion struct {
	StopReason StopReason
	Turn       Turn
}

// Completer performs one blocking chat-model round trip over the full
// transcript and tool catalog. Implemented by Gemini; tests substitute
// scripted fakes.
type Completer interface {
	Complete(ctx context.Context, transcript []Turn, catalog []tools.Descriptor) (*Completion, error)
}
