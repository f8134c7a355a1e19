package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/docsage/docsage/internal/log"
	"github.com/docsage/docsage/internal/tools"
)

// DefaultMaxRounds bounds completion/tool-execution cycles per Run call.
// The bound exists so a model that keeps requesting tools cannot loop the
// conversation forever.
const DefaultMaxRounds = 5

// ErrMaxRounds is returned when a single Run exceeds the configured
// number of completion rounds without reaching a final answer.
var ErrMaxRounds = errors.New("maximum completion rounds exceeded")

// Config contains all required parameters for a Chat.
type Config struct {
	Completer Completer
	Registry  *tools.Registry
	Logger    log.Logger

	// MaxRounds caps completion rounds per Run. Values <= 0 select
	// DefaultMaxRounds.
	MaxRounds int
}

func (cfg Config) validate() error {
	if cfg.Completer == nil {
		return errors.New("completer is required")
	}
	if cfg.Registry == nil {
		return errors.New("tool registry is required")
	}
	return nil
}

// Chat drives one conversation. It owns the transcript exclusively: turns
// are only ever appended, never mutated or removed. A Chat must not be
// shared across concurrent conversations.
type Chat struct {
	completer  Completer
	registry   *tools.Registry
	logger     log.Logger
	maxRounds  int
	transcript []Turn
}

// New creates a Chat with the given configuration.
func New(cfg Config) (*Chat, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}
	maxRounds := cfg.MaxRounds
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}

	return &Chat{
		completer: cfg.Completer,
		registry:  cfg.Registry,
		logger:    logger,
		maxRounds: maxRounds,
	}, nil
}

// Run appends a user turn carrying query, then cycles completion and tool
// execution until the model signals a final answer, which is returned as
// the concatenation of the assistant turn's text blocks.
//
// Tool-execution failures never abort the run; they come back as IsError
// results for the model to react to. Completion transport errors do
// surface, since the conversation cannot continue without the API.
func (c *Chat) Run(ctx context.Context, query string) (string, error) {
	c.transcript = append(c.transcript, UserTurn(query))

	for round := 0; round < c.maxRounds; round++ {
		completion, err := c.completer.Complete(ctx, c.transcript, c.registry.Catalog())
		if err != nil {
			return "", fmt.Errorf("requesting completion: %w", err)
		}

		// The assistant turn is appended as-is, preserving all
		// tool-request blocks in their original order.
		c.transcript = append(c.transcript, completion.Turn)

		if completion.StopReason != StopToolUse {
			return completion.Turn.Text(), nil
		}

		requests := completion.Turn.ToolRequests()
		if len(requests) == 0 {
			c.logger.Warn("tool_use stop with no tool requests, treating as final answer")
			return completion.Turn.Text(), nil
		}

		c.logger.Info("executing tool requests", "round", round+1, "count", len(requests))
		c.transcript = append(c.transcript, c.executeTools(ctx, requests))
	}

	return "", fmt.Errorf("%w after %d rounds", ErrMaxRounds, c.maxRounds)
}

// executeTools invokes every requested tool sequentially, in request
// order, and collects all results into a single tool turn. Result order
// and call IDs mirror the requests.
func (c *Chat) executeTools(ctx context.Context, requests []*ToolRequest) Turn {
	turn := Turn{Role: RoleTool}
	for _, req := range requests {
		result := c.registry.Invoke(ctx, req.ID, req.Name, req.Args)
		turn.Blocks = append(turn.Blocks, Block{ToolResult: result})
	}
	return turn
}

// Transcript returns a copy of the conversation so far.
func (c *Chat) Transcript() []Turn {
	out := make([]Turn, len(c.transcript))
	copy(out, c.transcript)
	return out
}

// Clear drops the conversation history.
func (c *Chat) Clear() {
	c.transcript = nil
}

// Len returns the number of transcript turns.
func (c *Chat) Len() int {
	return len(c.transcript)
}
