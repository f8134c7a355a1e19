package chat

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/docsage/docsage/internal/log"
	"github.com/docsage/docsage/internal/tools"
)

// GeminiConfig contains the parameters for the Gemini completer.
type GeminiConfig struct {
	APIKey       string
	Model        string
	SystemPrompt string
	Temperature  float32
	MaxTokens    int32

	// RateLimiter throttles requests ahead of each round trip.
	// Nil disables proactive rate limiting.
	RateLimiter *rate.Limiter

	Logger log.Logger
}

func (cfg GeminiConfig) validate() error {
	if cfg.APIKey == "" {
		return fmt.Errorf("API key is required")
	}
	if cfg.Model == "" {
		return fmt.Errorf("model name is required")
	}
	return nil
}

// Gemini is the Completer backed by the Gemini API.
type Gemini struct {
	client      *genai.Client
	model       string
	system      string
	temperature float32
	maxTokens   int32
	limiter     *rate.Limiter
	logger      log.Logger
}

// NewGemini creates a Gemini completer. Configuration is captured
// immutably at construction.
func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}

	return &Gemini{
		client:      client,
		model:       cfg.Model,
		system:      cfg.SystemPrompt,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		limiter:     cfg.RateLimiter,
		logger:      logger,
	}, nil
}

// Complete sends the transcript and tool catalog in one blocking round
// trip and maps the reply back to a Completion. The stop discriminant is
// derived from the reply: any function-call part means StopToolUse,
// otherwise StopEnd.
func (g *Gemini) Complete(ctx context.Context, transcript []Turn, catalog []tools.Descriptor) (*Completion, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}

	contents, err := contentsFromTranscript(transcript)
	if err != nil {
		return nil, err
	}

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(g.temperature),
		MaxOutputTokens: g.maxTokens,
	}
	if g.system != "" {
		config.SystemInstruction = genai.NewContentFromText(g.system, genai.RoleUser)
	}
	if len(catalog) > 0 {
		declarations, err := declarationsFromCatalog(catalog)
		if err != nil {
			return nil, err
		}
		config.Tools = []*genai.Tool{{FunctionDeclarations: declarations}}
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("generating content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("model returned no candidates")
	}

	candidate := resp.Candidates[0]
	turn := Turn{Role: RoleAssistant}
	stop := StopEnd
	for _, part := range candidate.Content.Parts {
		switch {
		case part.FunctionCall != nil:
			id := part.FunctionCall.ID
			if id == "" {
				// Gemini does not always assign call IDs; the transcript
				// invariant needs one to pair requests with results.
				id = uuid.NewString()
			}
			turn.Blocks = append(turn.Blocks, Block{ToolRequest: &ToolRequest{
				ID:   id,
				Name: part.FunctionCall.Name,
				Args: part.FunctionCall.Args,
			}})
			stop = StopToolUse
		case part.Text != "":
			turn.Blocks = append(turn.Blocks, Block{Text: part.Text})
		}
	}

	g.logger.Debug("completion received",
		"finish_reason", candidate.FinishReason,
		"stop", stop,
		"blocks", len(turn.Blocks))

	return &Completion{StopReason: stop, Turn: turn}, nil
}

// contentsFromTranscript maps transcript turns to Gemini contents.
// Tool-result turns are sent as user-role function responses, the shape
// the Gemini API expects.
func contentsFromTranscript(transcript []Turn) ([]*genai.Content, error) {
	contents := make([]*genai.Content, 0, len(transcript))
	for _, turn := range transcript {
		role := genai.RoleUser
		if turn.Role == RoleAssistant {
			role = genai.RoleModel
		}

		content := &genai.Content{Role: role}
		for _, block := range turn.Blocks {
			switch {
			case block.Text != "":
				content.Parts = append(content.Parts, &genai.Part{Text: block.Text})
			case block.ToolRequest != nil:
				content.Parts = append(content.Parts, &genai.Part{FunctionCall: &genai.FunctionCall{
					ID:   block.ToolRequest.ID,
					Name: block.ToolRequest.Name,
					Args: block.ToolRequest.Args,
				}})
			case block.ToolResult != nil:
				content.Parts = append(content.Parts, &genai.Part{FunctionResponse: &genai.FunctionResponse{
					ID:       block.ToolResult.CallID,
					Name:     block.ToolResult.Name,
					Response: functionResponseBody(block.ToolResult),
				}})
			default:
				return nil, fmt.Errorf("turn with role %s has an empty content block", turn.Role)
			}
		}
		contents = append(contents, content)
	}
	return contents, nil
}

// functionResponseBody shapes a tool result the way Gemini expects:
// "output" on success, "error" on failure.
func functionResponseBody(res *tools.Result) map[string]any {
	if res.IsError {
		return map[string]any{"error": res.Text()}
	}
	return map[string]any{"output": res.Text()}
}

// declarationsFromCatalog converts tool descriptors to Gemini function
// declarations, passing the JSON schema through untouched.
func declarationsFromCatalog(catalog []tools.Descriptor) ([]*genai.FunctionDeclaration, error) {
	declarations := make([]*genai.FunctionDeclaration, 0, len(catalog))
	for _, d := range catalog {
		var schema map[string]any
		if len(d.Schema) > 0 {
			if err := json.Unmarshal(d.Schema, &schema); err != nil {
				return nil, fmt.Errorf("decoding schema for tool %s: %w", d.Name, err)
			}
		}
		declarations = append(declarations, &genai.FunctionDeclaration{
			Name:                 d.Name,
			Description:          d.Description,
			ParametersJsonSchema: schema,
		})
	}
	return declarations, nil
}
