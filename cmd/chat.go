package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/docsage/docsage/internal/config"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	Long: `Chat interactively with the model. Mention documents with @doc-id to
include their content, and run server prompts with /prompt-name doc-id.
Type /help inside the session for the full command list.`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx := context.Background()
	s, err := newSession(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	defer line.Close()

	historyFile := historyPath()
	loadHistory(line, historyFile)
	defer saveHistory(line, historyFile)

	line.SetCompleter(s.completeInput(ctx))

	fmt.Printf("docsage %s — chat with your documents\n", Version)
	fmt.Println("Type /help for commands, Ctrl+D to exit.")
	fmt.Println()

	for {
		input, err := line.Prompt("> ")
		if err != nil {
			// Ctrl+C or Ctrl+D both end the session.
			if errors.Is(err, liner.ErrPromptAborted) {
				fmt.Println()
			}
			fmt.Println("Goodbye!")
			return nil
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		if strings.HasPrefix(input, "/") {
			exit, err := s.handleCommand(ctx, input)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
			if exit {
				fmt.Println("Goodbye!")
				return nil
			}
			continue
		}

		query, err := s.expandMentions(ctx, input)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}

		answer, err := s.chat.Run(ctx, query)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}
		fmt.Println(renderAnswer(answer))
	}
}

// expandMentions resolves @doc-id tokens against the docs://content
// resource and appends the referenced documents to the query, so the
// model sees their content without a tool round trip.
func (s *session) expandMentions(ctx context.Context, input string) (string, error) {
	if s.docs == nil || !strings.Contains(input, "@") {
		return input, nil
	}

	var attached []string
	seen := make(map[string]bool)
	for _, field := range strings.Fields(input) {
		if !strings.HasPrefix(field, "@") {
			continue
		}
		id := strings.Trim(field[1:], ".,;:!?")
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true

		content, err := s.docs.ReadResource(ctx, "docs://content/"+id)
		if err != nil {
			return "", fmt.Errorf("document %q: %w", id, err)
		}
		attached = append(attached, fmt.Sprintf("<document id=%q>\n%s\n</document>", id, content))
	}

	if len(attached) == 0 {
		return input, nil
	}
	return input + "\n\n" + strings.Join(attached, "\n"), nil
}

// handleCommand dispatches /commands. Unrecognized names are tried as
// server prompts before giving up. Returns true when the session should
// end.
func (s *session) handleCommand(ctx context.Context, input string) (bool, error) {
	parts := strings.Fields(input)
	name := strings.TrimPrefix(parts[0], "/")

	switch name {
	case "help":
		fmt.Println("Commands:")
		fmt.Println("  /docs             List available documents")
		fmt.Println("  /tools            List available tools")
		fmt.Println("  /prompts          List server prompts")
		fmt.Println("  /<prompt> <doc>   Run a server prompt against a document")
		fmt.Println("  /clear            Clear conversation history")
		fmt.Println("  /exit, /quit      Exit")
		fmt.Println("Mention documents with @doc-id to include their content.")
		return false, nil

	case "docs":
		ids, err := s.listDocIDs(ctx)
		if err != nil {
			return false, err
		}
		for _, id := range ids {
			fmt.Println("  " + id)
		}
		return false, nil

	case "tools":
		for _, d := range s.registry.Catalog() {
			fmt.Printf("  %-20s %s\n", d.Name, d.Description)
		}
		return false, nil

	case "prompts":
		if s.docs == nil {
			return false, errors.New("no MCP server connected")
		}
		prompts, err := s.docs.ListPrompts(ctx)
		if err != nil {
			return false, err
		}
		for _, p := range prompts {
			fmt.Printf("  %-20s %s\n", p.Name, p.Description)
		}
		return false, nil

	case "clear":
		s.chat.Clear()
		fmt.Println("Conversation cleared.")
		return false, nil

	case "exit", "quit":
		return true, nil
	}

	return false, s.runPrompt(ctx, name, parts[1:])
}

// runPrompt fetches a server prompt and feeds its messages through the
// orchestrator.
func (s *session) runPrompt(ctx context.Context, name string, args []string) error {
	if s.docs == nil {
		return errors.New("no MCP server connected")
	}
	if len(args) != 1 {
		return fmt.Errorf("usage: /%s <doc-id>", name)
	}

	messages, err := s.docs.GetPrompt(ctx, name, map[string]string{"doc_id": args[0]})
	if err != nil {
		return fmt.Errorf("unknown command or prompt %q: %w", name, err)
	}

	for _, msg := range messages {
		answer, err := s.chat.Run(ctx, msg)
		if err != nil {
			return err
		}
		fmt.Println(renderAnswer(answer))
	}
	return nil
}

// completeInput offers completions for /commands, server prompt names,
// and @doc mentions.
func (s *session) completeInput(ctx context.Context) liner.Completer {
	builtins := []string{"/help", "/docs", "/tools", "/prompts", "/clear", "/exit", "/quit"}

	return func(line string) []string {
		var out []string
		switch {
		case strings.HasPrefix(line, "/"):
			for _, c := range builtins {
				if strings.HasPrefix(c, line) {
					out = append(out, c)
				}
			}
			if s.docs != nil {
				if prompts, err := s.docs.ListPrompts(ctx); err == nil {
					for _, p := range prompts {
						if c := "/" + p.Name; strings.HasPrefix(c, line) {
							out = append(out, c+" ")
						}
					}
				}
			}
		case strings.Contains(line, "@"):
			at := strings.LastIndex(line, "@")
			prefix, partial := line[:at+1], line[at+1:]
			ids, err := s.listDocIDs(ctx)
			if err != nil {
				break
			}
			for _, id := range ids {
				if strings.HasPrefix(id, partial) {
					out = append(out, prefix+id)
				}
			}
		}
		return out
	}
}

// listDocIDs reads the docs://list resource and decodes the id array.
func (s *session) listDocIDs(ctx context.Context) ([]string, error) {
	if s.docs == nil {
		return nil, errors.New("no MCP server connected")
	}
	raw, err := s.docs.ReadResource(ctx, "docs://list")
	if err != nil {
		return nil, err
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, fmt.Errorf("decoding document list: %w", err)
	}
	return ids, nil
}

// renderAnswer renders markdown answers when stdout is a terminal and
// falls back to the raw text otherwise.
func renderAnswer(answer string) string {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return answer
	}
	renderer, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		return answer
	}
	rendered, err := renderer.Render(answer)
	if err != nil {
		return answer
	}
	return strings.TrimRight(rendered, "\n")
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "docsage_history")
	}
	return filepath.Join(home, ".docsage", "chat_history")
}

func loadHistory(line *liner.State, path string) {
	if f, err := os.Open(path); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}
}

func saveHistory(line *liner.State, path string) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = line.WriteHistory(f)
}
