// Package nlu turns a normalized utterance into a catalog command and a
// command into the side effects it asks for.
package nlu

import (
	"context"
	"encoding/json"
	"fmt"
	log "log/slog"
	"strings"

	openai "github.com/openai/openai-go/v3"

	"voxguide/internal/catalog"
)

const systemPrompt = `
You are VOXGUIDE-NLU, the command classifier of a voice assistant for blind and low-vision users.
Your ONLY job is to pick which numbered command the user's utterance asks for.

RULES:
1. Do NOT converse.
2. Do NOT answer the question.
3. Output ONLY JSON, no markdown: {"command": <number>}
4. Use -1 when no command fits or the meaning is unclear.
5. Never invent commands that are not in the list.

COMMANDS:
`

// Classifier asks a chat model to resolve utterances the pattern matcher
// rejected.
type Classifier struct {
	client openai.Client
	model  openai.ChatModel
	log    *log.Logger
}

type classification struct {
	Command int `json:"command"`
}

// NewClassifier builds a classifier over client. A nil logger means the
// slog default.
func NewClassifier(client openai.Client, model string, logger *log.Logger) *Classifier {
	if model == "" {
		model = string(openai.ChatModelGPT5Nano)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Classifier{client: client, model: openai.ChatModel(model), log: logger}
}

func (c *Classifier) Resolve(ctx context.Context, u string, defs []catalog.Definition) (Match, error) {
	if u == "" || len(defs) == 0 {
		return NoMatch, nil
	}

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(prompt(defs)),
			openai.UserMessage(u),
		},
		Model: c.model,
	})
	if err != nil {
		return NoMatch, fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return NoMatch, fmt.Errorf("no choices in response")
	}

	content := resp.Choices[0].Message.Content
	if content == "" {
		return NoMatch, fmt.Errorf("empty message content")
	}

	c.log.Debug("Classified", "utterance", u, "data", content)

	var out classification
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return NoMatch, fmt.Errorf("unmarshal classification: %w (raw: %s)", err, content)
	}

	if out.Command < 0 || out.Command >= len(defs) {
		return NoMatch, nil
	}

	return Match{Command: &defs[out.Command], Index: out.Command}, nil
}

func prompt(defs []catalog.Definition) string {
	var b strings.Builder
	b.WriteString(systemPrompt)
	for i, d := range defs {
		fmt.Fprintf(&b, "%d: %s (say: %s)\n", i, d.Description, strings.Join(d.Patterns, ", "))
	}
	return b.String()
}
