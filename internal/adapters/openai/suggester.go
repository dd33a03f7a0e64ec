// Package openai implements ports.SuggestionProvider over the OpenAI
// chat-completion API.
package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/pagelift/pagelift/internal/domain"
	"github.com/pagelift/pagelift/internal/ports"
)

const systemPrompt = `You are a conversion copywriter for marketing funnel pages.
Respond with a JSON array of exactly 3 objects, each with the keys
"label", "value" and "rationale". The rationale must be one sentence.
Respond with JSON only, no prose.`

// Suggester asks a chat model for alternative copy.
type Suggester struct {
	client *openai.Client
	model  string
}

func NewSuggester(apiKey, model string) *Suggester {
	return &Suggester{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

// Suggest requests exactly three alternatives for the tested field.
func (s *Suggester) Suggest(ctx context.Context, req ports.SuggestionRequest) ([]domain.Suggestion, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildUserPrompt(req)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}

	return parseSuggestions(resp.Choices[0].Message.Content)
}

func buildUserPrompt(req ports.SuggestionRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Page: %s\n", req.PageName)
	fmt.Fprintf(&b, "Field under test: %s\n", req.Field)
	if req.CurrentValue != nil {
		fmt.Fprintf(&b, "Current value: %s\n", *req.CurrentValue)
	} else {
		b.WriteString("Current value: (empty)\n")
	}
	if req.Context != "" {
		fmt.Fprintf(&b, "Additional context: %s\n", req.Context)
	}
	b.WriteString("Propose 3 alternative values for this field.")
	return b.String()
}

func parseSuggestions(content string) ([]domain.Suggestion, error) {
	// Models occasionally wrap the JSON in a markdown fence.
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var raw []struct {
		Label     string `json:"label"`
		Value     string `json:"value"`
		Rationale string `json:"rationale"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &raw); err != nil {
		return nil, fmt.Errorf("parse suggestions: %w", err)
	}

	suggestions := make([]domain.Suggestion, 0, len(raw))
	for i, r := range raw {
		label := r.Label
		if label == "" {
			label = fmt.Sprintf("Variant %c", 'B'+i)
		}
		suggestions = append(suggestions, domain.Suggestion{
			Label:     label,
			Value:     r.Value,
			Rationale: r.Rationale,
		})
	}
	return suggestions, nil
}
