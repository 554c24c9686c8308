// Package extract turns meeting transcripts into structured action items
// using a chat-completion model.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/mkhoa/meeting-assistant/internal/logging"
	"github.com/mkhoa/meeting-assistant/internal/model"
)

const (
	defaultModel     = "gpt-4o-mini"
	defaultMaxTokens = 2048
)

// ActionItem is one extracted task before it is persisted.
type ActionItem struct {
	Name string `json:"name"`
	Task string `json:"task"`
	Due  string `json:"due"`
}

// chatClient is the slice of the OpenAI client the extractor uses.
type chatClient interface {
	CreateChatCompletion(
		ctx context.Context,
		req openai.ChatCompletionRequest,
	) (openai.ChatCompletionResponse, error)
}

// Extractor extracts action items from transcripts.
type Extractor struct {
	client    chatClient
	model     string
	maxTokens int
	logger    *slog.Logger
}

// New creates an extractor from the AI configuration. Returns nil when
// no API key is configured; callers treat a nil extractor as the
// feature being disabled.
func New(cfg model.AIConfig, logger *slog.Logger) *Extractor {
	if cfg.APIKey == "" {
		return nil
	}

	modelName := cfg.Model
	if modelName == "" {
		modelName = defaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	return &Extractor{
		client:    openai.NewClient(cfg.APIKey),
		model:     modelName,
		maxTokens: maxTokens,
		logger:    logging.WithComponent(logger, "extract"),
	}
}

const systemPrompt = `You extract action items from meeting transcripts.
Return ONLY a JSON array, no prose. Each element has exactly these keys:
  "name": the person responsible, as named in the transcript
  "task": a one-sentence description of what they agreed to do
  "due":  the due date if one was mentioned, otherwise ""
If the transcript contains no action items, return [].`

// ExtractActionItems asks the model for the action items in a
// transcript. Employee names are passed along so the model resolves
// nicknames and partial names to them.
func (e *Extractor) ExtractActionItems(
	ctx context.Context,
	transcript string,
	employees []model.Employee,
) ([]ActionItem, error) {
	names := make([]string, 0, len(employees))
	for _, emp := range employees {
		names = append(names, emp.Name)
	}

	userPrompt := fmt.Sprintf(
		"Known team members: %s\n\nTranscript:\n%s",
		strings.Join(names, ", "), transcript,
	)

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     e.model,
		MaxTokens: e.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("requesting action item extraction: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("extraction response had no choices")
	}

	items, err := ParseActionItems(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	e.logger.Info("extracted action items",
		logging.Int("count", len(items)),
		logging.String("model", e.model))
	return items, nil
}

// ParseActionItems decodes the model's JSON array output. Markdown code
// fences around the array are tolerated since models add them despite
// instructions.
func ParseActionItems(raw string) ([]ActionItem, error) {
	cleaned := stripCodeFence(raw)

	var items []ActionItem
	if err := json.Unmarshal([]byte(cleaned), &items); err != nil {
		return nil, fmt.Errorf("parsing action items: %w", err)
	}

	kept := items[:0]
	for _, item := range items {
		if strings.TrimSpace(item.Task) == "" {
			continue
		}
		kept = append(kept, item)
	}
	return kept, nil
}

// stripCodeFence removes a surrounding ```json ... ``` fence if present.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 {
		s = s[idx+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
