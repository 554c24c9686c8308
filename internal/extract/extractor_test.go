package extract

import (
	"context"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/mkhoa/meeting-assistant/internal/logging"
	"github.com/mkhoa/meeting-assistant/internal/model"
)

func TestParseActionItems(t *testing.T) {
	raw := `[{"name":"Bob","task":"finish the report","due":"Friday"},{"name":"Ann","task":"review the PR","due":""}]`

	items, err := ParseActionItems(raw)
	if err != nil {
		t.Fatalf("parsing: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].Name != "Bob" || items[0].Task != "finish the report" || items[0].Due != "Friday" {
		t.Errorf("unexpected first item: %+v", items[0])
	}
}

func TestParseActionItemsFenced(t *testing.T) {
	raw := "```json\n[{\"name\":\"Bob\",\"task\":\"ship it\",\"due\":\"\"}]\n```"

	items, err := ParseActionItems(raw)
	if err != nil {
		t.Fatalf("parsing fenced output: %v", err)
	}
	if len(items) != 1 || items[0].Task != "ship it" {
		t.Fatalf("unexpected items: %+v", items)
	}
}

func TestParseActionItemsDropsEmptyTasks(t *testing.T) {
	raw := `[{"name":"Bob","task":"  ","due":""},{"name":"Ann","task":"review","due":""}]`

	items, err := ParseActionItems(raw)
	if err != nil {
		t.Fatalf("parsing: %v", err)
	}
	if len(items) != 1 || items[0].Name != "Ann" {
		t.Fatalf("unexpected items: %+v", items)
	}
}

func TestParseActionItemsEmptyArray(t *testing.T) {
	items, err := ParseActionItems("[]")
	if err != nil {
		t.Fatalf("parsing empty array: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected no items, got %+v", items)
	}
}

func TestParseActionItemsInvalid(t *testing.T) {
	if _, err := ParseActionItems("I could not find any action items."); err == nil {
		t.Fatal("expected error for prose output")
	}
}

func TestNewWithoutKeyIsDisabled(t *testing.T) {
	if e := New(model.AIConfig{}, logging.NewNop()); e != nil {
		t.Fatal("expected nil extractor without an API key")
	}
}

type chatStub struct {
	content string
	request openai.ChatCompletionRequest
}

func (c *chatStub) CreateChatCompletion(
	_ context.Context,
	req openai.ChatCompletionRequest,
) (openai.ChatCompletionResponse, error) {
	c.request = req
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: c.content}},
		},
	}, nil
}

func TestExtractActionItems(t *testing.T) {
	stub := &chatStub{content: `[{"name":"Bob","task":"finish the report","due":"Friday"}]`}
	e := &Extractor{
		client:    stub,
		model:     defaultModel,
		maxTokens: defaultMaxTokens,
		logger:    logging.NewNop(),
	}

	employees := []model.Employee{{Name: "Bob Jones"}, {Name: "Ann Lee"}}
	items, err := e.ExtractActionItems(context.Background(), "Bob will finish the report by Friday.", employees)
	if err != nil {
		t.Fatalf("extracting: %v", err)
	}
	if len(items) != 1 || items[0].Name != "Bob" {
		t.Fatalf("unexpected items: %+v", items)
	}

	if stub.request.Model != defaultModel {
		t.Errorf("unexpected model: %q", stub.request.Model)
	}
	if len(stub.request.Messages) != 2 {
		t.Fatalf("expected system and user messages, got %d", len(stub.request.Messages))
	}
}
