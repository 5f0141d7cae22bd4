package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/digestly/digestly/pkg/config"
	"github.com/digestly/digestly/pkg/domain"
)

// Writer drafts a newsletter from a curated selection using an
// OpenAI-compatible endpoint
type Writer struct {
	client    *openai.Client
	config    config.LLMConfig
	systemMsg string
}

// NewWriter creates a new LLM newsletter writer
func NewWriter(cfg config.LLMConfig) *Writer {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.Endpoint != "" {
		clientConfig.BaseURL = cfg.Endpoint
	}

	return &Writer{
		client:    openai.NewClientWithConfig(clientConfig),
		config:    cfg,
		systemMsg: systemPrompt,
	}
}

const systemPrompt = `You are an editor who writes engaging email newsletters from curated content.
Given a list of selected items ordered by editorial priority, produce a newsletter that:
- opens with a short 2-3 sentence introduction pulling together the day's themes
- covers every item in the given order with a bold headline linked to its URL, attribution (author and source), and a 2-4 sentence writeup grounded in the provided summary or content
- closes with a one-line sign-off
Use clean semantic HTML only: h1, h2, p, a, ul, li, em, strong. No inline styles, no scripts.
Never invent items, links or facts that are not in the input.

Respond with a JSON object: {"title": "newsletter title", "html": "full html body"}.`

// Draft asks the model to write a newsletter for the selected items. Items
// arrive already ordered by the selector; the order must survive into the
// draft. Retries up to 3 times when the model returns unparseable JSON.
func (w *Writer) Draft(ctx context.Context, items []domain.ContentItem) (*domain.Newsletter, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("no items to draft from")
	}

	prompt := buildPrompt(items)

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		req := openai.ChatCompletionRequest{
			Model:       w.config.Model,
			Temperature: float32(w.config.Temperature),
			MaxTokens:   w.config.MaxTokens,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: w.systemMsg},
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
		}

		if w.config.UseJSONMode {
			req.ResponseFormat = &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			}
		}

		resp, err := w.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("llm request failed: %w", err)
		}
		if len(resp.Choices) == 0 {
			return nil, fmt.Errorf("no response from llm")
		}

		draft, err := parseDraft(resp.Choices[0].Message.Content)
		if err == nil {
			draft.ItemCount = len(items)
			return draft, nil
		}
		lastErr = err
	}

	return nil, fmt.Errorf("failed after 3 attempts: %w", lastErr)
}

// buildPrompt serializes the selection for the model: title, source, author,
// metrics and summary per item, in selector order
func buildPrompt(items []domain.ContentItem) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Write a newsletter covering these %d items, in this order:\n\n", len(items)))

	for i, item := range items {
		sb.WriteString(fmt.Sprintf("%d. Title: %s\n", i+1, item.Title))
		sb.WriteString(fmt.Sprintf("   URL: %s\n", item.SourceURL))
		sb.WriteString(fmt.Sprintf("   Source: %s\n", item.Source))
		if item.Author != "" {
			sb.WriteString(fmt.Sprintf("   Author: %s\n", item.Author))
		}
		sb.WriteString(fmt.Sprintf("   Metrics: score=%d comments=%d views=%d\n", item.Score, item.CommentsCount, item.ViewsCount))
		if item.Summary != "" {
			sb.WriteString(fmt.Sprintf("   Summary: %s\n", item.Summary))
		}
		if item.Content != "" {
			// limit content to first 500 chars
			content := item.Content
			if len(content) > 500 {
				content = content[:500] + "..."
			}
			sb.WriteString(fmt.Sprintf("   Content: %s\n", content))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Respond with the JSON object described in the system prompt.")
	return sb.String()
}

// parseDraft pulls the JSON object out of the model response, tolerating
// leading commentary and markdown fences around it
func parseDraft(content string) (*domain.Newsletter, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end == -1 || start >= end {
		return nil, fmt.Errorf("no json object found in response")
	}

	var draft struct {
		Title string `json:"title"`
		HTML  string `json:"html"`
	}
	if err := json.Unmarshal([]byte(content[start:end+1]), &draft); err != nil {
		return nil, fmt.Errorf("failed to parse json response: %w", err)
	}
	if draft.Title == "" || draft.HTML == "" {
		return nil, fmt.Errorf("incomplete draft: title and html are required")
	}

	return &domain.Newsletter{Title: draft.Title, HTML: draft.HTML}, nil
}
