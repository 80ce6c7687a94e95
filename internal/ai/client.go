// Package ai wraps the external LLM collaborator (Groq's OpenAI-compatible
// API). It phrases guided-flow questions, scores submitted reports, and
// rewrites NGO updates for public display. Every call has a bounded timeout
// and fails explicitly; callers decide the fallback.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/beaconai/beacon-server/internal/beacon"
	"github.com/beaconai/beacon-server/internal/models"
	openai "github.com/sashabaranov/go-openai"
)

// Collaborator is the AI surface consumed by the services.
type Collaborator interface {
	// NextPrompt phrases the question for step given the conversation so
	// far. Services fall back to the step's canned prompt on error.
	NextPrompt(ctx context.Context, step beacon.Step, history []models.Message) (string, error)
	// ScoreReport assesses the credibility of a finished transcript.
	ScoreReport(ctx context.Context, transcript string) (Assessment, error)
	// RewriteUpdate produces a PII-safe, neutral-tone paraphrase of an
	// internal NGO note. There is no fallback: if this fails, the update
	// is not published.
	RewriteUpdate(ctx context.Context, raw string) (string, error)
}

// Assessment is the credibility scoring result.
type Assessment struct {
	Score       int      `json:"score"`
	Explanation string   `json:"explanation"`
	Categories  []string `json:"categories"`
}

const (
	chatSystem = "You are Beacon AI, a warm and supportive assistant helping citizens report " +
		"corruption safely and anonymously. Acknowledge what the reporter just shared in one " +
		"short sentence, then ask exactly the question you are given. Keep replies to two " +
		"sentences. Never ask for names, phone numbers, or email addresses of the reporter."

	scoreSystem = "You assess corruption report transcripts for an NGO. Reply with a single JSON " +
		"object: {\"score\": 0-100, \"explanation\": \"two sentences\", \"categories\": [\"...\"]}. " +
		"Score reflects internal consistency, specificity, and plausibility. No other text."

	rewriteSystem = "You rewrite internal NGO case notes for public display to an anonymous " +
		"reporter. Remove every name, contact detail, and internal reference. Use a neutral, " +
		"factual tone. Reply with the rewritten text only."
)

// Client talks to a Groq (or any OpenAI-compatible) endpoint.
type Client struct {
	api     *openai.Client
	model   string
	timeout time.Duration
}

// NewClient builds a client. baseURL selects the provider, e.g.
// https://api.groq.com/openai/v1.
func NewClient(apiKey, baseURL, model string, timeout time.Duration) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Client{
		api:     openai.NewClientWithConfig(cfg),
		model:   model,
		timeout: timeout,
	}
}

func (c *Client) complete(ctx context.Context, system string, msgs []openai.ChatCompletionMessage, maxTokens int) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model:     c.model,
		MaxTokens: maxTokens,
		Messages: append([]openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
		}, msgs...),
	}
	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("chat completion: empty response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// NextPrompt implements Collaborator.
func (c *Client) NextPrompt(ctx context.Context, step beacon.Step, history []models.Message) (string, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	for _, m := range history {
		role := openai.ChatMessageRoleAssistant
		if m.Sender == models.SenderReporter {
			role = openai.ChatMessageRoleUser
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: "Next question to ask: " + step.Prompt(),
	})
	return c.complete(ctx, chatSystem, msgs, 256)
}

// ScoreReport implements Collaborator.
func (c *Client) ScoreReport(ctx context.Context, transcript string) (Assessment, error) {
	out, err := c.complete(ctx, scoreSystem, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: transcript},
	}, 512)
	if err != nil {
		return Assessment{}, err
	}

	var a Assessment
	if err := json.Unmarshal([]byte(stripFences(out)), &a); err != nil {
		return Assessment{}, fmt.Errorf("parse assessment: %w", err)
	}
	if a.Score < 0 {
		a.Score = 0
	}
	if a.Score > 100 {
		a.Score = 100
	}
	return a, nil
}

// RewriteUpdate implements Collaborator.
func (c *Client) RewriteUpdate(ctx context.Context, raw string) (string, error) {
	return c.complete(ctx, rewriteSystem, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: raw},
	}, 512)
}

// stripFences removes a markdown code fence if the model wrapped its JSON.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
