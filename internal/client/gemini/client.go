package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/glabspro/bee/internal/service/notes"
	"github.com/glabspro/bee/pkg/circuitbreaker"
)

const DefaultModel = "gemini-1.5-flash"

var ErrEmptyResponse = errors.New("gemini returned no text")

type Config struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

type generator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// Client is a notes.Analyzer backed by Gemini.
type Client struct {
	client  *genai.Client
	model   generator
	cb      *circuitbreaker.CircuitBreaker
	timeout time.Duration
}

var _ notes.Analyzer = (*Client)(nil)

func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, notes.ErrAnalyzerDisabled
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(cfg.Model)
	model.SetTemperature(0.2)

	c := newClient(model, cfg.Timeout)
	c.client = client
	return c, nil
}

func newClient(model generator, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		model: model,
		cb: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:        "gemini",
			MaxFailures: 3,
			Timeout:     time.Minute,
		}),
		timeout: timeout,
	}
}

func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

const summaryPrompt = `You are assisting a clinician. Summarize the following clinical note in at most three sentences.
Keep the language of the note. Return only the summary.

Note:
%s`

const suggestPrompt = `You are assisting a clinician. Read the following clinical note and reply with JSON only, shaped as
{"suggestions": ["..."], "recommendedCategory": "..."}
where suggestions are up to five short follow-up actions and recommendedCategory is one word naming the clinical area.
Keep the language of the note.

Note:
%s`

func (c *Client) Summarize(ctx context.Context, text string) (string, error) {
	return c.generate(ctx, fmt.Sprintf(summaryPrompt, text))
}

func (c *Client) Suggest(ctx context.Context, text string) (*notes.Suggestion, error) {
	raw, err := c.generate(ctx, fmt.Sprintf(suggestPrompt, text))
	if err != nil {
		return nil, err
	}
	return parseSuggestion(raw)
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var out string
	err := c.cb.Execute(func() error {
		resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			return fmt.Errorf("gemini generate error: %w", err)
		}
		out, err = responseText(resp)
		return err
	})
	return out, err
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrEmptyResponse
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", ErrEmptyResponse
	}
	return sb.String(), nil
}

func parseSuggestion(raw string) (*notes.Suggestion, error) {
	cleaned := strings.TrimSpace(raw)
	if strings.HasPrefix(cleaned, "```json") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimSuffix(cleaned, "```")
	} else if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSuffix(cleaned, "```")
	}
	cleaned = strings.TrimSpace(cleaned)

	var s notes.Suggestion
	if err := json.Unmarshal([]byte(cleaned), &s); err != nil {
		return nil, fmt.Errorf("failed to parse gemini suggestion: %w", err)
	}
	if s.Suggestions == nil {
		s.Suggestions = []string{}
	}
	return &s, nil
}
