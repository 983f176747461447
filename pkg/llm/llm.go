// Package llm wraps the OpenAI API behind small chat, embedding and
// extraction calls. All outbound traffic shares one rate limiter and
// one circuit breaker so a misbehaving provider degrades every caller
// the same way.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/StafflyAI/staffly-mvp/pkg/resilience"
)

// Message is one conversation turn sent to the chat model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Config holds provider settings.
type Config struct {
	APIKey     string
	BaseURL    string // empty for the default endpoint
	ChatModel  string
	EmbedModel string
	// RatePerSec caps outbound requests per second; 0 disables limiting.
	RatePerSec float64
}

// DefaultConfig returns provider settings matching the hosted models
// the service is tuned for.
func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:     apiKey,
		ChatModel:  openai.GPT4oMini,
		EmbedModel: string(openai.SmallEmbedding3),
		RatePerSec: 5,
	}
}

// Client calls the provider.
type Client struct {
	api     *openai.Client
	cfg     Config
	breaker *resilience.Breaker
	limiter *rate.Limiter
}

// New creates a Client from cfg.
func New(cfg Config) *Client {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	var limiter *rate.Limiter
	if cfg.RatePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), int(cfg.RatePerSec)+1)
	}
	return &Client{
		api: openai.NewClientWithConfig(oc),
		cfg: cfg,
		breaker: resilience.NewBreaker(resilience.BreakerOpts{
			FailThreshold: 5,
			Timeout:       30 * time.Second,
		}),
		limiter: limiter,
	}
}

func (c *Client) acquire(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("llm: rate limit wait: %w", err)
	}
	return nil
}

// Complete sends the system prompt plus transcript and returns the
// assistant response text.
func (c *Client) Complete(ctx context.Context, system string, transcript []Message) (string, error) {
	if err := c.acquire(ctx); err != nil {
		return "", err
	}

	msgs := make([]openai.ChatCompletionMessage, 0, len(transcript)+1)
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: system,
	})
	for _, m := range transcript {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	var content string
	err := c.breaker.Call(ctx, func(ctx context.Context) error {
		resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:    c.cfg.ChatModel,
			Messages: msgs,
		})
		if err != nil {
			return fmt.Errorf("llm: chat completion: %w", err)
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("llm: chat completion: no choices")
		}
		content = resp.Choices[0].Message.Content
		return nil
	})
	return content, err
}

// Embed returns the embedding vector for text.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := c.acquire(ctx); err != nil {
		return nil, err
	}

	var vec []float32
	err := c.breaker.Call(ctx, func(ctx context.Context) error {
		resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: []string{text},
			Model: openai.EmbeddingModel(c.cfg.EmbedModel),
		})
		if err != nil {
			return fmt.Errorf("llm: embed: %w", err)
		}
		if len(resp.Data) == 0 {
			return fmt.Errorf("llm: embed: empty response")
		}
		vec = resp.Data[0].Embedding
		return nil
	})
	return vec, err
}

const extractSystemPrompt = `You extract structured consultant data from resume text.
Respond with a single JSON object with these keys:
  "name": full name, or empty string if not found
  "email": email address, or empty string
  "phone": phone number, or empty string
  "skills": array of skill names
  "experience": short free-text summary of work experience
  "education": short free-text summary of education
Respond with JSON only.`

// ExtractedProfile is the structured result of resume extraction.
// Skills tolerates both a JSON array and a comma-separated string,
// since models emit both.
type ExtractedProfile struct {
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Phone      string     `json:"phone"`
	Skills     stringList `json:"skills"`
	Experience string     `json:"experience"`
	Education  string     `json:"education"`
}

// ExtractProfile runs JSON-mode extraction over plain resume text.
func (c *Client) ExtractProfile(ctx context.Context, resumeText string) (ExtractedProfile, error) {
	if err := c.acquire(ctx); err != nil {
		return ExtractedProfile{}, err
	}

	var profile ExtractedProfile
	err := c.breaker.Call(ctx, func(ctx context.Context) error {
		resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: c.cfg.ChatModel,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: extractSystemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: resumeText},
			},
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
		})
		if err != nil {
			return fmt.Errorf("llm: extract: %w", err)
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("llm: extract: no choices")
		}
		return parseExtracted(resp.Choices[0].Message.Content, &profile)
	})
	return profile, err
}

func parseExtracted(content string, out *ExtractedProfile) error {
	content = strings.TrimSpace(content)
	// Some models fence the JSON despite JSON mode.
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), out); err != nil {
		return fmt.Errorf("llm: extract: decode: %w", err)
	}
	return nil
}
