// Package gemini scores interviews and transcribes answers with the Gemini API.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/rbright/intervu/internal/interview"
	"github.com/rbright/intervu/internal/transcript"
)

const (
	BackendGeminiAPI = "gemini_api"
	BackendVertexAI  = "vertex_ai"

	DefaultModel = "gemini-2.5-flash"

	maxAttempts = 3
)

// Config selects the backend. APIKey is used by the Gemini API backend, Project/Location by Vertex AI.
type Config struct {
	Backend  string
	Model    string
	APIKey   string
	Project  string
	Location string
}

type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Client struct {
	gen     generator
	model   string
	backoff time.Duration
}

func New(ctx context.Context, cfg Config) (*Client, error) {
	cc := &genai.ClientConfig{}
	switch cfg.Backend {
	case "", BackendGeminiAPI:
		if strings.TrimSpace(cfg.APIKey) == "" {
			return nil, errors.New("gemini api key is empty")
		}
		cc.Backend = genai.BackendGeminiAPI
		cc.APIKey = cfg.APIKey
	case BackendVertexAI:
		if strings.TrimSpace(cfg.Project) == "" {
			return nil, errors.New("vertex ai project is empty")
		}
		cc.Backend = genai.BackendVertexAI
		cc.Project = cfg.Project
		cc.Location = cfg.Location
	default:
		return nil, fmt.Errorf("unknown gemini backend %q", cfg.Backend)
	}

	cl, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &Client{gen: cl.Models, model: model, backoff: 300 * time.Millisecond}, nil
}

// Score asks the model for a structured analysis of t and validates it.
func (g *Client) Score(ctx context.Context, t interview.Transcript) (interview.Analysis, error) {
	temp := float32(0.3)
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemInstruction}}},
		ResponseMIMEType:  "application/json",
		ResponseSchema:    analysisSchema(),
		Temperature:       &temp,
		MaxOutputTokens:   4000,
	}
	contents := []*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: buildPrompt(t)}}}}

	raw, err := g.generate(ctx, contents, cfg)
	if err != nil {
		return interview.Analysis{}, err
	}

	var a interview.Analysis
	if err := json.Unmarshal([]byte(cleanJSON(raw)), &a); err != nil {
		return interview.Analysis{}, fmt.Errorf("decode analysis: %w", err)
	}
	if err := a.Validate(); err != nil {
		return interview.Analysis{}, fmt.Errorf("invalid analysis: %w", err)
	}
	return a, nil
}

// Transcribe returns a plain-text transcript of a WAV answer.
func (g *Client) Transcribe(ctx context.Context, wav []byte) (string, error) {
	if len(wav) == 0 {
		return "", errors.New("no audio")
	}
	temp := float32(0)
	cfg := &genai.GenerateContentConfig{Temperature: &temp}
	contents := []*genai.Content{{
		Role: "user",
		Parts: []*genai.Part{
			{Text: transcribeInstruction},
			{InlineData: &genai.Blob{Data: wav, MIMEType: "audio/wav"}},
		},
	}}

	text, err := g.generate(ctx, contents, cfg)
	if err != nil {
		return "", err
	}
	return transcript.Normalize(text, transcript.Options{CapitalizeSentences: true}), nil
}

func (g *Client) generate(ctx context.Context, contents []*genai.Content, cfg *genai.GenerateContentConfig) (string, error) {
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(i) * g.backoff):
			}
		}

		resp, err := g.gen.GenerateContent(ctx, g.model, contents, cfg)
		if err != nil {
			lastErr = err
			if retriable(err) {
				continue
			}
			return "", fmt.Errorf("generate content: %w", err)
		}
		if text := responseText(resp); text != "" {
			return text, nil
		}
		lastErr = errors.New("empty response")
	}
	return "", fmt.Errorf("generate content: %w", lastErr)
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, p := range cand.Content.Parts {
			if p == nil {
				continue
			}
			if p.Text != "" {
				sb.WriteString(p.Text)
			} else if p.InlineData != nil && p.InlineData.MIMEType == "application/json" {
				sb.Write(p.InlineData.Data)
			}
		}
		if sb.Len() > 0 {
			break
		}
	}
	return sb.String()
}

func cleanJSON(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

func retriable(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "unexpected EOF") ||
		strings.Contains(s, "timeout") ||
		strings.Contains(s, "RST_STREAM") ||
		strings.Contains(s, "connection reset") ||
		strings.Contains(s, "503")
}
