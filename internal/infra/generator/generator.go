// Package generator asks a Gemini model for a fresh question set.
package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"
	"party-quiz-service/internal/domain"
)

const (
	DefaultModel = "gemini-1.5-flash"
	DefaultCount = 10
	MaxCount     = 50
)

var (
	ErrMissingAPIKey = errors.New("generator: api key is required")
	ErrNoContent     = errors.New("generator: no response content")
	ErrBadRequest    = errors.New("generator: invalid request")
)

// Format selects which question kinds are generated.
type Format string

const (
	FormatChoice Format = "multiple_choice"
	FormatEssay  Format = "essay"
	FormatBoth   Format = "both"
)

// Request describes what to generate.
type Request struct {
	Subject string   `json:"subject"`
	Formats []Format `json:"formats"`
	Count   int      `json:"count"`
}

// Client asks a Gemini model through the genai SDK. endpoint overrides
// the SDK base URL when set.
type Client struct {
	endpoint string
	model    string
	apiKey   string
	http     *http.Client
	now      func() time.Time
}

func New(endpoint, model, apiKey string) *Client {
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		model:    model,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: 60 * time.Second},
		now:      time.Now,
	}
}

// Generate returns the validated questions of one model response. apiKey
// overrides the configured key when set.
func (c *Client) Generate(ctx context.Context, req Request, apiKey string) ([]domain.Question, error) {
	if apiKey == "" {
		apiKey = c.apiKey
	}
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	req.Subject = strings.TrimSpace(req.Subject)
	if req.Subject == "" {
		return nil, fmt.Errorf("%w: subject is required", ErrBadRequest)
	}
	if req.Count <= 0 {
		req.Count = DefaultCount
	}
	if req.Count > MaxCount {
		return nil, fmt.Errorf("%w: at most %d questions", ErrBadRequest, MaxCount)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: c.http,
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    c.endpoint,
			APIVersion: "v1",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create generator client: %w", err)
	}

	resp, err := client.Models.GenerateContent(ctx, c.model, genai.Text(Prompt(req)), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("generate questions: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, ErrNoContent
	}
	text := strings.TrimSpace(resp.Candidates[0].Content.Parts[0].Text)
	if text == "" {
		return nil, ErrNoContent
	}
	return c.parse(text)
}

func (c *Client) parse(text string) ([]domain.Question, error) {
	text = stripFence(text)
	var records []domain.QuestionRecord
	if err := json.Unmarshal([]byte(text), &records); err != nil {
		return nil, fmt.Errorf("decode generated questions: %w", err)
	}
	stamp := c.now().UnixMilli()
	for i := range records {
		id, _ := json.Marshal(fmt.Sprintf("ai-%d-%d", stamp, i))
		records[i].ID = id
		if domain.QuestionKind(records[i].Type) != domain.KindChoice {
			records[i].Options = nil
		}
	}
	questions, _ := domain.ParseQuestions(records)
	if len(questions) == 0 {
		return nil, domain.ErrEmptyQuestionSet
	}
	return questions, nil
}

// stripFence removes a markdown code fence some models wrap JSON in.
func stripFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		text = text[nl+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text), "```"))
}
