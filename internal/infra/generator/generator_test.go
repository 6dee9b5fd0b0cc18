package generator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"party-quiz-service/internal/domain"
)

func fakeModel(t *testing.T, status int, text string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/v1/models/gemini-1.5-flash:generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "secret" && r.URL.Query().Get("key") != "secret" {
			t.Errorf("missing api key")
		}
		var req struct {
			Contents []struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"contents"`
			GenerationConfig struct {
				ResponseMimeType string `json:"responseMimeType"`
			} `json:"generationConfig"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Contents) != 1 || len(req.Contents[0].Parts) == 0 || !strings.Contains(req.Contents[0].Parts[0].Text, `"Biology"`) {
			t.Errorf("unexpected prompt: %+v", req.Contents)
		}
		if req.GenerationConfig.ResponseMimeType != "application/json" {
			t.Errorf("expected json response mime type, got %q", req.GenerationConfig.ResponseMimeType)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"code":429,"message":"quota exceeded","status":"RESOURCE_EXHAUSTED"}}`))
			return
		}
		resp := map[string]any{
			"candidates": []any{map[string]any{
				"content": map[string]any{"parts": []any{map[string]any{"text": text}}},
			}},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestGenerateParsesModelOutput(t *testing.T) {
	text := "```json\n" + `[
		{"type":"multiple_choice","question":"What carries oxygen in blood?","options":["Hemoglobin","Insulin","Keratin"],"answer":"Hemoglobin"},
		{"type":"essay","question":"Explain photosynthesis.","options":["stray"],"answer":"Light to chemical energy"},
		{"type":"multiple_choice","question":"Broken","options":["only one"],"answer":"only one"}
	]` + "\n```"
	srv := fakeModel(t, http.StatusOK, text)
	defer srv.Close()

	c := New(srv.URL, "", "secret")
	c.now = func() time.Time { return time.UnixMilli(42) }
	questions, err := c.Generate(context.Background(), Request{Subject: "Biology", Formats: []Format{FormatBoth}, Count: 3}, "")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("expected 2 valid questions, got %d", len(questions))
	}
	if questions[0].ID != "ai-42-0" || questions[0].Kind != domain.KindChoice {
		t.Fatalf("unexpected first question: %+v", questions[0])
	}
	if questions[1].Kind != domain.KindEssay || len(questions[1].Options) != 0 {
		t.Fatalf("expected essay without options, got %+v", questions[1])
	}
}

func TestGenerateErrors(t *testing.T) {
	c := New("http://127.0.0.1:0", "", "")
	if _, err := c.Generate(context.Background(), Request{Subject: "Biology"}, ""); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
	if _, err := c.Generate(context.Background(), Request{Subject: " "}, "secret"); !errors.Is(err, ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest, got %v", err)
	}

	srv := fakeModel(t, http.StatusTooManyRequests, "")
	defer srv.Close()
	_, err := New(srv.URL, "", "secret").Generate(context.Background(), Request{Subject: "Biology"}, "")
	if err == nil || !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("expected upstream message, got %v", err)
	}

	bad := fakeModel(t, http.StatusOK, "not json")
	defer bad.Close()
	if _, err := New(bad.URL, "", "").Generate(context.Background(), Request{Subject: "Biology"}, "secret"); err == nil {
		t.Fatalf("expected malformed output to fail")
	}
}

func TestPromptDescribesFormats(t *testing.T) {
	p := Prompt(Request{Subject: "History", Formats: []Format{FormatChoice, FormatEssay}, Count: 5})
	if !strings.Contains(p, "Generate 5 questions") || !strings.Contains(p, "multiple_choice and essay") {
		t.Fatalf("unexpected prompt: %s", p)
	}
	if !strings.Contains(Prompt(Request{Subject: "x", Formats: []Format{FormatBoth}}), "a mix of multiple choice and essay") {
		t.Fatalf("expected mixed format description")
	}
}
