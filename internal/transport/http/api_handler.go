package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
	"party-quiz-service/internal/app"
	"party-quiz-service/internal/domain"
	"party-quiz-service/internal/infra/generator"
	"party-quiz-service/internal/infra/sheet"
)

const (
	maxUploadSize = 10 << 20
	qrSize        = 320
)

// QuestionGenerator produces a fresh question set on demand.
type QuestionGenerator interface {
	Generate(ctx context.Context, req generator.Request, apiKey string) ([]domain.Question, error)
}

// APIHandler serves the REST surface.
type APIHandler struct {
	service   *app.GameService
	generator QuestionGenerator
	opts      Options
	now       func() time.Time
}

func NewAPIHandler(service *app.GameService, gen QuestionGenerator, opts Options) *APIHandler {
	return &APIHandler{service: service, generator: gen, opts: opts, now: time.Now}
}

func (h *APIHandler) Health(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	securityHeaders(w)
	_, _ = w.Write([]byte("ok"))
}

// CreateGame starts a game. A game whose questions failed to load is still
// created and reported in the error phase.
func (h *APIHandler) CreateGame(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	state, err := h.service.CreateGame(r.Context())
	if err != nil && !errors.Is(err, domain.ErrGameFailed) {
		writeError(w, statusFor(err), err.Error())
		return
	}
	if err != nil {
		log.Printf("game %s failed to load questions: %v", state.GameID, err)
	}
	logf(h.opts.Verbose, "CREATE: game %s (%s) for %s", state.GameID, state.Phase, r.RemoteAddr)
	writeJSON(w, http.StatusCreated, state)
}

func (h *APIHandler) GetGame(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
	state, err := h.service.State(ps.ByName("gameID"))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (h *APIHandler) ExitGame(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	gameID := ps.ByName("gameID")
	if err := h.service.Exit(r.Context(), gameID); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	logf(h.opts.Verbose, "EXIT: game %s", gameID)
	w.WriteHeader(http.StatusNoContent)
}

// ExportResults downloads the leaderboard and answer history workbook.
func (h *APIHandler) ExportResults(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
	leaderboard, history, err := h.service.Results(ps.ByName("gameID"))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	var buf bytes.Buffer
	if err := sheet.WriteResults(&buf, leaderboard, history); err != nil {
		log.Printf("export results failed: %v", err)
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}
	writeWorkbook(w, sheet.ResultsFilename(h.now()), buf.Bytes())
}

// QRCode renders a PNG pointing at the game URL.
func (h *APIHandler) QRCode(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	gameID := ps.ByName("gameID")
	if _, err := h.service.Game(gameID); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	base := strings.TrimSuffix(h.opts.BaseURL, "/")
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}
		base = scheme + "://" + r.Host
	}
	url := base + "/games/" + gameID

	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "qr generation failed")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	securityHeaders(w)
	_, _ = w.Write(png)
}

func (h *APIHandler) Template(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	var buf bytes.Buffer
	if err := sheet.WriteTemplate(&buf); err != nil {
		log.Printf("template failed: %v", err)
		writeError(w, http.StatusInternalServerError, "template failed")
		return
	}
	writeWorkbook(w, sheet.TemplateFilename, buf.Bytes())
}

type importResult struct {
	Count int `json:"count"`
}

// ImportQuestions replaces the current question set with the rows of an
// uploaded workbook. A rejected file leaves the current set untouched.
func (h *APIHandler) ImportQuestions(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file upload")
		return
	}
	defer file.Close()

	questions, err := sheet.ParseQuestions(file)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			status = http.StatusBadRequest
		}
		writeError(w, status, err.Error())
		return
	}
	if err := h.service.ReplaceQuestions(r.Context(), questions); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	logf(h.opts.Verbose, "IMPORT: %d questions", len(questions))
	writeJSON(w, http.StatusOK, importResult{Count: len(questions)})
}

type generatePayload struct {
	generator.Request
	APIKey string `json:"apiKey"`
}

// GenerateQuestions asks the generator for a new set and makes it current.
func (h *APIHandler) GenerateQuestions(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var payload generatePayload
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid generate payload")
		return
	}
	questions, err := h.generator.Generate(r.Context(), payload.Request, payload.APIKey)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, generator.ErrBadRequest) {
			status = http.StatusBadRequest
		}
		log.Printf("generate questions failed: %v", err)
		writeError(w, status, err.Error())
		return
	}
	if err := h.service.ReplaceQuestions(r.Context(), questions); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	logf(h.opts.Verbose, "GENERATE: %d questions about %q", len(questions), payload.Subject)
	writeJSON(w, http.StatusOK, importResult{Count: len(questions)})
}

// ClearQuestions resets to the default question sources.
func (h *APIHandler) ClearQuestions(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := h.service.ClearQuestions(r.Context()); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeWorkbook(w http.ResponseWriter, filename string, data []byte) {
	w.Header().Set("Content-Type", sheet.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	securityHeaders(w)
	_, _ = w.Write(data)
}
