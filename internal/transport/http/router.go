package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"party-quiz-service/internal/app"
	"party-quiz-service/internal/domain"
	"party-quiz-service/internal/infra/generator"
	"party-quiz-service/internal/infra/sheet"
)

const logDate = `2006-01-02T15:04:05.000-07:00`

// Options tune the HTTP surface.
type Options struct {
	// BaseURL replaces the request host in QR codes when set.
	BaseURL string
	Verbose bool
}

// NewRouter registers every route of the service.
func NewRouter(service *app.GameService, gen QuestionGenerator, opts Options) *httprouter.Router {
	api := NewAPIHandler(service, gen, opts)
	ws := NewWSHandler(service, opts)

	mux := httprouter.New()
	mux.PanicHandler = func(w http.ResponseWriter, r *http.Request, v any) {
		log.Printf("panic serving %s %s: %v", r.Method, r.URL.Path, v)
		writeError(w, http.StatusInternalServerError, "internal error")
	}

	mux.GET("/healthz", api.Health)
	mux.POST("/games", api.CreateGame)
	mux.GET("/games/:gameID", api.GetGame)
	mux.DELETE("/games/:gameID", api.ExitGame)
	mux.GET("/games/:gameID/ws", ws.ServeWS)
	mux.GET("/games/:gameID/export", api.ExportResults)
	mux.GET("/games/:gameID/qr", api.QRCode)
	mux.GET("/questions/template", api.Template)
	mux.POST("/questions/import", api.ImportQuestions)
	mux.POST("/questions/generate", api.GenerateQuestions)
	mux.DELETE("/questions/current", api.ClearQuestions)
	return mux
}

func logf(verbose bool, format string, args ...any) {
	if !verbose {
		return
	}
	log.Printf("%s | "+format, append([]any{time.Now().Format(logDate)}, args...)...)
}

func securityHeaders(w http.ResponseWriter) {
	w.Header().Set("Cross-Origin-Resource-Policy", "same-site")
	w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Content-Security-Policy", "default-src 'self'")
}

type errorPayload struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	securityHeaders(w)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response failed: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorPayload{Message: msg})
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrGameNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrWrongPhase),
		errors.Is(err, domain.ErrGameFailed),
		errors.Is(err, domain.ErrPaused),
		errors.Is(err, domain.ErrAlreadyAnswered),
		errors.Is(err, domain.ErrPlayerFinished),
		errors.Is(err, domain.ErrRosterFull):
		return http.StatusConflict
	case errors.Is(err, domain.ErrPlayerNotFound),
		errors.Is(err, domain.ErrOptionNotFound),
		errors.Is(err, domain.ErrUnknownKey),
		errors.Is(err, domain.ErrInvalidOrder),
		errors.Is(err, domain.ErrInvalidQuestion),
		errors.Is(err, generator.ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrEmptyQuestionSet),
		errors.Is(err, sheet.ErrEmptySheet):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrNoQuestionSet):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
