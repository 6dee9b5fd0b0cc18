package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"party-quiz-service/internal/app"
	"party-quiz-service/internal/domain"
	"party-quiz-service/internal/infra/bundle"
	"party-quiz-service/internal/infra/generator"
	"party-quiz-service/internal/infra/memory"
	"party-quiz-service/internal/infra/sheet"
)

type fakeGenerator struct {
	questions []domain.Question
	err       error
	got       generator.Request
}

func (g *fakeGenerator) Generate(_ context.Context, req generator.Request, _ string) ([]domain.Question, error) {
	g.got = req
	return g.questions, g.err
}

type testEnv struct {
	server  *httptest.Server
	service *app.GameService
	gen     *fakeGenerator
}

func newTestEnv(t *testing.T, sources ...app.QuestionSource) *testEnv {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	store := memory.NewQuestionSetStore()
	if sources == nil {
		sources = []app.QuestionSource{app.NewSessionSource(store), bundle.NewSource()}
	}
	settings := app.DefaultSettings()
	settings.RevealDelay = time.Minute
	settings.Assignment = app.AssignShared
	service := app.NewGameService(ctx, memory.NewGameStore(), app.NewResolver(sources...), store, settings)

	gen := &fakeGenerator{}
	server := httptest.NewServer(NewRouter(service, gen, Options{}))
	t.Cleanup(server.Close)
	return &testEnv{server: server, service: service, gen: gen}
}

func (e *testEnv) createGame(t *testing.T) domain.GameState {
	t.Helper()
	resp, err := http.Post(e.server.URL+"/games", "application/json", nil)
	if err != nil {
		t.Fatalf("create game: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var state domain.GameState
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	return state
}

func singleQuestion(t *testing.T) []domain.Question {
	t.Helper()
	q, err := domain.NewChoiceQuestion("q1", "What is 2 + 2?", []string{"3", "4", "5"}, "4", 0)
	if err != nil {
		t.Fatalf("question: %v", err)
	}
	return []domain.Question{q}
}

func TestGameLifecycleOverREST(t *testing.T) {
	env := newTestEnv(t)
	state := env.createGame(t)
	if state.Phase != domain.PhaseRegistration || len(state.Players) != 2 || state.Source != "bundle" {
		t.Fatalf("unexpected new game: %+v", state)
	}

	resp, err := http.Get(env.server.URL + "/games/" + state.GameID)
	if err != nil {
		t.Fatalf("get game: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	resp, err = http.Get(env.server.URL + "/games/" + state.GameID + "/qr")
	if err != nil {
		t.Fatalf("qr: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "image/png" {
		t.Fatalf("unexpected qr response: %d %s", resp.StatusCode, resp.Header.Get("Content-Type"))
	}

	resp, err = http.Get(env.server.URL + "/games/" + state.GameID + "/export")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	resp.Body.Close()
	if !strings.HasPrefix(resp.Header.Get("Content-Disposition"), `attachment; filename="quiz_results_`) {
		t.Fatalf("unexpected disposition %q", resp.Header.Get("Content-Disposition"))
	}

	req, _ := http.NewRequest(http.MethodDelete, env.server.URL+"/games/"+state.GameID, nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}

	resp, err = http.Get(env.server.URL + "/games/" + state.GameID)
	if err != nil {
		t.Fatalf("get game: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 after exit, got %d", resp.StatusCode)
	}
}

func TestCreateGameWithoutQuestionsReportsError(t *testing.T) {
	env := newTestEnv(t, app.NewSessionSource(memory.NewQuestionSetStore()))
	state := env.createGame(t)
	if state.Phase != domain.PhaseError || state.Error == "" {
		t.Fatalf("expected error phase, got %+v", state)
	}
}

func upload(t *testing.T, url string, data []byte) *http.Response {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "questions.xlsx")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	_, _ = fw.Write(data)
	_ = mw.Close()
	resp, err := http.Post(url, mw.FormDataContentType(), &body)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	return resp
}

func TestImportTemplateBecomesCurrentSet(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.server.URL + "/questions/template")
	if err != nil {
		t.Fatalf("template: %v", err)
	}
	var tpl bytes.Buffer
	_, _ = tpl.ReadFrom(resp.Body)
	resp.Body.Close()
	if resp.Header.Get("Content-Type") != sheet.ContentType {
		t.Fatalf("unexpected content type %q", resp.Header.Get("Content-Type"))
	}

	resp = upload(t, env.server.URL+"/questions/import", tpl.Bytes())
	var result importResult
	_ = json.NewDecoder(resp.Body).Decode(&result)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || result.Count != 1 {
		t.Fatalf("unexpected import result: %d %+v", resp.StatusCode, result)
	}
	if state := env.createGame(t); state.Source != "session" || state.Questions != 1 {
		t.Fatalf("expected imported session set, got %+v", state)
	}

	resp = upload(t, env.server.URL+"/questions/import", []byte("not a workbook"))
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for garbage upload, got %d", resp.StatusCode)
	}
	if state := env.createGame(t); state.Source != "session" {
		t.Fatalf("rejected import must keep the current set, got %+v", state)
	}

	req, _ := http.NewRequest(http.MethodDelete, env.server.URL+"/questions/current", nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	resp.Body.Close()
	if state := env.createGame(t); state.Source != "bundle" {
		t.Fatalf("expected bundle after clear, got %+v", state)
	}
}

func TestGenerateQuestions(t *testing.T) {
	env := newTestEnv(t)
	env.gen.questions = singleQuestion(t)

	body := strings.NewReader(`{"subject":"Math","formats":["multiple_choice"],"count":1}`)
	resp, err := http.Post(env.server.URL+"/questions/generate", "application/json", body)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || env.gen.got.Subject != "Math" || env.gen.got.Count != 1 {
		t.Fatalf("unexpected generate call: %d %+v", resp.StatusCode, env.gen.got)
	}

	env.gen.err = generator.ErrMissingAPIKey
	resp, err = http.Post(env.server.URL+"/questions/generate", "application/json", strings.NewReader(`{"subject":"Math"}`))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502 for generator failure, got %d", resp.StatusCode)
	}
}

type wsMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func dial(t *testing.T, env *testEnv, gameID string) *websocket.Conn {
	t.Helper()
	u := "ws" + env.server.URL[len("http"):] + "/games/" + gameID + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	if err := conn.WriteJSON(map[string]any{"type": typ, "payload": payload}); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

// readState reads messages until a state matching pred arrives.
func readState(t *testing.T, conn *websocket.Conn, pred func(domain.GameState) bool) domain.GameState {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read json: %v", err)
		}
		if msg.Type != "state" {
			continue
		}
		var state domain.GameState
		if err := json.Unmarshal(msg.Payload, &state); err != nil {
			t.Fatalf("decode state: %v", err)
		}
		if pred(state) {
			return state
		}
	}
}

func readType(t *testing.T, conn *websocket.Conn, typ string) wsMessage {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read json: %v", err)
		}
		if msg.Type == typ {
			return msg
		}
	}
}

func TestWebSocketRoundFlow(t *testing.T) {
	env := newTestEnv(t)
	if err := env.service.ReplaceQuestions(context.Background(), singleQuestion(t)); err != nil {
		t.Fatalf("replace questions: %v", err)
	}
	game := env.createGame(t)
	conn := dial(t, env, game.GameID)

	readState(t, conn, func(s domain.GameState) bool { return s.Phase == domain.PhaseRegistration })

	send(t, conn, "add_player", struct{}{})
	readState(t, conn, func(s domain.GameState) bool { return len(s.Players) == 3 })

	send(t, conn, "update_player", map[string]any{"playerId": 3, "name": "Quiz Master"})
	readState(t, conn, func(s domain.GameState) bool { return len(s.Players) == 3 && s.Players[2].Name == "Quiz Master" })

	send(t, conn, "remove_player", map[string]any{"playerId": 3})
	readState(t, conn, func(s domain.GameState) bool { return len(s.Players) == 2 })

	send(t, conn, "start", nil)
	playing := readState(t, conn, func(s domain.GameState) bool { return s.Phase == domain.PhasePlaying })
	if q := playing.Players[0].Question; q == nil || q.Answer != "" {
		t.Fatalf("expected hidden answer while playing, got %+v", q)
	}

	send(t, conn, "answer", map[string]any{"playerId": 1, "option": 1})
	send(t, conn, "key", map[string]any{"key": "u"})
	reveal := readState(t, conn, func(s domain.GameState) bool { return s.Phase == domain.PhaseReveal })
	if reveal.Players[0].Result != domain.ResultCorrect || reveal.Players[1].Result != domain.ResultWrong {
		t.Fatalf("unexpected reveal results: %+v", reveal.Players)
	}
	if reveal.Players[0].Score != 10 || reveal.Players[0].Question.Answer != "4" {
		t.Fatalf("unexpected reveal state: %+v", reveal.Players[0])
	}

	send(t, conn, "answer", map[string]any{"playerId": 1, "option": 1})
	msg := readType(t, conn, "error")
	var errMsg errorPayload
	_ = json.Unmarshal(msg.Payload, &errMsg)
	if errMsg.Message != domain.ErrWrongPhase.Error() {
		t.Fatalf("expected wrong phase error, got %q", errMsg.Message)
	}

	send(t, conn, "exit", nil)
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var m wsMessage
		if err := conn.ReadJSON(&m); err != nil {
			break
		}
	}
	if _, err := env.service.State(game.GameID); err == nil {
		t.Fatalf("expected game to be gone after exit")
	}
}

func TestWebSocketRejectsUnknownGameAndMessages(t *testing.T) {
	env := newTestEnv(t)
	u := "ws" + env.server.URL[len("http"):] + "/games/missing/ws"
	if _, resp, err := websocket.DefaultDialer.Dial(u, nil); err == nil || resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 dialing unknown game, got %v", err)
	}

	game := env.createGame(t)
	conn := dial(t, env, game.GameID)
	send(t, conn, "dance", nil)
	msg := readType(t, conn, "error")
	if !strings.Contains(string(msg.Payload), "unsupported message type") {
		t.Fatalf("unexpected error payload %s", msg.Payload)
	}
}
