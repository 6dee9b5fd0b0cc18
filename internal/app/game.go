package app

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"party-quiz-service/internal/domain"
)

// FinishPolicy decides whether the first finisher ends the game.
type FinishPolicy string

const (
	FinishFirst FinishPolicy = "first"
	FinishAll   FinishPolicy = "all"
)

// AssignmentMode decides how questions are drawn each round.
type AssignmentMode string

const (
	AssignPerPlayer AssignmentMode = "per_player"
	AssignShared    AssignmentMode = "shared"
)

// Settings are the rules of a game.
type Settings struct {
	WinThreshold int
	Increment    int
	MaxRounds    int
	RevealDelay  time.Duration
	// RoundTime overrides question time limits when positive.
	RoundTime    time.Duration
	TickStep     time.Duration
	MaxPlayers   int
	FinishPolicy FinishPolicy
	Assignment   AssignmentMode
}

func DefaultSettings() Settings {
	return Settings{
		WinThreshold: 100,
		Increment:    10,
		MaxRounds:    50,
		RevealDelay:  4 * time.Second,
		TickStep:     100 * time.Millisecond,
		MaxPlayers:   10,
		FinishPolicy: FinishFirst,
		Assignment:   AssignPerPlayer,
	}
}

// AfterFunc schedules f after d and returns a function that cancels it.
type AfterFunc func(d time.Duration, f func()) (stop func() bool)

func timeAfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// GameOption customizes a Game.
type GameOption func(*Game)

// WithRand fixes the random source used for assignments and avatars.
func WithRand(rnd *rand.Rand) GameOption {
	return func(g *Game) { g.rnd = rnd }
}

// WithAfterFunc replaces the scheduler used for the reveal delay.
func WithAfterFunc(after AfterFunc) GameOption {
	return func(g *Game) { g.afterFunc = after }
}

// WithClock is for deterministic timestamps in tests.
func WithClock(now func() time.Time) GameOption {
	return func(g *Game) { g.now = now }
}

// Game is the Round Engine for one game. All state is guarded by mu and
// every intent runs to completion before the next is applied.
type Game struct {
	id        string
	settings  Settings
	now       func() time.Time
	rnd       *rand.Rand
	afterFunc AfterFunc

	mu            sync.Mutex
	phase         domain.Phase
	loadErr       string
	source        string
	questions     []domain.Question
	roster        *Roster
	round         int
	epoch         int
	assignments   map[int]int
	answers       map[int]string
	results       map[int]domain.RoundResult
	finishers     []domain.Finisher
	history       []domain.HistoryEntry
	newlyFinished bool
	clock         *Countdown
	cancelAdvance func() bool
	cues          *CueBus
	subscribers   map[chan domain.Event]struct{}
	lastActive    time.Time
	closed        bool
	done          chan struct{}
}

func NewGame(id string, settings Settings, opts ...GameOption) *Game {
	g := &Game{
		id:          id,
		settings:    settings,
		now:         time.Now,
		afterFunc:   timeAfterFunc,
		phase:       domain.PhaseLoading,
		assignments: make(map[int]int),
		answers:     make(map[int]string),
		results:     make(map[int]domain.RoundResult),
		subscribers: make(map[chan domain.Event]struct{}),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.rnd == nil {
		g.rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	g.clock = NewCountdown(g.resolveRoundLocked)
	g.cues = NewCueBus(g.publishCueLocked)
	g.lastActive = g.now()
	return g
}

func (g *Game) ID() string { return g.id }

// Load resolves the question set and moves the game to registration, or
// to the terminal error phase when no source can serve one.
func (g *Game) Load(ctx context.Context, resolver *Resolver) error {
	questions, source, err := resolver.Resolve(ctx)

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return domain.ErrGameNotFound
	}
	if g.phase != domain.PhaseLoading {
		return domain.ErrWrongPhase
	}
	if err != nil {
		g.phase = domain.PhaseError
		g.loadErr = err.Error()
		g.broadcastLocked()
		return fmt.Errorf("%w: %v", domain.ErrGameFailed, err)
	}
	g.questions = questions
	g.source = source
	g.roster = NewRoster(g.settings.MaxPlayers, g.rnd)
	g.phase = domain.PhaseRegistration
	g.broadcastLocked()
	return nil
}

// AddPlayer appends a player to the roster.
func (g *Game) AddPlayer() (domain.Player, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.expectLocked(domain.PhaseRegistration); err != nil {
		return domain.Player{}, err
	}
	p, err := g.roster.Add()
	if err != nil {
		return domain.Player{}, err
	}
	g.broadcastLocked()
	return p, nil
}

func (g *Game) RemovePlayer(id int) error {
	return g.editRoster(func(r *Roster) error { return r.Remove(id) })
}

func (g *Game) UpdatePlayer(id int, patch PlayerPatch) error {
	return g.editRoster(func(r *Roster) error { return r.Update(id, patch) })
}

func (g *Game) ReorderPlayers(order []int) error {
	return g.editRoster(func(r *Roster) error { return r.Reorder(order) })
}

func (g *Game) editRoster(edit func(*Roster) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.expectLocked(domain.PhaseRegistration); err != nil {
		return err
	}
	if err := edit(g.roster); err != nil {
		return err
	}
	g.broadcastLocked()
	return nil
}

// Start leaves registration and plays round 1.
func (g *Game) Start() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.expectLocked(domain.PhaseRegistration); err != nil {
		return err
	}
	if g.roster.Len() == 0 {
		return domain.ErrPlayerNotFound
	}
	g.resetLocked()
	g.cues.Open()
	g.cues.Play(domain.CueStart)
	g.nextRoundLocked()
	g.broadcastLocked()
	return nil
}

// PlayAgain returns a finished game to registration with the same roster.
func (g *Game) PlayAgain() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.expectLocked(domain.PhaseWinner); err != nil {
		return err
	}
	g.resetLocked()
	g.phase = domain.PhaseRegistration
	g.broadcastLocked()
	return nil
}

// SubmitOption records a choice answer by option index.
func (g *Game) SubmitOption(playerID, option int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.submitLocked(playerID, func(q domain.Question) (string, error) {
		if q.Kind != domain.KindChoice || option < 0 || option >= len(q.Options) {
			return "", domain.ErrOptionNotFound
		}
		return q.Options[option], nil
	})
}

// SubmitText records a free-form answer. Choice questions only accept
// the exact text of one of their options.
func (g *Game) SubmitText(playerID int, text string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.submitLocked(playerID, func(q domain.Question) (string, error) {
		if q.Kind != domain.KindChoice {
			return text, nil
		}
		for _, option := range q.Options {
			if option == text {
				return text, nil
			}
		}
		return "", domain.ErrOptionNotFound
	})
}

// PressKey routes a keyboard control through the normal submission path.
func (g *Game) PressKey(key string) error {
	binding, ok := LookupKey(key)
	if !ok {
		return domain.ErrUnknownKey
	}

	g.mu.Lock()
	if err := g.expectLocked(domain.PhasePlaying); err != nil {
		g.mu.Unlock()
		return err
	}
	if binding.Slot >= len(g.roster.players) {
		g.mu.Unlock()
		return domain.ErrUnknownKey
	}
	playerID := g.roster.players[binding.Slot].ID
	g.mu.Unlock()

	return g.SubmitOption(playerID, binding.Option)
}

func (g *Game) submitLocked(playerID int, value func(domain.Question) (string, error)) error {
	if err := g.expectLocked(domain.PhasePlaying); err != nil {
		return err
	}
	if g.clock.Paused() {
		return domain.ErrPaused
	}
	if g.roster.index(playerID) < 0 {
		return domain.ErrPlayerNotFound
	}
	if g.isFinishedLocked(playerID) {
		return domain.ErrPlayerFinished
	}
	if _, ok := g.answers[playerID]; ok {
		return domain.ErrAlreadyAnswered
	}
	qi, ok := g.assignments[playerID]
	if !ok {
		return domain.ErrPlayerNotFound
	}
	answer, err := value(g.questions[qi])
	if err != nil {
		return err
	}

	g.answers[playerID] = answer
	g.lastActive = g.now()
	g.cues.Play(domain.CueAnswer)
	g.maybeResolveLocked()
	g.broadcastLocked()
	return nil
}

// Pause freezes the round clock.
func (g *Game) Pause() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.expectLocked(domain.PhasePlaying); err != nil {
		return err
	}
	g.clock.Pause()
	g.cues.Suspend()
	g.broadcastLocked()
	return nil
}

func (g *Game) Resume() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.expectLocked(domain.PhasePlaying); err != nil {
		return err
	}
	g.clock.Resume()
	g.cues.Resume()
	g.broadcastLocked()
	return nil
}

// Tick advances the round clock by step. A state update is published when
// the displayed second changes or the round ends.
func (g *Game) Tick(step time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed || g.phase != domain.PhasePlaying {
		return
	}
	before := wholeSeconds(g.clock.Remaining())
	if g.clock.Tick(step) {
		g.broadcastLocked()
		return
	}
	after := wholeSeconds(g.clock.Remaining())
	if after != before {
		if after > 0 && after <= 3 && !g.clock.Paused() {
			g.cues.Play(domain.CueTick)
		}
		g.broadcastLocked()
	}
}

// Run drives the round clock until ctx is done or the game is closed.
func (g *Game) Run(ctx context.Context) {
	step := g.settings.TickStep
	if step <= 0 {
		step = 100 * time.Millisecond
	}
	ticker := time.NewTicker(step)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-g.done:
			return
		case <-ticker.C:
			g.Tick(step)
		}
	}
}

// Close discards the game: the pending round advance is cancelled, the
// clock loop stops, cues are disposed and subscribers are released.
func (g *Game) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return
	}
	g.closed = true
	g.epoch++
	g.cancelAdvanceLocked()
	g.clock.Stop()
	g.cues.Dispose()
	close(g.done)
	for ch := range g.subscribers {
		delete(g.subscribers, ch)
		close(ch)
	}
}

// State returns a snapshot for rendering.
func (g *Game) State() domain.GameState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshotLocked()
}

// Results returns the leaderboard and answer history for export.
func (g *Game) Results() ([]domain.LeaderboardEntry, []domain.HistoryEntry, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return nil, nil, domain.ErrGameNotFound
	}
	if g.roster == nil {
		return nil, nil, domain.ErrGameFailed
	}
	history := append([]domain.HistoryEntry(nil), g.history...)
	return Leaderboard(g.roster.players, g.finishers), history, nil
}

// LastActive reports the time of the last accepted intent.
func (g *Game) LastActive() time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastActive
}

// Subscribe returns a channel receiving state and cue events. The caller
// must invoke the returned cancel function to avoid leaks.
func (g *Game) Subscribe() (<-chan domain.Event, func()) {
	ch := make(chan domain.Event, 16)

	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	g.subscribers[ch] = struct{}{}
	state := g.snapshotLocked()
	// ch is fresh and buffered; the send cannot block and must land
	// before Close can see it.
	ch <- domain.Event{Type: domain.EventState, State: &state}
	g.mu.Unlock()

	cancel := func() {
		g.mu.Lock()
		if _, ok := g.subscribers[ch]; ok {
			delete(g.subscribers, ch)
			close(ch)
		}
		g.mu.Unlock()
	}
	return ch, cancel
}

func (g *Game) expectLocked(phase domain.Phase) error {
	switch {
	case g.closed:
		return domain.ErrGameNotFound
	case g.phase == domain.PhaseError:
		return domain.ErrGameFailed
	case g.phase != phase:
		return domain.ErrWrongPhase
	}
	g.lastActive = g.now()
	return nil
}

func (g *Game) resetLocked() {
	g.epoch++
	g.cancelAdvanceLocked()
	g.clock.Stop()
	for i := range g.roster.players {
		g.roster.players[i].Score = 0
	}
	g.round = 0
	g.history = nil
	g.finishers = nil
	g.newlyFinished = false
	g.assignments = make(map[int]int)
	g.answers = make(map[int]string)
	g.results = make(map[int]domain.RoundResult)
}

func (g *Game) cancelAdvanceLocked() {
	if g.cancelAdvance != nil {
		g.cancelAdvance()
		g.cancelAdvance = nil
	}
}

func (g *Game) isFinishedLocked(playerID int) bool {
	for _, f := range g.finishers {
		if f.PlayerID == playerID {
			return true
		}
	}
	return false
}

func (g *Game) publishCueLocked(cue domain.Cue) {
	g.publishLocked(domain.Event{Type: domain.EventCue, Cue: cue})
}

func (g *Game) broadcastLocked() {
	state := g.snapshotLocked()
	g.publishLocked(domain.Event{Type: domain.EventState, State: &state})
}

func (g *Game) publishLocked(ev domain.Event) {
	for ch := range g.subscribers {
		select {
		case ch <- ev:
		default:
			// Drop the oldest event so a slow client never blocks the game.
			select {
			case <-ch:
			default:
			}
			ch <- ev
		}
	}
}

func (g *Game) snapshotLocked() domain.GameState {
	state := domain.GameState{
		GameID:    g.id,
		Phase:     g.phase,
		Round:     g.round,
		Questions: len(g.questions),
		Source:    g.source,
		Error:     g.loadErr,
		Finishers: append([]domain.Finisher(nil), g.finishers...),
		UpdatedAt: g.now(),
	}
	if g.roster == nil {
		return state
	}
	if g.phase == domain.PhasePlaying {
		state.Paused = g.clock.Paused()
		state.TimeRemaining = g.clock.Remaining().Milliseconds()
	}

	reveal := g.phase == domain.PhaseReveal
	inRound := g.phase == domain.PhasePlaying || reveal
	for slot, p := range g.roster.players {
		view := domain.PlayerView{
			Player:   p,
			Slot:     slot,
			Controls: ControlsLabel(slot),
			Finished: g.isFinishedLocked(p.ID),
		}
		if qi, ok := g.assignments[p.ID]; ok && inRound {
			qv := g.questions[qi].View(reveal)
			view.Question = &qv
		}
		if _, ok := g.answers[p.ID]; ok {
			view.Answered = true
		}
		if reveal {
			view.Result = g.results[p.ID]
		}
		state.Players = append(state.Players, view)
	}
	if reveal || g.phase == domain.PhaseWinner {
		state.Leaderboard = Leaderboard(g.roster.players, g.finishers)
	}
	return state
}

func wholeSeconds(d time.Duration) int64 {
	return int64((d + time.Second - 1) / time.Second)
}
