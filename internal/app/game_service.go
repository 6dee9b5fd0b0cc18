package app

import (
	"context"
	"time"

	"github.com/google/uuid"
	"party-quiz-service/internal/domain"
)

// GameRepository abstracts where live games are kept (in-memory, Redis-marked, etc).
type GameRepository interface {
	Put(game *Game)
	Get(gameID string) (*Game, bool)
	Delete(gameID string)
	List() []*Game
}

// LivenessMarker is implemented by repositories that publish which games
// are still running. ReapIdle renews the mark of every surviving game.
type LivenessMarker interface {
	MarkLive(gameID string)
}

// GameService contains the game use cases.
type GameService struct {
	games     GameRepository
	resolver  *Resolver
	questions QuestionSetStore
	settings  Settings
	options   []GameOption
	newID     func() string
	runCtx    context.Context
}

// NewGameService wires the repositories. Games run their round clock on
// ctx until they exit or ctx is done.
func NewGameService(ctx context.Context, games GameRepository, resolver *Resolver, questions QuestionSetStore, settings Settings, opts ...GameOption) *GameService {
	return &GameService{
		games:     games,
		resolver:  resolver,
		questions: questions,
		settings:  settings,
		options:   opts,
		newID:     func() string { return uuid.NewString() },
		runCtx:    ctx,
	}
}

// CreateGame registers a new game and resolves its question set. A game
// whose questions cannot be loaded is still returned, in the error phase.
func (s *GameService) CreateGame(ctx context.Context) (domain.GameState, error) {
	game := NewGame(s.newID(), s.settings, s.options...)
	s.games.Put(game)
	go game.Run(s.runCtx)

	if err := game.Load(ctx, s.resolver); err != nil {
		return game.State(), err
	}
	return game.State(), nil
}

// Game returns a live game.
func (s *GameService) Game(gameID string) (*Game, error) {
	game, ok := s.games.Get(gameID)
	if !ok {
		return nil, domain.ErrGameNotFound
	}
	return game, nil
}

// State returns the current snapshot of a game.
func (s *GameService) State(gameID string) (domain.GameState, error) {
	game, err := s.Game(gameID)
	if err != nil {
		return domain.GameState{}, err
	}
	return game.State(), nil
}

// Subscribe returns a channel that receives events for a game.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *GameService) Subscribe(_ context.Context, gameID string) (<-chan domain.Event, func(), error) {
	game, err := s.Game(gameID)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := game.Subscribe()
	return ch, cancel, nil
}

// Exit discards a game and everything scheduled for it.
func (s *GameService) Exit(_ context.Context, gameID string) error {
	game, err := s.Game(gameID)
	if err != nil {
		return err
	}
	game.Close()
	s.games.Delete(gameID)
	return nil
}

// Results returns the export data of a game.
func (s *GameService) Results(gameID string) ([]domain.LeaderboardEntry, []domain.HistoryEntry, error) {
	game, err := s.Game(gameID)
	if err != nil {
		return nil, nil, err
	}
	return game.Results()
}

// ReplaceQuestions stores a new current question set for games created
// from now on. Running games keep the set they loaded.
func (s *GameService) ReplaceQuestions(ctx context.Context, questions []domain.Question) error {
	if len(questions) == 0 {
		return domain.ErrEmptyQuestionSet
	}
	return s.questions.Save(ctx, questions)
}

// ClearQuestions drops the current question set.
func (s *GameService) ClearQuestions(ctx context.Context) error {
	return s.questions.Clear(ctx)
}

// ReapIdle closes games that saw no intent since cutoff and returns how
// many were removed.
func (s *GameService) ReapIdle(cutoff time.Time) int {
	marker, _ := s.games.(LivenessMarker)
	reaped := 0
	for _, game := range s.games.List() {
		if game.LastActive().Before(cutoff) {
			game.Close()
			s.games.Delete(game.ID())
			reaped++
			continue
		}
		if marker != nil {
			marker.MarkLive(game.ID())
		}
	}
	return reaped
}
