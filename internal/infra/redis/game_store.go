package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"party-quiz-service/internal/app"
)

// GameStore is a Redis-aware implementation of app.GameRepository.
// Notes:
//   - Games are owned by this process; the local map holds the live engines.
//   - Redis only marks game liveness so operators can see running games
//     (KEYS quiz:game:*). The idle reaper renews the marker of every game
//     it keeps, so it only expires once the process stops reaping.
type GameStore struct {
	client *redis.Client
	ttl    time.Duration
	mu     sync.RWMutex
	games  map[string]*app.Game
}

func NewGameStore(client *redis.Client, ttl time.Duration) *GameStore {
	return &GameStore{
		client: client,
		ttl:    ttl,
		games:  make(map[string]*app.Game),
	}
}

func (s *GameStore) Put(game *app.Game) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[game.ID()] = game
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(game.ID()), "1", s.ttl).Err()
}

func (s *GameStore) Get(gameID string) (*app.Game, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	game, ok := s.games[gameID]
	return game, ok
}

func (s *GameStore) Delete(gameID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[gameID]; !ok {
		return
	}
	delete(s.games, gameID)
	_ = s.client.Del(context.Background(), s.key(gameID)).Err()
}

// MarkLive renews the liveness marker of a game this process still owns.
func (s *GameStore) MarkLive(gameID string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.games[gameID]; !ok {
		return
	}
	_ = s.client.Set(context.Background(), s.key(gameID), "1", s.ttl).Err()
}

func (s *GameStore) List() []*app.Game {
	s.mu.RLock()
	defer s.mu.RUnlock()
	games := make([]*app.Game, 0, len(s.games))
	for _, game := range s.games {
		games = append(games, game)
	}
	return games
}

func (s *GameStore) key(gameID string) string {
	return "quiz:game:" + gameID
}
