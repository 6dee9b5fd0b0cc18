package redis

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
	"party-quiz-service/internal/domain"
)

// BankLoader fetches a named question set from a backing store (e.g., Postgres).
type BankLoader interface {
	LoadQuestionSet(ctx context.Context, setID string) ([]domain.Question, error)
}

// QuestionBank caches serialized question sets in Redis and falls back to a
// loader on cache miss. Sets are stored as: SET quiz:bank:{setID} {json}
type QuestionBank struct {
	client *redis.Client
	loader BankLoader
	ttl    time.Duration
	sf     singleflight.Group
	rndMu  sync.Mutex
	rnd    *rand.Rand
}

func NewQuestionBank(client *redis.Client, loader BankLoader, ttl time.Duration) *QuestionBank {
	return &QuestionBank{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (b *QuestionBank) GetQuestionSet(ctx context.Context, setID string) ([]domain.Question, error) {
	key := b.key(setID)

	if questions, ok := b.cached(ctx, key); ok {
		return questions, nil
	}

	result, err, _ := b.sf.Do(setID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if questions, ok := b.cached(ctx, key); ok {
			return questions, nil
		}

		questions, err := b.loader.LoadQuestionSet(ctx, setID)
		if err != nil {
			return nil, err
		}

		data, err := domain.EncodeQuestionSet(questions)
		if err == nil {
			_ = b.client.Set(ctx, key, data, b.ttlWithJitter()).Err()
		}
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

// Invalidate drops a cached set, e.g. after it was re-imported.
func (b *QuestionBank) Invalidate(ctx context.Context, setID string) error {
	return b.client.Del(ctx, b.key(setID)).Err()
}

// cached treats unreadable cache entries as misses.
func (b *QuestionBank) cached(ctx context.Context, key string) ([]domain.Question, bool) {
	data, err := b.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	questions, err := domain.DecodeQuestionSet(data)
	if err != nil {
		return nil, false
	}
	return questions, true
}

func (b *QuestionBank) key(setID string) string {
	return "quiz:bank:" + setID
}

func (b *QuestionBank) ttlWithJitter() time.Duration {
	if b.ttl <= 0 {
		return 0
	}
	jitterMax := int64(b.ttl) / 10
	b.rndMu.Lock()
	defer b.rndMu.Unlock()
	return b.ttl + time.Duration(b.rnd.Int63n(jitterMax+1))
}
