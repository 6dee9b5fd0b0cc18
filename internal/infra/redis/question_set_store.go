package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"party-quiz-service/internal/domain"
)

// CurrentSetKey holds the serialized current question set. It is shared by
// every game on purpose: an import or a generated set replaces it for all
// games created afterwards.
const CurrentSetKey = "quiz:questions:current"

// QuestionSetStore keeps the current question set in Redis with a TTL.
type QuestionSetStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewQuestionSetStore(client *redis.Client, ttl time.Duration) *QuestionSetStore {
	return &QuestionSetStore{client: client, ttl: ttl}
}

func (s *QuestionSetStore) Save(ctx context.Context, questions []domain.Question) error {
	data, err := domain.EncodeQuestionSet(questions)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, CurrentSetKey, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save question set: %w", err)
	}
	return nil
}

func (s *QuestionSetStore) Load(ctx context.Context) ([]domain.Question, error) {
	data, err := s.client.Get(ctx, CurrentSetKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNoQuestionSet
	}
	if err != nil {
		return nil, fmt.Errorf("load question set: %w", err)
	}
	return domain.DecodeQuestionSet(data)
}

func (s *QuestionSetStore) Clear(ctx context.Context) error {
	return s.client.Del(ctx, CurrentSetKey).Err()
}
