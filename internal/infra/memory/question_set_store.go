package memory

import (
	"context"
	"sync"

	"party-quiz-service/internal/domain"
)

// QuestionSetStore keeps the current question set in process memory,
// serialized the same way the Redis store does.
type QuestionSetStore struct {
	mu   sync.RWMutex
	data []byte
}

func NewQuestionSetStore() *QuestionSetStore {
	return &QuestionSetStore{}
}

func (s *QuestionSetStore) Save(_ context.Context, questions []domain.Question) error {
	data, err := domain.EncodeQuestionSet(questions)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.data = data
	s.mu.Unlock()
	return nil
}

func (s *QuestionSetStore) Load(_ context.Context) ([]domain.Question, error) {
	s.mu.RLock()
	data := s.data
	s.mu.RUnlock()
	if data == nil {
		return nil, domain.ErrNoQuestionSet
	}
	return domain.DecodeQuestionSet(data)
}

func (s *QuestionSetStore) Clear(_ context.Context) error {
	s.mu.Lock()
	s.data = nil
	s.mu.Unlock()
	return nil
}
