package app

import (
	"context"
	"errors"
	"fmt"
	"log"

	"party-quiz-service/internal/domain"
)

// QuestionSource yields a validated question set. Sources with nothing to
// offer return domain.ErrNoQuestionSet.
type QuestionSource interface {
	Name() string
	LoadQuestions(ctx context.Context) ([]domain.Question, error)
}

// QuestionSetStore holds the transient "current question set" shared by
// every game (imports and generated sets land here).
type QuestionSetStore interface {
	Save(ctx context.Context, questions []domain.Question) error
	Load(ctx context.Context) ([]domain.Question, error)
	Clear(ctx context.Context) error
}

// QuestionBank loads named question sets from a backing store.
type QuestionBank interface {
	GetQuestionSet(ctx context.Context, setID string) ([]domain.Question, error)
}

// SessionSource reads the current question set.
type SessionSource struct {
	store QuestionSetStore
}

func NewSessionSource(store QuestionSetStore) *SessionSource {
	return &SessionSource{store: store}
}

func (s *SessionSource) Name() string { return "session" }

func (s *SessionSource) LoadQuestions(ctx context.Context) ([]domain.Question, error) {
	return s.store.Load(ctx)
}

// BankSource reads one configured set from the question bank.
type BankSource struct {
	bank  QuestionBank
	setID string
}

func NewBankSource(bank QuestionBank, setID string) *BankSource {
	return &BankSource{bank: bank, setID: setID}
}

func (s *BankSource) Name() string { return "bank:" + s.setID }

func (s *BankSource) LoadQuestions(ctx context.Context) ([]domain.Question, error) {
	return s.bank.GetQuestionSet(ctx, s.setID)
}

// Resolver tries sources in order and returns the first non-empty set.
type Resolver struct {
	sources []QuestionSource
}

func NewResolver(sources ...QuestionSource) *Resolver {
	return &Resolver{sources: sources}
}

// Resolve returns the questions and the name of the source that served
// them. A failing source is logged and the next one is tried.
func (r *Resolver) Resolve(ctx context.Context) ([]domain.Question, string, error) {
	var lastErr error = domain.ErrNoQuestionSet
	for _, src := range r.sources {
		questions, err := src.LoadQuestions(ctx)
		if err == nil && len(questions) == 0 {
			err = domain.ErrEmptyQuestionSet
		}
		if err != nil {
			if !errors.Is(err, domain.ErrNoQuestionSet) {
				log.Printf("question source %s failed: %v", src.Name(), err)
			}
			lastErr = err
			continue
		}
		return questions, src.Name(), nil
	}
	return nil, "", fmt.Errorf("resolve questions: %w", lastErr)
}
