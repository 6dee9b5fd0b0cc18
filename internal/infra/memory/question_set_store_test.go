package memory

import (
	"context"
	"errors"
	"testing"

	"party-quiz-service/internal/domain"
)

func TestQuestionSetStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewQuestionSetStore()

	if _, err := store.Load(ctx); !errors.Is(err, domain.ErrNoQuestionSet) {
		t.Fatalf("expected empty store, got %v", err)
	}
	if err := store.Save(ctx, sampleQuestions(t)); err != nil {
		t.Fatalf("save: %v", err)
	}
	questions, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(questions) != 1 || questions[0].Answer != "4" || questions[0].Kind != domain.KindChoice {
		t.Fatalf("unexpected questions %+v", questions)
	}

	_ = store.Clear(ctx)
	if _, err := store.Load(ctx); !errors.Is(err, domain.ErrNoQuestionSet) {
		t.Fatalf("expected cleared store, got %v", err)
	}
}
