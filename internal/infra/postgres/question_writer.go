package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"party-quiz-service/internal/domain"
)

// QuestionSetRow is the bun model of the question_sets table.
type QuestionSetRow struct {
	bun.BaseModel `bun:"table:question_sets"`

	ID        string    `bun:"id,pk"`
	Name      string    `bun:"name"`
	Data      string    `bun:"data,type:jsonb"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// QuestionWriter stores imported question sets in the bank.
type QuestionWriter struct {
	db  *bun.DB
	now func() time.Time
}

func NewQuestionWriter(db *bun.DB) *QuestionWriter {
	return &QuestionWriter{db: db, now: time.Now}
}

// SaveQuestionSet inserts or replaces a set.
func (w *QuestionWriter) SaveQuestionSet(ctx context.Context, setID, name string, questions []domain.Question) error {
	if len(questions) == 0 {
		return domain.ErrEmptyQuestionSet
	}
	data, err := domain.EncodeQuestionSet(questions)
	if err != nil {
		return err
	}
	now := w.now()
	row := &QuestionSetRow{ID: setID, Name: name, Data: string(data), CreatedAt: now, UpdatedAt: now}
	_, err = w.db.NewInsert().
		Model(row).
		On("CONFLICT (id) DO UPDATE").
		Set("name = EXCLUDED.name").
		Set("data = EXCLUDED.data").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("save question set: %w", err)
	}
	return nil
}
