// Package bundle ships the default question set inside the binary.
package bundle

import (
	"context"
	_ "embed"

	"party-quiz-service/internal/domain"
)

//go:embed questions.json
var defaultQuestions []byte

// Source serves the bundled question set.
type Source struct {
	data []byte
}

func NewSource() *Source {
	return &Source{data: defaultQuestions}
}

func (s *Source) Name() string { return "bundle" }

func (s *Source) LoadQuestions(context.Context) ([]domain.Question, error) {
	return domain.DecodeQuestionSet(s.data)
}
