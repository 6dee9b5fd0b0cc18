package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// QuestionKind tags the Question variant.
type QuestionKind string

const (
	KindChoice QuestionKind = "multiple_choice"
	KindEssay  QuestionKind = "essay"
)

const (
	// DefaultTimeLimit applies when a record carries no usable time limit.
	DefaultTimeLimit = 10 * time.Second
	MinOptions       = 2
	MaxOptions       = 4
)

// Question is a validated quiz question. Values should come from
// NewChoiceQuestion, NewEssayQuestion or ParseQuestions.
type Question struct {
	ID        string
	Kind      QuestionKind
	Prompt    string
	Options   []string // choice only
	Answer    string   // exact correct option, or the essay reference answer
	TimeLimit time.Duration
}

// NewChoiceQuestion validates and builds a multiple-choice question.
func NewChoiceQuestion(id, prompt string, options []string, answer string, limit time.Duration) (Question, error) {
	q := Question{ID: id, Kind: KindChoice, Prompt: prompt, Options: options, Answer: answer, TimeLimit: limit}
	return q, q.Validate()
}

// NewEssayQuestion validates and builds a free-response question.
func NewEssayQuestion(id, prompt, reference string, limit time.Duration) (Question, error) {
	q := Question{ID: id, Kind: KindEssay, Prompt: prompt, Answer: reference, TimeLimit: limit}
	return q, q.Validate()
}

// Validate reports whether q satisfies its variant's shape.
func (q Question) Validate() error {
	if strings.TrimSpace(q.Prompt) == "" {
		return fmt.Errorf("%w: missing prompt", ErrInvalidQuestion)
	}
	if q.TimeLimit < 0 {
		return fmt.Errorf("%w: negative time limit", ErrInvalidQuestion)
	}
	switch q.Kind {
	case KindChoice:
		if len(q.Options) < MinOptions || len(q.Options) > MaxOptions {
			return fmt.Errorf("%w: need %d-%d options, got %d", ErrInvalidQuestion, MinOptions, MaxOptions, len(q.Options))
		}
		for _, opt := range q.Options {
			if opt == "" {
				return fmt.Errorf("%w: empty option", ErrInvalidQuestion)
			}
		}
		if q.Answer == "" {
			return fmt.Errorf("%w: missing answer", ErrInvalidQuestion)
		}
	case KindEssay:
		if len(q.Options) != 0 {
			return fmt.Errorf("%w: essay question with options", ErrInvalidQuestion)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidQuestion, q.Kind)
	}
	return nil
}

// Limit returns the time limit, falling back to DefaultTimeLimit.
func (q Question) Limit() time.Duration {
	if q.TimeLimit <= 0 {
		return DefaultTimeLimit
	}
	return q.TimeLimit
}

// IsCorrect grades a submitted value. Essay answers count as correct when
// they are non-empty after trimming; there is no content grading.
func (q Question) IsCorrect(answer string, answered bool) bool {
	if !answered {
		return false
	}
	if q.Kind == KindEssay {
		return strings.TrimSpace(answer) != ""
	}
	return answer == q.Answer
}

// View returns the client-facing shape, optionally revealing the answer.
func (q Question) View(reveal bool) QuestionView {
	v := QuestionView{
		ID:        q.ID,
		Kind:      q.Kind,
		Prompt:    q.Prompt,
		Options:   append([]string(nil), q.Options...),
		TimeLimit: int(q.Limit() / time.Second),
	}
	if reveal {
		v.Answer = q.Answer
	}
	return v
}

// QuestionRecord is the serialized form shared by the session store, the
// question bank, the bundled default and the generator.
type QuestionRecord struct {
	ID        json.RawMessage `json:"id,omitempty"`
	Type      string          `json:"type,omitempty"`
	Question  string          `json:"question"`
	Options   []string        `json:"options,omitempty"`
	Answer    string          `json:"answer"`
	TimeLimit int             `json:"timeLimit,omitempty"`
}

// Record converts q back into its serialized form.
func (q Question) Record() QuestionRecord {
	id, _ := json.Marshal(q.ID)
	return QuestionRecord{
		ID:        id,
		Type:      string(q.Kind),
		Question:  q.Prompt,
		Options:   append([]string(nil), q.Options...),
		Answer:    q.Answer,
		TimeLimit: int(q.TimeLimit / time.Second),
	}
}

// ParseRecord validates a single record. A record without a type is a
// choice question when it has options and an essay otherwise.
func ParseRecord(rec QuestionRecord, fallbackID string) (Question, error) {
	kind := QuestionKind(strings.ToLower(strings.TrimSpace(rec.Type)))
	if kind == "" {
		kind = KindEssay
		if len(rec.Options) > 0 {
			kind = KindChoice
		}
	}

	id := recordID(rec.ID)
	if id == "" {
		id = fallbackID
	}

	limit := time.Duration(rec.TimeLimit) * time.Second
	if rec.TimeLimit <= 0 {
		limit = 0
	}

	q := Question{
		ID:        id,
		Kind:      kind,
		Prompt:    strings.TrimSpace(rec.Question),
		Answer:    rec.Answer,
		TimeLimit: limit,
	}
	if kind == KindChoice {
		for _, opt := range rec.Options {
			if opt != "" {
				q.Options = append(q.Options, opt)
			}
		}
	}
	if err := q.Validate(); err != nil {
		return Question{}, err
	}
	return q, nil
}

// ParseQuestions keeps the records that validate and reports how many
// were dropped.
func ParseQuestions(records []QuestionRecord) ([]Question, int) {
	out := make([]Question, 0, len(records))
	dropped := 0
	for i, rec := range records {
		q, err := ParseRecord(rec, fmt.Sprintf("q%d", i+1))
		if err != nil {
			dropped++
			continue
		}
		out = append(out, q)
	}
	return out, dropped
}

// DecodeQuestionSet parses a serialized set. Malformed JSON and sets with
// no valid question are errors.
func DecodeQuestionSet(data []byte) ([]Question, error) {
	var records []QuestionRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode question set: %w", err)
	}
	questions, _ := ParseQuestions(records)
	if len(questions) == 0 {
		return nil, ErrEmptyQuestionSet
	}
	return questions, nil
}

// EncodeQuestionSet serializes questions into the shared record format.
func EncodeQuestionSet(questions []Question) ([]byte, error) {
	records := make([]QuestionRecord, 0, len(questions))
	for _, q := range questions {
		records = append(records, q.Record())
	}
	return json.Marshal(records)
}

// recordID accepts both string and numeric ids.
func recordID(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}
