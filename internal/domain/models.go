package domain

import "time"

// Phase is the Round Engine state.
type Phase string

const (
	PhaseLoading      Phase = "loading"
	PhaseRegistration Phase = "registration"
	PhasePlaying      Phase = "playing"
	PhaseReveal       Phase = "reveal"
	PhaseWinner       Phase = "winner"
	PhaseError        Phase = "error"
)

// Player is a roster entry and their cumulative score.
type Player struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Color  string `json:"color"`
	Avatar string `json:"avatar"`
	Score  int    `json:"score"`
}

// Finisher records a player whose score reached the win threshold.
// Rank is zero until the end-of-round resolution assigns it.
type Finisher struct {
	PlayerID int `json:"playerId"`
	Rank     int `json:"rank"`
	Score    int `json:"score"`
}

// NoAnswer is recorded in history for players who did not answer.
const NoAnswer = "No Answer"

// HistoryEntry is one resolved (round, player) pair.
type HistoryEntry struct {
	Round         int    `json:"round"`
	Question      string `json:"question"`
	PlayerID      int    `json:"playerId"`
	PlayerName    string `json:"playerName"`
	Answer        string `json:"answer"`
	Correct       bool   `json:"correct"`
	CorrectAnswer string `json:"correctAnswer"`
}

// Standing labels a leaderboard entry.
type Standing string

const (
	StandingFinished Standing = "Finished"
	StandingActive   Standing = "Active"
)

// LeaderboardEntry is a ranked view of a player.
type LeaderboardEntry struct {
	Rank   int      `json:"rank"`
	Player Player   `json:"player"`
	Status Standing `json:"status"`
}

// RoundResult is the per-player outcome shown during reveal.
type RoundResult string

const (
	ResultCorrect RoundResult = "correct"
	ResultWrong   RoundResult = "wrong"
)

// QuestionView is what a client may see of an assigned question.
// Answer is only filled once the round is revealed.
type QuestionView struct {
	ID        string       `json:"id"`
	Kind      QuestionKind `json:"type"`
	Prompt    string       `json:"question"`
	Options   []string     `json:"options,omitempty"`
	Answer    string       `json:"answer,omitempty"`
	TimeLimit int          `json:"timeLimit"`
}

// PlayerView is a player as rendered during a round.
type PlayerView struct {
	Player
	Slot     int           `json:"slot"`
	Controls string        `json:"controls,omitempty"`
	Question *QuestionView `json:"question,omitempty"`
	Answered bool          `json:"answered"`
	Finished bool          `json:"finished"`
	Result   RoundResult   `json:"result,omitempty"`
}

// GameState is a read-only snapshot handed to the presentation layer.
type GameState struct {
	GameID        string             `json:"gameId"`
	Phase         Phase              `json:"phase"`
	Round         int                `json:"round"`
	Paused        bool               `json:"paused"`
	TimeRemaining int64              `json:"timeRemainingMs"`
	Players       []PlayerView       `json:"players"`
	Finishers     []Finisher         `json:"finishers"`
	Leaderboard   []LeaderboardEntry `json:"leaderboard,omitempty"`
	Questions     int                `json:"questionCount"`
	Source        string             `json:"questionSource,omitempty"`
	Error         string             `json:"error,omitempty"`
	UpdatedAt     time.Time          `json:"updatedAt"`
}

// Cue names an audio cue the client should play.
type Cue string

const (
	CueStart   Cue = "start"
	CueRound   Cue = "round"
	CueAnswer  Cue = "answer"
	CueTick    Cue = "tick"
	CueCorrect Cue = "correct"
	CueWrong   Cue = "wrong"
	CueFinish  Cue = "finish"
	CueWinner  Cue = "winner"
)

// EventType distinguishes the payload of an Event.
type EventType string

const (
	EventState EventType = "state"
	EventCue   EventType = "cue"
)

// Event is pushed to game subscribers.
type Event struct {
	Type  EventType  `json:"type"`
	State *GameState `json:"state,omitempty"`
	Cue   Cue        `json:"cue,omitempty"`
}
