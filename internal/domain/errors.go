package domain

import "errors"

var (
	// ErrGameNotFound is returned when a game id is unknown or the game has exited.
	ErrGameNotFound = errors.New("game not found")
	// ErrGameFailed is returned for every intent once a game could not load questions.
	ErrGameFailed = errors.New("game failed to load questions")
	// ErrWrongPhase is returned when an intent is not valid in the current phase.
	ErrWrongPhase = errors.New("intent not allowed in current phase")
	// ErrPlayerNotFound is returned when an intent names an unknown player.
	ErrPlayerNotFound = errors.New("player not found in game")
	// ErrPlayerFinished is returned when a finisher tries to answer.
	ErrPlayerFinished = errors.New("player already finished")
	// ErrAlreadyAnswered is returned on a second answer in the same round.
	ErrAlreadyAnswered = errors.New("player already answered this round")
	// ErrOptionNotFound indicates a submitted option index is out of range.
	ErrOptionNotFound = errors.New("option not found")
	// ErrRosterFull is returned when adding a player beyond the roster limit.
	ErrRosterFull = errors.New("roster is full")
	// ErrInvalidOrder is returned when a reorder is not a permutation of the roster.
	ErrInvalidOrder = errors.New("order is not a permutation of the roster")
	// ErrPaused is returned when answering while the round clock is paused.
	ErrPaused = errors.New("game is paused")
	// ErrUnknownKey is returned for keys outside the control surface.
	ErrUnknownKey = errors.New("key not mapped to a player")

	// ErrNoQuestionSet means a question source has nothing to offer.
	ErrNoQuestionSet = errors.New("question set not found")
	// ErrInvalidQuestion is wrapped by question validation failures.
	ErrInvalidQuestion = errors.New("invalid question")
	// ErrEmptyQuestionSet is returned when a source yields no valid questions.
	ErrEmptyQuestionSet = errors.New("no valid questions found")
)
