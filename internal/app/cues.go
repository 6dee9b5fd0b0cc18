package app

import "party-quiz-service/internal/domain"

type cueState int

const (
	cuesIdle cueState = iota
	cuesOpen
	cuesSuspended
	cuesDisposed
)

// CueBus is a game's handle on the audio-cue facility. It is opened when
// a game starts, suspended while paused and disposed on exit; cues played
// outside the open state are dropped.
type CueBus struct {
	state cueState
	sink  func(domain.Cue)
}

func NewCueBus(sink func(domain.Cue)) *CueBus {
	return &CueBus{sink: sink}
}

func (b *CueBus) Open() {
	if b.state != cuesDisposed {
		b.state = cuesOpen
	}
}

func (b *CueBus) Suspend() {
	if b.state == cuesOpen {
		b.state = cuesSuspended
	}
}

func (b *CueBus) Resume() {
	if b.state == cuesSuspended {
		b.state = cuesOpen
	}
}

// Dispose is terminal.
func (b *CueBus) Dispose() {
	b.state = cuesDisposed
	b.sink = nil
}

// Play forwards cue to the sink and reports whether it was delivered.
func (b *CueBus) Play(cue domain.Cue) bool {
	if b.state != cuesOpen || b.sink == nil {
		return false
	}
	b.sink(cue)
	return true
}
