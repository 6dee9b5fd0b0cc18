package app

import (
	"time"

	"party-quiz-service/internal/domain"
)

// nextRoundLocked draws a fresh assignment and starts the round clock.
func (g *Game) nextRoundLocked() {
	g.round++
	g.phase = domain.PhasePlaying
	g.newlyFinished = false
	g.answers = make(map[int]string)
	g.results = make(map[int]domain.RoundResult)
	g.assignments = g.assignLocked()
	g.clock.Start(g.roundDurationLocked())
	g.cues.Play(domain.CueRound)
	g.maybeResolveLocked()
}

// assignLocked maps every active player to a random question index.
func (g *Game) assignLocked() map[int]int {
	assignments := make(map[int]int, len(g.roster.players))
	if len(g.questions) == 0 {
		return assignments
	}
	shared := g.rnd.Intn(len(g.questions))
	for _, p := range g.roster.players {
		if g.isFinishedLocked(p.ID) {
			continue
		}
		if g.settings.Assignment == AssignShared {
			assignments[p.ID] = shared
			continue
		}
		assignments[p.ID] = g.rnd.Intn(len(g.questions))
	}
	return assignments
}

// roundDurationLocked is the longest time limit among this round's
// questions unless the settings fix one.
func (g *Game) roundDurationLocked() time.Duration {
	if g.settings.RoundTime > 0 {
		return g.settings.RoundTime
	}
	var d time.Duration
	for _, qi := range g.assignments {
		if limit := g.questions[qi].Limit(); limit > d {
			d = limit
		}
	}
	if d == 0 {
		d = domain.DefaultTimeLimit
	}
	return d
}

// maybeResolveLocked ends the round once every active player answered or
// nobody is left to answer.
func (g *Game) maybeResolveLocked() {
	if g.phase != domain.PhasePlaying {
		return
	}
	for _, p := range g.roster.players {
		if g.isFinishedLocked(p.ID) {
			continue
		}
		if _, ok := g.answers[p.ID]; !ok {
			return
		}
	}
	g.resolveRoundLocked()
}

// resolveRoundLocked scores the round, records history, ranks new
// finishers and schedules the next transition.
func (g *Game) resolveRoundLocked() {
	if g.phase != domain.PhasePlaying {
		return
	}
	g.phase = domain.PhaseReveal
	g.clock.Stop()

	finished := make(map[int]bool, len(g.finishers))
	for _, f := range g.finishers {
		finished[f.PlayerID] = true
	}
	before := len(g.finishers)
	anyCorrect := false

	for i := range g.roster.players {
		p := &g.roster.players[i]
		if finished[p.ID] {
			continue
		}
		qi, ok := g.assignments[p.ID]
		if !ok {
			continue
		}
		q := g.questions[qi]
		answer, answered := g.answers[p.ID]
		correct := q.IsCorrect(answer, answered)

		recorded := answer
		if !answered || answer == "" {
			recorded = domain.NoAnswer
		}
		g.history = append(g.history, domain.HistoryEntry{
			Round:         g.round,
			Question:      q.Prompt,
			PlayerID:      p.ID,
			PlayerName:    p.Name,
			Answer:        recorded,
			Correct:       correct,
			CorrectAnswer: q.Answer,
		})

		if !correct {
			g.results[p.ID] = domain.ResultWrong
			continue
		}
		anyCorrect = true
		g.results[p.ID] = domain.ResultCorrect
		p.Score += g.settings.Increment
		if p.Score >= g.settings.WinThreshold {
			g.finishers = append(g.finishers, domain.Finisher{PlayerID: p.ID, Score: p.Score})
			finished[p.ID] = true
		}
	}

	g.finishers = resolveFinisherRanks(g.finishers, g.roster.players)
	g.newlyFinished = len(g.finishers) > before
	g.answers = make(map[int]string)

	switch {
	case g.newlyFinished:
		g.cues.Play(domain.CueFinish)
	case anyCorrect:
		g.cues.Play(domain.CueCorrect)
	default:
		g.cues.Play(domain.CueWrong)
	}
	g.scheduleAdvanceLocked()
}

// scheduleAdvanceLocked arms the reveal delay. The callback carries the
// epoch and round it was armed for and is discarded if either moved on.
func (g *Game) scheduleAdvanceLocked() {
	g.cancelAdvanceLocked()
	epoch, round := g.epoch, g.round
	g.cancelAdvance = g.afterFunc(g.settings.RevealDelay, func() {
		g.advance(epoch, round)
	})
}

func (g *Game) advance(epoch, round int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed || g.epoch != epoch || g.round != round || g.phase != domain.PhaseReveal {
		return
	}
	g.cancelAdvance = nil
	if g.gameOverLocked() {
		g.phase = domain.PhaseWinner
		g.cues.Play(domain.CueWinner)
	} else {
		g.nextRoundLocked()
	}
	g.broadcastLocked()
}

func (g *Game) gameOverLocked() bool {
	allFinished := len(g.finishers) == len(g.roster.players)
	capped := g.settings.MaxRounds > 0 && g.round >= g.settings.MaxRounds
	if allFinished || capped {
		return true
	}
	return g.settings.FinishPolicy != FinishAll && g.newlyFinished
}
