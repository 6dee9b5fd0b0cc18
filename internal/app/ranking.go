package app

import (
	"sort"

	"party-quiz-service/internal/domain"
)

// resolveFinisherRanks assigns ranks to finishers still holding the zero
// placeholder and renumbers the whole list 1..K.
//
// A new finisher is placed after every finisher ranked in an earlier round
// and ahead of every active player it already outscores. The stable sort
// keeps append order for finishers that tie on score and provisional rank.
func resolveFinisherRanks(finishers []domain.Finisher, players []domain.Player) []domain.Finisher {
	if len(finishers) == 0 {
		return finishers
	}

	finished := make(map[int]bool, len(finishers))
	ranked := 0
	for _, f := range finishers {
		finished[f.PlayerID] = true
		if f.Rank != 0 {
			ranked++
		}
	}

	out := append([]domain.Finisher(nil), finishers...)
	for i := range out {
		if out[i].Rank != 0 {
			continue
		}
		below := 0
		for _, p := range players {
			if !finished[p.ID] && p.Score < out[i].Score {
				below++
			}
		}
		out[i].Rank = ranked + below + 1
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Rank < out[j].Rank
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// Leaderboard projects finishers by rank followed by active players by
// score, ranks continuing. It does not modify its inputs.
func Leaderboard(players []domain.Player, finishers []domain.Finisher) []domain.LeaderboardEntry {
	byID := make(map[int]domain.Player, len(players))
	for _, p := range players {
		byID[p.ID] = p
	}

	ordered := append([]domain.Finisher(nil), finishers...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Rank < ordered[j].Rank })

	entries := make([]domain.LeaderboardEntry, 0, len(players))
	finished := make(map[int]bool, len(ordered))
	for _, f := range ordered {
		p, ok := byID[f.PlayerID]
		if !ok {
			continue
		}
		finished[f.PlayerID] = true
		entries = append(entries, domain.LeaderboardEntry{Rank: len(entries) + 1, Player: p, Status: domain.StandingFinished})
	}

	active := make([]domain.Player, 0, len(players))
	for _, p := range players {
		if !finished[p.ID] {
			active = append(active, p)
		}
	}
	sort.SliceStable(active, func(i, j int) bool { return active[i].Score > active[j].Score })
	for _, p := range active {
		entries = append(entries, domain.LeaderboardEntry{Rank: len(entries) + 1, Player: p, Status: domain.StandingActive})
	}
	return entries
}
