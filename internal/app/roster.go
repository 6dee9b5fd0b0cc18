package app

import (
	"fmt"
	"math/rand"
	"strings"

	"party-quiz-service/internal/domain"
)

var avatars = []string{"🦁", "🦊", "🐼", "🐸", "🐯", "🐨", "🦄", "🐲", "🤖", "👽", "👻", "🤡", "💀", "💩", "🐔"}

var colors = []string{"#FF6B6B", "#4ECDC4", "#FFE66D", "#1A535C", "#FF9F1C", "#2EC4B6", "#E71D36", "#7209B7"}

// Roster is the editable player list used before a game starts.
type Roster struct {
	players []domain.Player
	max     int
	rnd     *rand.Rand
}

// NewRoster starts with the two default players.
func NewRoster(max int, rnd *rand.Rand) *Roster {
	return &Roster{
		players: []domain.Player{
			{ID: 1, Name: "Player 1", Avatar: "🦁", Color: "#FF6B6B"},
			{ID: 2, Name: "Player 2", Avatar: "🦊", Color: "#4ECDC4"},
		},
		max: max,
		rnd: rnd,
	}
}

// Add appends a player with the next id and a random avatar and color.
// Ids are never reused after removal.
func (r *Roster) Add() (domain.Player, error) {
	if r.max > 0 && len(r.players) >= r.max {
		return domain.Player{}, domain.ErrRosterFull
	}
	id := 1
	for _, p := range r.players {
		if p.ID >= id {
			id = p.ID + 1
		}
	}
	p := domain.Player{
		ID:     id,
		Name:   fmt.Sprintf("Player %d", id),
		Avatar: avatars[r.rnd.Intn(len(avatars))],
		Color:  colors[r.rnd.Intn(len(colors))],
	}
	r.players = append(r.players, p)
	return p, nil
}

// Remove drops a player. Removing the last player is a no-op.
func (r *Roster) Remove(id int) error {
	if len(r.players) <= 1 {
		return nil
	}
	for i, p := range r.players {
		if p.ID == id {
			r.players = append(r.players[:i], r.players[i+1:]...)
			return nil
		}
	}
	return domain.ErrPlayerNotFound
}

// PlayerPatch carries optional profile edits; empty fields are left alone.
type PlayerPatch struct {
	Name   string `json:"name,omitempty"`
	Avatar string `json:"avatar,omitempty"`
	Color  string `json:"color,omitempty"`
}

// Update applies a profile edit. Duplicate names and colors are allowed.
func (r *Roster) Update(id int, patch PlayerPatch) error {
	i := r.index(id)
	if i < 0 {
		return domain.ErrPlayerNotFound
	}
	if name := strings.TrimSpace(patch.Name); name != "" {
		r.players[i].Name = name
	}
	if patch.Avatar != "" {
		r.players[i].Avatar = patch.Avatar
	}
	if patch.Color != "" {
		r.players[i].Color = patch.Color
	}
	return nil
}

// Reorder rearranges the roster; order must list every id exactly once.
func (r *Roster) Reorder(order []int) error {
	if len(order) != len(r.players) {
		return domain.ErrInvalidOrder
	}
	next := make([]domain.Player, 0, len(order))
	seen := make(map[int]bool, len(order))
	for _, id := range order {
		i := r.index(id)
		if i < 0 || seen[id] {
			return domain.ErrInvalidOrder
		}
		seen[id] = true
		next = append(next, r.players[i])
	}
	r.players = next
	return nil
}

// Players returns a copy of the roster.
func (r *Roster) Players() []domain.Player {
	return append([]domain.Player(nil), r.players...)
}

func (r *Roster) Len() int { return len(r.players) }

func (r *Roster) index(id int) int {
	for i, p := range r.players {
		if p.ID == id {
			return i
		}
	}
	return -1
}
