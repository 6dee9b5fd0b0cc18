package app_test

import (
	"errors"
	"math/rand"
	"testing"

	"party-quiz-service/internal/app"
	"party-quiz-service/internal/domain"
)

func TestRosterAssignsMaxIDPlusOne(t *testing.T) {
	roster := app.NewRoster(10, rand.New(rand.NewSource(7)))
	p3, err := roster.Add()
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if p3.ID != 3 || p3.Name != "Player 3" || p3.Avatar == "" || p3.Color == "" {
		t.Fatalf("unexpected player %+v", p3)
	}
	if err := roster.Remove(1); err != nil {
		t.Fatalf("remove: %v", err)
	}
	p, _ := roster.Add()
	if p.ID != 4 {
		t.Fatalf("expected removed id 1 not to be reused, got %d", p.ID)
	}
}

func TestRosterKeepsAtLeastOnePlayer(t *testing.T) {
	roster := app.NewRoster(10, rand.New(rand.NewSource(7)))
	_ = roster.Remove(1)
	if err := roster.Remove(2); err != nil {
		t.Fatalf("removing the last player should be a no-op, got %v", err)
	}
	if roster.Len() != 1 {
		t.Fatalf("expected one player left, got %d", roster.Len())
	}
}

func TestRosterLimitAndEdits(t *testing.T) {
	roster := app.NewRoster(3, rand.New(rand.NewSource(7)))
	if _, err := roster.Add(); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := roster.Add(); !errors.Is(err, domain.ErrRosterFull) {
		t.Fatalf("expected full roster, got %v", err)
	}
	if err := roster.Update(2, app.PlayerPatch{Name: " Player 1 ", Color: "#FF6B6B"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	players := roster.Players()
	if players[1].Name != "Player 1" || players[1].Color != "#FF6B6B" || players[1].Avatar != "🦊" {
		t.Fatalf("duplicates should be allowed, got %+v", players[1])
	}
	if err := roster.Update(9, app.PlayerPatch{Name: "x"}); !errors.Is(err, domain.ErrPlayerNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRosterReorder(t *testing.T) {
	roster := app.NewRoster(10, rand.New(rand.NewSource(7)))
	if err := roster.Reorder([]int{1, 1}); !errors.Is(err, domain.ErrInvalidOrder) {
		t.Fatalf("expected invalid order, got %v", err)
	}
	if err := roster.Reorder([]int{2}); !errors.Is(err, domain.ErrInvalidOrder) {
		t.Fatalf("expected invalid order, got %v", err)
	}
	if err := roster.Reorder([]int{2, 1}); err != nil {
		t.Fatalf("reorder: %v", err)
	}
	if players := roster.Players(); players[0].ID != 2 || players[1].ID != 1 {
		t.Fatalf("unexpected order %+v", players)
	}
}
