package main

import (
	"strings"
	"testing"

	"github.com/brensch/duelsnake/game"
)

func TestRenderBoard(t *testing.T) {
	cfg := game.DefaultConfig()
	cfg.Width = 5
	cfg.Height = 3

	snap := &game.MatchSnapshot{
		Snakes: []game.SnakeSnapshot{
			{ID: 0, Alive: true, Body: []game.Point{{X: 1, Y: 0}, {X: 0, Y: 0}}},
			{ID: 1, Alive: false, Body: []game.Point{{X: 4, Y: 2}}},
		},
		Items: []game.ItemSnapshot{
			{Kind: game.ItemFood, Cell: game.Point{X: 2, Y: 1}},
		},
	}

	got := renderBoard(&cfg, snap)
	want := strings.Join([]string{
		"....+",
		"..*..",
		"aA...",
		"",
	}, "\n")
	if got != want {
		t.Errorf("board mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}
