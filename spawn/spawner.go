// Package spawn implements the timer-driven item and power-up spawner.
//
// Each item class runs a small lifecycle: Empty -> OnGrid -> (Collected |
// Expired) -> Empty, with power-up types additionally gated by a cooldown
// after collection. Food and poison hold at most one instance each; the
// power-up classes share one spawn timer whose interval is re-drawn from a
// configured range after every attempt.
//
// The spawner runs on the engine's simulation clock: all deadlines are
// evaluated inside Advance, never by wall-clock callbacks, so collection
// and expiry are trivially mutually exclusive and a seeded rng makes every
// spawn decision reproducible.
package spawn

import (
	"log/slog"
	"math/rand"
	"time"

	"github.com/brensch/duelsnake/game"
)

// Item is one live instance on the grid.
type Item struct {
	Kind      game.ItemKind
	Cell      game.Point
	ExpiresAt time.Duration // simulation-clock deadline, 0 = no expiry
}

// Report summarizes what one Advance changed. The engine reads
// FoodExhausted to trigger the board-full win in single-player mode.
type Report struct {
	Spawned       []game.ItemKind
	Expired       []game.ItemKind
	FoodExhausted bool
}

// Spawner owns item lifecycle state for one match.
type Spawner struct {
	cfg  *game.Config
	grid *game.Grid
	rng  *rand.Rand
	log  *slog.Logger

	now   time.Duration
	items []Item

	foodTimer   time.Duration
	poisonTimer time.Duration
	powerTimer  time.Duration

	cooldownUntil map[game.ItemKind]time.Duration
}

// New builds a spawner. The rng drives both cell and type selection;
// inject a seeded source for deterministic matches.
func New(cfg *game.Config, grid *game.Grid, rng *rand.Rand, logger *slog.Logger) *Spawner {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Spawner{
		cfg:           cfg,
		grid:          grid,
		rng:           rng,
		log:           logger,
		foodTimer:     cfg.FoodInterval,
		poisonTimer:   cfg.PoisonInterval,
		cooldownUntil: make(map[game.ItemKind]time.Duration),
	}
	s.powerTimer = s.drawPowerInterval()
	return s
}

// Items returns the live instances, in spawn order.
func (s *Spawner) Items() []Item {
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

// ItemAt returns the live item occupying p, if any.
func (s *Spawner) ItemAt(p game.Point) (Item, bool) {
	for _, it := range s.items {
		if it.Cell == p {
			return it, true
		}
	}
	return Item{}, false
}

// Collect removes the item at p and starts the cooldown for power-up
// types. Returns the collected item. Collection wins over expiry by
// construction: an item removed here can no longer expire.
func (s *Spawner) Collect(p game.Point) (Item, bool) {
	for i, it := range s.items {
		if it.Cell != p {
			continue
		}
		s.items = append(s.items[:i], s.items[i+1:]...)
		if isPowerUp(it.Kind) {
			s.cooldownUntil[it.Kind] = s.now + s.cfg.PowerUpCooldown
		}
		return it, true
	}
	return Item{}, false
}

// Clear drops every live instance. Used at match teardown.
func (s *Spawner) Clear() {
	s.items = s.items[:0]
}

// Advance moves the simulation clock forward, expires overdue items, and
// fires any due spawn timers. occupied is the engine's occupancy set for
// this advance (all snake cells); the spawner adds its own live item
// cells before querying free cells and records newly spawned cells into
// it.
func (s *Spawner) Advance(dt time.Duration, occupied map[game.Point]bool) Report {
	s.now += dt
	var rep Report

	// Expiry first: an instance overdue at the start of this advance was
	// never collectable during it.
	kept := s.items[:0]
	for _, it := range s.items {
		if it.ExpiresAt > 0 && s.now >= it.ExpiresAt {
			rep.Expired = append(rep.Expired, it.Kind)
			continue
		}
		kept = append(kept, it)
	}
	s.items = kept

	for _, it := range s.items {
		occupied[it.Cell] = true
	}

	s.foodTimer -= dt
	if s.foodTimer <= 0 {
		s.foodTimer += s.cfg.FoodInterval
		if !s.hasKind(game.ItemFood) {
			if cell, ok := s.pickFreeCell(occupied); ok {
				s.place(game.ItemFood, cell, s.cfg.FoodLifetime, occupied)
				rep.Spawned = append(rep.Spawned, game.ItemFood)
			} else {
				s.log.Warn("food spawn skipped, no free cell", "tick_clock", s.now)
				rep.FoodExhausted = true
			}
		}
	}

	s.poisonTimer -= dt
	if s.poisonTimer <= 0 {
		s.poisonTimer += s.cfg.PoisonInterval
		if !s.hasKind(game.ItemPoison) {
			if cell, ok := s.pickFreeCell(occupied); ok {
				s.place(game.ItemPoison, cell, s.cfg.PoisonLifetime, occupied)
				rep.Spawned = append(rep.Spawned, game.ItemPoison)
			} else {
				s.log.Warn("poison spawn skipped, no free cell", "tick_clock", s.now)
			}
		}
	}

	s.powerTimer -= dt
	if s.powerTimer <= 0 {
		// Interval re-drawn after every attempt, successful or not.
		s.powerTimer += s.drawPowerInterval()

		eligible := s.eligiblePowerUps()
		if len(eligible) > 0 {
			kind := eligible[s.rng.Intn(len(eligible))]
			if cell, ok := s.pickFreeCell(occupied); ok {
				s.place(kind, cell, s.cfg.PowerUpLifetime, occupied)
				rep.Spawned = append(rep.Spawned, kind)
			} else {
				s.log.Warn("power-up spawn skipped, no free cell", "kind", kind.String(), "tick_clock", s.now)
			}
		}
	}

	return rep
}

// eligiblePowerUps builds the candidate set for one spawn attempt: type
// enabled, no live instance, cooldown elapsed. Stable order keeps the rng
// draw deterministic.
func (s *Spawner) eligiblePowerUps() []game.ItemKind {
	kinds := []game.ItemKind{game.ItemShield, game.ItemScoreBoost, game.ItemSpeedBoost}
	eligible := make([]game.ItemKind, 0, len(kinds))
	for _, k := range kinds {
		if !s.powerUpEnabled(k) {
			continue
		}
		if s.hasKind(k) {
			continue
		}
		if s.now < s.cooldownUntil[k] {
			continue
		}
		eligible = append(eligible, k)
	}
	return eligible
}

func (s *Spawner) powerUpEnabled(k game.ItemKind) bool {
	switch k {
	case game.ItemShield:
		return s.cfg.Shield.Enabled
	case game.ItemScoreBoost:
		return s.cfg.ScoreBoost.Enabled
	case game.ItemSpeedBoost:
		return s.cfg.SpeedBoost.Enabled
	}
	return false
}

func (s *Spawner) hasKind(k game.ItemKind) bool {
	for _, it := range s.items {
		if it.Kind == k {
			return true
		}
	}
	return false
}

func (s *Spawner) pickFreeCell(occupied map[game.Point]bool) (game.Point, bool) {
	free := s.grid.FreeCells(occupied)
	if len(free) == 0 {
		return game.Point{}, false
	}
	return free[s.rng.Intn(len(free))], true
}

func (s *Spawner) place(kind game.ItemKind, cell game.Point, lifetime time.Duration, occupied map[game.Point]bool) {
	var deadline time.Duration
	if lifetime > 0 {
		deadline = s.now + lifetime
	}
	s.items = append(s.items, Item{Kind: kind, Cell: cell, ExpiresAt: deadline})
	occupied[cell] = true
}

func (s *Spawner) drawPowerInterval() time.Duration {
	min, max := s.cfg.PowerUpIntervalMin, s.cfg.PowerUpIntervalMax
	if max <= min {
		return min
	}
	return min + time.Duration(s.rng.Int63n(int64(max-min)))
}

func isPowerUp(k game.ItemKind) bool {
	return k == game.ItemShield || k == game.ItemScoreBoost || k == game.ItemSpeedBoost
}
