package spawn

import (
	"io"
	"log/slog"
	"math/rand"
	"testing"
	"time"

	"github.com/brensch/duelsnake/game"
)

func testSpawner(t *testing.T, mutate func(*game.Config)) (*Spawner, *game.Config) {
	t.Helper()
	cfg := game.DefaultConfig()
	cfg.Width = 5
	cfg.Height = 5
	cfg.FoodInterval = time.Second
	cfg.PoisonInterval = 3 * time.Second
	cfg.PowerUpIntervalMin = 2 * time.Second
	cfg.PowerUpIntervalMax = 2 * time.Second
	if mutate != nil {
		mutate(&cfg)
	}
	rng := rand.New(rand.NewSource(42))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(&cfg, cfg.Grid(), rng, logger), &cfg
}

func advance(s *Spawner, dt time.Duration) Report {
	return s.Advance(dt, map[game.Point]bool{})
}

func countKind(items []Item, k game.ItemKind) int {
	n := 0
	for _, it := range items {
		if it.Kind == k {
			n++
		}
	}
	return n
}

func TestFood_SingleSlot(t *testing.T) {
	s, _ := testSpawner(t, nil)

	advance(s, time.Second)
	if got := countKind(s.Items(), game.ItemFood); got != 1 {
		t.Fatalf("food on grid=%d want 1", got)
	}

	// Timer keeps firing but the slot is taken.
	advance(s, time.Second)
	advance(s, time.Second)
	if got := countKind(s.Items(), game.ItemFood); got != 1 {
		t.Fatalf("food on grid=%d want 1 after repeat timers", got)
	}
}

func TestFood_RespawnsAfterCollection(t *testing.T) {
	s, _ := testSpawner(t, nil)

	advance(s, time.Second)
	items := s.Items()
	if len(items) == 0 {
		t.Fatal("no item spawned")
	}
	if _, ok := s.Collect(items[0].Cell); !ok {
		t.Fatal("collect failed")
	}
	if countKind(s.Items(), game.ItemFood) != 0 {
		t.Fatal("food still live after collection")
	}

	advance(s, time.Second)
	if got := countKind(s.Items(), game.ItemFood); got != 1 {
		t.Fatalf("food on grid=%d want 1 after respawn", got)
	}
}

func TestExpiry_RemovesItem(t *testing.T) {
	s, cfg := testSpawner(t, func(c *game.Config) {
		// Long respawn interval so the expired slot stays empty for the
		// assertion below.
		c.FoodInterval = 10 * time.Second
		c.FoodLifetime = 2 * time.Second
	})

	advance(s, 10*time.Second) // spawn at t=10s, expires t=12s
	if countKind(s.Items(), game.ItemFood) != 1 {
		t.Fatal("food not spawned")
	}

	rep := advance(s, cfg.FoodLifetime)
	if len(rep.Expired) != 1 || rep.Expired[0] != game.ItemFood {
		t.Fatalf("expired=%v want [food]", rep.Expired)
	}
	if countKind(s.Items(), game.ItemFood) != 0 {
		t.Fatal("expired food still on grid")
	}
}

func TestCollection_CancelsExpiry(t *testing.T) {
	s, cfg := testSpawner(t, func(c *game.Config) {
		c.FoodLifetime = 2 * time.Second
	})

	advance(s, time.Second)
	items := s.Items()
	s.Collect(items[0].Cell)

	// Long past the would-be deadline: nothing to expire.
	rep := advance(s, cfg.FoodLifetime*3)
	for _, k := range rep.Expired {
		if k == game.ItemFood {
			t.Fatal("collected food reported as expired")
		}
	}
}

func TestPowerUp_CooldownGatesEligibility(t *testing.T) {
	s, cfg := testSpawner(t, func(c *game.Config) {
		// Only one type enabled so the choice is forced.
		c.Shield = game.PowerUpConfig{Enabled: true, Duration: time.Second}
		c.ScoreBoost = game.PowerUpConfig{Enabled: false}
		c.SpeedBoost = game.PowerUpConfig{Enabled: false}
		c.PowerUpCooldown = 10 * time.Second
		c.PowerUpLifetime = 0 // no expiry
	})

	advance(s, 2*time.Second)
	if countKind(s.Items(), game.ItemShield) != 1 {
		t.Fatal("shield not spawned")
	}

	items := s.Items()
	for _, it := range items {
		if it.Kind == game.ItemShield {
			s.Collect(it.Cell)
		}
	}

	// Next attempts fall inside the cooldown window: skipped.
	advance(s, 2*time.Second)
	advance(s, 2*time.Second)
	if countKind(s.Items(), game.ItemShield) != 0 {
		t.Fatal("shield respawned during cooldown")
	}

	// Past the cooldown, eligibility returns.
	advance(s, 10*time.Second)
	if countKind(s.Items(), game.ItemShield) != 1 {
		t.Fatalf("shield not respawned after cooldown; cooldown=%v", cfg.PowerUpCooldown)
	}
}

func TestPowerUp_DisabledTypeNeverSpawns(t *testing.T) {
	s, _ := testSpawner(t, func(c *game.Config) {
		c.Shield = game.PowerUpConfig{Enabled: false}
		c.ScoreBoost = game.PowerUpConfig{Enabled: false}
		c.SpeedBoost = game.PowerUpConfig{Enabled: false}
	})

	for i := 0; i < 20; i++ {
		advance(s, 2*time.Second)
	}
	for _, it := range s.Items() {
		if isPowerUp(it.Kind) {
			t.Fatalf("disabled power-up spawned: %v", it.Kind)
		}
	}
}

func TestCapacityExhaustion_ReportsFood(t *testing.T) {
	s, cfg := testSpawner(t, nil)

	// Board completely occupied.
	occupied := map[game.Point]bool{}
	for y := int32(0); y < cfg.Height; y++ {
		for x := int32(0); x < cfg.Width; x++ {
			occupied[game.Point{X: x, Y: y}] = true
		}
	}

	rep := s.Advance(cfg.FoodInterval, occupied)
	if !rep.FoodExhausted {
		t.Fatal("full board did not report food exhaustion")
	}
	if len(rep.Spawned) != 0 {
		t.Fatalf("spawned %v on a full board", rep.Spawned)
	}
}

func TestDeterministicUnderSeed(t *testing.T) {
	run := func() []Item {
		cfg := game.DefaultConfig()
		cfg.Width = 8
		cfg.Height = 8
		rng := rand.New(rand.NewSource(7))
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		s := New(&cfg, cfg.Grid(), rng, logger)
		for i := 0; i < 50; i++ {
			s.Advance(500*time.Millisecond, map[game.Point]bool{})
		}
		return s.Items()
	}

	a, b := run(), run()
	if len(a) != len(b) {
		t.Fatalf("item counts diverged: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("item %d diverged: %+v vs %+v", i, a[i], b[i])
		}
	}
}
