// config.go defines the immutable configuration snapshot supplied to the
// engine at match start. The core consumes it and never mutates it.

package game

import (
	"fmt"
	"time"
)

// StartLayout places one snake at match start.
type StartLayout struct {
	Head   Point
	Facing Direction
	Length int32 // cells behind the head, opposite Facing
}

// PowerUpConfig tunes one power-up type. A type with Enabled false is
// simply never eligible to spawn; that is a degraded mode, not an error.
type PowerUpConfig struct {
	Enabled  bool
	Duration time.Duration // effect duration once collected
}

// Config is the full match configuration. Callers build one (usually from
// DefaultConfig), validate it, and hand it to the engine; after that it
// must be treated as frozen.
type Config struct {
	Width    int32
	Height   int32
	CellSize float64
	Wrap     bool

	Players int // 1 or 2
	Starts  [MaxSnakes]StartLayout

	// MoveInterval is the base time between movement ticks. A speed boost
	// rescales the live interval; the base is kept so expiry restores it
	// exactly.
	MoveInterval    time.Duration
	SpeedMultiplier float64

	WinScore        int32
	FoodScore       int32
	PoisonScore     int32 // deducted, clamped at 0
	GrowPerFood     int32
	ShrinkPerPoison int32

	FoodInterval   time.Duration
	PoisonInterval time.Duration
	FoodLifetime   time.Duration
	PoisonLifetime time.Duration

	PowerUpIntervalMin time.Duration
	PowerUpIntervalMax time.Duration
	PowerUpLifetime    time.Duration
	PowerUpCooldown    time.Duration
	Shield             PowerUpConfig
	ScoreBoost         PowerUpConfig
	SpeedBoost         PowerUpConfig

	// DeathRemovalDelay is how long a dead snake's cells stay in the
	// occupancy set, giving the presentation layer time to play out the
	// death before the cells free up.
	DeathRemovalDelay time.Duration

	TailHistory int // vacated-tail cells retained for growth placement
}

// DefaultConfig mirrors the original game's tuning.
func DefaultConfig() Config {
	return Config{
		Width:    20,
		Height:   20,
		CellSize: 1.0,
		Wrap:     true,

		Players: 1,
		Starts: [MaxSnakes]StartLayout{
			{Head: Point{X: 5, Y: 10}, Facing: DirRight, Length: 3},
			{Head: Point{X: 14, Y: 10}, Facing: DirLeft, Length: 3},
		},

		MoveInterval:    200 * time.Millisecond,
		SpeedMultiplier: 2.0,

		WinScore:        1000,
		FoodScore:       10,
		PoisonScore:     5,
		GrowPerFood:     1,
		ShrinkPerPoison: 1,

		FoodInterval:   2 * time.Second,
		PoisonInterval: 8 * time.Second,
		FoodLifetime:   15 * time.Second,
		PoisonLifetime: 12 * time.Second,

		PowerUpIntervalMin: 10 * time.Second,
		PowerUpIntervalMax: 25 * time.Second,
		PowerUpLifetime:    10 * time.Second,
		PowerUpCooldown:    20 * time.Second,
		Shield:             PowerUpConfig{Enabled: true, Duration: 8 * time.Second},
		ScoreBoost:         PowerUpConfig{Enabled: true, Duration: 10 * time.Second},
		SpeedBoost:         PowerUpConfig{Enabled: true, Duration: 6 * time.Second},

		DeathRemovalDelay: 1500 * time.Millisecond,

		TailHistory: 8,
	}
}

// Validate rejects configurations the engine cannot run. A start layout
// that would place body cells outside a bounded grid is deliberately NOT
// rejected here: it surfaces as an immediate fatal collision for that
// snake at match start instead of a silent clamp.
func (c *Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("grid dimensions must be positive, got %dx%d", c.Width, c.Height)
	}
	if c.CellSize <= 0 {
		return fmt.Errorf("cell size must be positive, got %v", c.CellSize)
	}
	if c.Players < 1 || c.Players > MaxSnakes {
		return fmt.Errorf("players must be 1..%d, got %d", MaxSnakes, c.Players)
	}
	if c.MoveInterval <= 0 {
		return fmt.Errorf("move interval must be positive, got %v", c.MoveInterval)
	}
	if c.SpeedMultiplier <= 0 {
		return fmt.Errorf("speed multiplier must be positive, got %v", c.SpeedMultiplier)
	}
	if c.FoodInterval <= 0 || c.PoisonInterval <= 0 {
		return fmt.Errorf("spawn intervals must be positive")
	}
	if c.PowerUpIntervalMin <= 0 || c.PowerUpIntervalMax < c.PowerUpIntervalMin {
		return fmt.Errorf("power-up interval range [%v,%v] invalid", c.PowerUpIntervalMin, c.PowerUpIntervalMax)
	}
	if c.TailHistory < 0 {
		return fmt.Errorf("tail history must be non-negative, got %d", c.TailHistory)
	}
	for i := 0; i < c.Players; i++ {
		if c.Starts[i].Length < 1 {
			return fmt.Errorf("snake %d start length must be >= 1, got %d", i, c.Starts[i].Length)
		}
		if c.Starts[i].Facing == DirNone {
			return fmt.Errorf("snake %d needs a starting direction", i)
		}
	}
	return nil
}

// Grid builds the grid described by the config.
func (c *Config) Grid() *Grid {
	return NewGrid(c.Width, c.Height, c.CellSize, c.Wrap)
}
