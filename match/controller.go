// Package match owns the authoritative cross-snake state of a game: per
// snake scores and won/lost flags, the shared head-to-head flag, the
// global game-over flag, and the fixed-tick engine that advances the
// simulation.
//
// The Controller is the single source of truth for every outcome that
// depends on more than one snake. Collision resolution that compares
// shields or scores runs here, atomically, never inside an individual
// snake's tick.
package match

import (
	"log/slog"

	"github.com/brensch/duelsnake/game"
)

// Combatant is the view of a snake the controller needs to resolve a
// collision: identity, shield state, and the ability to cancel the move
// a shield just defused.
type Combatant interface {
	ID() game.SnakeID
	ShieldActive() bool
	ConsumeShield() bool
	CancelMove()
}

// Controller holds authoritative match state. Per-snake state lives in
// fixed arrays indexed by game.SnakeID; snake identity never depends on
// pointer or map semantics.
type Controller struct {
	cfg   *game.Config
	log   *slog.Logger
	hooks *Hooks

	registered [game.MaxSnakes]bool
	scores     [game.MaxSnakes]int32
	won        [game.MaxSnakes]bool
	lost       [game.MaxSnakes]bool

	headToHead bool
	gameOver   bool
}

// NewController builds a controller for one match.
func NewController(cfg *game.Config, hooks *Hooks, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{cfg: cfg, hooks: hooks, log: logger}
}

// RegisterSnake adds a snake to the roster. Idempotent; registering
// initializes score to 0 and both flags to false.
func (c *Controller) RegisterSnake(id game.SnakeID) {
	if id < 0 || id >= game.MaxSnakes || c.registered[id] {
		return
	}
	c.registered[id] = true
	c.scores[id] = 0
	c.won[id] = false
	c.lost[id] = false
}

// UnregisterSnake removes a snake from the roster. Idempotent.
func (c *Controller) UnregisterSnake(id game.SnakeID) {
	if id < 0 || id >= game.MaxSnakes {
		return
	}
	c.registered[id] = false
}

// AddScore credits the fixed food reward, doubled while a score boost is
// active at the moment of pickup. Crossing the win threshold immediately
// declares the snake winner. No-op after game over.
func (c *Controller) AddScore(id game.SnakeID, boosted bool) {
	if c.gameOver || !c.registered[id] {
		return
	}
	reward := c.cfg.FoodScore
	if boosted {
		reward *= 2
	}
	c.scores[id] += reward
	if c.scores[id] >= c.cfg.WinScore {
		c.SetWon(id)
	}
}

// DeductScore subtracts the fixed poison penalty, floored at 0.
func (c *Controller) DeductScore(id game.SnakeID) {
	if c.gameOver || !c.registered[id] {
		return
	}
	c.scores[id] -= c.cfg.PoisonScore
	if c.scores[id] < 0 {
		c.scores[id] = 0
	}
}

// SetWon declares the snake winner. Idempotent. In two-player mode every
// other live snake is marked lost (unless already lost). Always ends the
// game.
func (c *Controller) SetWon(id game.SnakeID) {
	if c.gameOver || !c.registered[id] || c.won[id] {
		return
	}
	if c.lost[id] {
		// Won and lost are never simultaneously true.
		c.lost[id] = false
	}
	c.won[id] = true
	c.hooks.win(id)
	for other := game.SnakeID(0); other < game.MaxSnakes; other++ {
		if other == id || !c.registered[other] || c.lost[other] {
			continue
		}
		c.lost[other] = true
	}
	c.log.Info("snake won", "snake", int(id), "score", c.scores[id])
	c.EndGame()
}

// SetLost marks the snake as having lost. Idempotent. In two-player mode
// with the other snake still in play, the outcome for the survivor is
// decided here: the head-to-head score-comparison path takes priority
// over default-win-by-survival whenever the shared flag is set, however
// the two snakes' individual losses were ordered. Always ends the game.
func (c *Controller) SetLost(id game.SnakeID) {
	if c.gameOver || !c.registered[id] || c.lost[id] {
		return
	}
	c.lost[id] = true

	other, haveOther := c.otherInPlay(id)
	if haveOther {
		if c.headToHead {
			c.resolveByScore(id, other)
		} else {
			// Ordinary death: the survivor wins by default.
			c.SetWon(other)
			return
		}
	}
	c.EndGame()
}

// MarkHeadToHead raises the shared head-to-head flag. The flag is always
// cleared by whichever path resolves the collision; it is never left
// dangling across ticks.
func (c *Controller) MarkHeadToHead() {
	c.headToHead = true
}

// ClearHeadToHead lowers the shared flag (shield block path).
func (c *Controller) ClearHeadToHead() {
	c.headToHead = false
}

// HandleHeadToHeadCollision resolves a simultaneous head-to-head event
// between mover (the snake whose tick detected the collision) and other.
// It returns the snakes that died, for the engine to kill and clean up.
//
// Resolution order: both shielded, exactly one shielded, then strict
// score comparison with equal scores a mutual draw.
func (c *Controller) HandleHeadToHeadCollision(mover, other Combatant) (dead []game.SnakeID) {
	a, b := mover.ID(), other.ID()
	aShield, bShield := mover.ShieldActive(), other.ShieldActive()

	switch {
	case aShield && bShield:
		// No death. Both shields are spent; the mover's move is cancelled
		// so its head stays put.
		mover.ConsumeShield()
		other.ConsumeShield()
		mover.CancelMove()
		c.hooks.shieldConsumed(a)
		c.hooks.shieldConsumed(b)
		c.headToHead = false
		return nil

	case aShield:
		mover.ConsumeShield()
		mover.CancelMove()
		c.hooks.shieldConsumed(a)
		c.headToHead = false
		c.SetLost(b)
		return []game.SnakeID{b}

	case bShield:
		other.ConsumeShield()
		c.hooks.shieldConsumed(b)
		c.headToHead = false
		c.SetLost(a)
		return []game.SnakeID{a}

	default:
		switch {
		case c.scores[a] > c.scores[b]:
			c.lost[b] = true
			c.headToHead = false
			c.SetWon(a)
			return []game.SnakeID{b}
		case c.scores[b] > c.scores[a]:
			c.lost[a] = true
			c.headToHead = false
			c.SetWon(b)
			return []game.SnakeID{a}
		default:
			// Mutual draw: both lost, no winner declared.
			c.lost[a] = true
			c.lost[b] = true
			c.headToHead = false
			c.log.Info("head-to-head draw", "snake_a", int(a), "snake_b", int(b), "score", c.scores[a])
			c.EndGame()
			return []game.SnakeID{a, b}
		}
	}
}

// resolveByScore is the SetLost head-to-head branch: strictly higher
// score wins, including retracting the caller's own premature lost flag
// when it holds the higher score; equal scores are a mutual draw.
func (c *Controller) resolveByScore(id, other game.SnakeID) {
	defer func() { c.headToHead = false }()

	switch {
	case c.scores[other] > c.scores[id]:
		c.SetWon(other)
	case c.scores[id] > c.scores[other]:
		// This snake's lost flag was premature: retract and promote.
		c.lost[id] = false
		c.lost[other] = true
		c.SetWon(id)
	default:
		c.lost[other] = true
		c.log.Info("head-to-head draw", "snake_a", int(id), "snake_b", int(other), "score", c.scores[id])
	}
}

// EndGame sets the global game-over flag. Idempotent; once set it is
// never cleared, and the game-over notification fires exactly once on
// the transition.
func (c *Controller) EndGame() {
	if c.gameOver {
		return
	}
	c.gameOver = true
	c.log.Info("game over",
		"scores", []int32{c.scores[0], c.scores[1]},
		"won", []bool{c.won[0], c.won[1]},
		"lost", []bool{c.lost[0], c.lost[1]})
	c.hooks.gameOver()
}

// Score returns the snake's current score.
func (c *Controller) Score(id game.SnakeID) int32 { return c.scores[id] }

// Won reports whether the snake has been declared winner.
func (c *Controller) Won(id game.SnakeID) bool { return c.won[id] }

// Lost reports whether the snake has been marked as having lost.
func (c *Controller) Lost(id game.SnakeID) bool { return c.lost[id] }

// HeadToHeadInProgress reports whether an unresolved head-to-head event
// is pending.
func (c *Controller) HeadToHeadInProgress() bool { return c.headToHead }

// GameOver reports whether the match has ended.
func (c *Controller) GameOver() bool { return c.gameOver }

// otherInPlay returns the other registered, not-yet-lost snake in
// two-player mode.
func (c *Controller) otherInPlay(id game.SnakeID) (game.SnakeID, bool) {
	for other := game.SnakeID(0); other < game.MaxSnakes; other++ {
		if other == id || !c.registered[other] || c.lost[other] {
			continue
		}
		return other, true
	}
	return 0, false
}
