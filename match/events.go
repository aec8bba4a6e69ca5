// events.go defines the fire-and-forget notification hooks the core emits
// toward presentation collaborators (audio, animation, HUD). Hooks carry
// no return value and have no effect on core state; every field is
// optional.

package match

import "github.com/brensch/duelsnake/game"

// Hooks is the outward notification surface of a match. All callbacks run
// synchronously on the engine's scheduling domain, so they must be quick
// and must not call back into the engine.
type Hooks struct {
	// HeadHit fires on any collision involving the snake's head,
	// including ones a shield later defuses.
	HeadHit func(game.SnakeID)

	// ShieldConsumed fires when a shield negates a fatal collision.
	ShieldConsumed func(game.SnakeID)

	// Death fires once when a snake dies.
	Death func(game.SnakeID)

	// Win fires once when a snake is declared winner.
	Win func(game.SnakeID)

	// Pickup fires when a snake collects an item or power-up.
	Pickup func(game.SnakeID, game.ItemKind)

	// GameOver fires exactly once, on the false-to-true transition of the
	// game-over flag. Late subscribers use the idempotent state query
	// instead.
	GameOver func()
}

func (h *Hooks) headHit(id game.SnakeID) {
	if h != nil && h.HeadHit != nil {
		h.HeadHit(id)
	}
}

func (h *Hooks) shieldConsumed(id game.SnakeID) {
	if h != nil && h.ShieldConsumed != nil {
		h.ShieldConsumed(id)
	}
}

func (h *Hooks) death(id game.SnakeID) {
	if h != nil && h.Death != nil {
		h.Death(id)
	}
}

func (h *Hooks) win(id game.SnakeID) {
	if h != nil && h.Win != nil {
		h.Win(id)
	}
}

func (h *Hooks) pickup(id game.SnakeID, kind game.ItemKind) {
	if h != nil && h.Pickup != nil {
		h.Pickup(id, kind)
	}
}

func (h *Hooks) gameOver() {
	if h != nil && h.GameOver != nil {
		h.GameOver()
	}
}
