// engine.go drives the whole simulation on a single sequential scheduling
// domain. Advance is fully deterministic for a given config, seed, and
// input sequence: snakes tick in fixed roster order, every timer runs on
// the engine's simulation clock, and all randomness comes from one
// injected rng.

package match

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/brensch/duelsnake/game"
	"github.com/brensch/duelsnake/snake"
	"github.com/brensch/duelsnake/spawn"
)

// removal is a cancellable deferred action freeing a dead snake's cells
// after the configured delay. Deadlines run on the simulation clock.
type removal struct {
	id        game.SnakeID
	due       time.Duration
	cancelled bool
}

// Engine owns one match: the grid, the roster, the spawner, and the
// controller. All mutation happens inside Advance.
type Engine struct {
	cfg     *game.Config
	grid    *game.Grid
	ctrl    *Controller
	spawner *spawn.Spawner
	hooks   *Hooks
	log     *slog.Logger

	snakes []*snake.Snake
	accums [game.MaxSnakes]time.Duration

	removals     []removal
	cellsRemoved [game.MaxSnakes]bool

	clock time.Duration
	tick  uint64

	snapshots chan *game.MatchSnapshot
}

// NewEngine builds and lays out a match. A start layout that places body
// cells outside a bounded grid is surfaced as an immediate fatal
// collision for that snake, not a silent clamp.
func NewEngine(cfg *game.Config, hooks *Hooks, logger *slog.Logger, seed int64) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	if hooks == nil {
		hooks = &Hooks{}
	}

	rng := rand.New(rand.NewSource(seed))
	grid := cfg.Grid()

	e := &Engine{
		cfg:       cfg,
		grid:      grid,
		hooks:     hooks,
		log:       logger,
		ctrl:      NewController(cfg, hooks, logger),
		spawner:   spawn.New(cfg, grid, rng, logger),
		snapshots: make(chan *game.MatchSnapshot, 1),
	}

	for i := 0; i < cfg.Players; i++ {
		id := game.SnakeID(i)
		body := layoutBody(grid, cfg.Starts[i])
		s := snake.New(id, body, cfg.Starts[i].Facing, grid, cfg.MoveInterval, cfg.SpeedMultiplier, cfg.TailHistory)
		e.snakes = append(e.snakes, s)
		e.ctrl.RegisterSnake(id)
	}

	// Invalid initial layout check, bounded grids only.
	if !cfg.Wrap {
		for _, s := range e.snakes {
			for _, p := range s.OccupiedCells() {
				if !grid.IsInside(p) {
					e.log.Warn("start layout outside bounds", "snake", int(s.ID()), "cell", p)
					e.hooks.headHit(s.ID())
					e.killSnake(s.ID())
					e.ctrl.SetLost(s.ID())
					break
				}
			}
		}
	}

	return e, nil
}

// layoutBody expands a start layout into head-first body cells, extending
// opposite the facing direction. Wrap normalization applies on toroidal
// grids; bounded grids keep raw coordinates for the layout check.
func layoutBody(grid *game.Grid, layout game.StartLayout) []game.Point {
	back := layout.Facing.Reverse().Delta()
	body := make([]game.Point, 0, layout.Length)
	cell := layout.Head
	for i := int32(0); i < layout.Length; i++ {
		body = append(body, grid.Normalize(cell))
		cell = cell.Add(back)
	}
	return body
}

// Controller exposes the authoritative match state for queries.
func (e *Engine) Controller() *Controller { return e.ctrl }

// Snake returns the live simulation object for input forwarding and
// read-only queries.
func (e *Engine) Snake(id game.SnakeID) *snake.Snake {
	if int(id) < 0 || int(id) >= len(e.snakes) {
		return nil
	}
	return e.snakes[id]
}

// RequestDirection forwards raw player input into a snake's buffer.
func (e *Engine) RequestDirection(id game.SnakeID, d game.Direction) {
	if s := e.Snake(id); s != nil {
		s.RequestDirection(d)
	}
}

// Snapshots is the engine's observer channel. One snapshot per advance;
// a slow consumer only ever misses intermediates, never blocks the
// simulation.
func (e *Engine) Snapshots() <-chan *game.MatchSnapshot { return e.snapshots }

// Advance moves the simulation forward by dt. Once the game is over it is
// a no-op: no body, score, or item mutation is observable afterwards.
func (e *Engine) Advance(dt time.Duration) {
	if e.ctrl.GameOver() {
		return
	}

	e.clock += dt

	// Due deferred actions first: free the cells of snakes whose removal
	// delay has elapsed.
	for i := range e.removals {
		r := &e.removals[i]
		if r.cancelled || e.clock < r.due {
			continue
		}
		r.cancelled = true
		e.cellsRemoved[r.id] = true
		e.ctrl.UnregisterSnake(r.id)
	}

	// Effect timers decay every advance, not just on movement ticks.
	for _, s := range e.snakes {
		if s.Alive() {
			s.UpdateEffects(dt)
		}
	}

	rep := e.spawner.Advance(dt, e.occupancy())
	if rep.FoodExhausted && e.cfg.Players == 1 {
		// Board full: no further play is possible, the sole snake wins.
		e.ctrl.SetWon(e.snakes[0].ID())
	}

	// Movement, fixed roster order. The live interval is re-read every
	// iteration because a speed boost can change it mid-advance.
	for i, s := range e.snakes {
		if !s.Alive() {
			continue
		}
		e.accums[i] += dt
		for s.Alive() && !e.ctrl.GameOver() && e.accums[i] >= s.MoveInterval() {
			e.accums[i] -= s.MoveInterval()
			e.stepSnake(s)
		}
	}

	e.tick++
	e.emitSnapshot()
}

// Run drives Advance from a wall-clock ticker until the context is
// cancelled or the game ends. frame is the advance granularity, not the
// movement interval; movement pacing comes from each snake's own timer.
func (e *Engine) Run(ctx context.Context, frame time.Duration) {
	ticker := time.NewTicker(frame)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			e.Advance(now.Sub(last))
			last = now
			if e.ctrl.GameOver() {
				return
			}
		}
	}
}

// stepSnake executes one movement tick for one snake.
func (e *Engine) stepSnake(s *snake.Snake) {
	dir := s.CommitDirection()
	if dir == game.DirNone {
		return // idle until the player inputs a direction
	}

	cand := s.CandidateHead()
	if e.grid.Wrap {
		cand = e.grid.WrapPoint(cand)
	} else if !e.grid.IsInside(cand) {
		// Out of bounds is the obstacle-fatal path: the move is cancelled
		// before death resolution, so the head never leaves the grid.
		e.resolveFatal(s)
		return
	}

	// Self-collision, current tail cell exempt because it vacates this
	// same tick.
	if s.ContainsCell(cand, true) {
		e.resolveFatal(s)
		return
	}

	// Cross-snake checks against every other live snake, roster order.
	for _, other := range e.snakes {
		if other == s || !other.Alive() {
			continue
		}
		if cand == other.Head() {
			e.resolveHeadToHead(s, other)
			return
		}
		if other.ContainsCell(cand, false) {
			// Ordinary fatal collision: the mover alone is struck.
			e.resolveFatal(s)
			return
		}
	}

	s.CommitMove(cand)
	e.checkPickups(s, cand)
}

// resolveFatal handles every single-snake fatal outcome (wall, self,
// body-of-other). The shield, if active, is consumed exactly once: it
// negates death, cancels the pending move, and resets the direction so
// the player must re-input.
func (e *Engine) resolveFatal(s *snake.Snake) {
	e.hooks.headHit(s.ID())

	if s.ConsumeShield() {
		s.CancelMove()
		e.ctrl.ClearHeadToHead()
		e.hooks.shieldConsumed(s.ID())
		return
	}

	e.killSnake(s.ID())
	e.ctrl.SetLost(s.ID())
}

// resolveHeadToHead delegates a simultaneous head-to-head event to the
// controller, whose resolution compares both snakes' shields and scores
// atomically. Detection when the mover's candidate lands on the other
// snake's head cell keeps the outcome identical whichever snake's tick
// runs first.
func (e *Engine) resolveHeadToHead(mover, other *snake.Snake) {
	e.ctrl.MarkHeadToHead()
	e.hooks.headHit(mover.ID())
	e.hooks.headHit(other.ID())

	for _, id := range e.ctrl.HandleHeadToHeadCollision(mover, other) {
		e.killSnake(id)
	}
}

// killSnake is terminal: stop the snake, notify, and schedule the
// deferred removal of its cells from occupancy.
func (e *Engine) killSnake(id game.SnakeID) {
	s := e.snakes[id]
	if !s.Alive() {
		return
	}
	s.Kill()
	e.hooks.death(id)
	e.removals = append(e.removals, removal{id: id, due: e.clock + e.cfg.DeathRemovalDelay})
	e.log.Info("snake died", "snake", int(id), "score", e.ctrl.Score(id))
}

// checkPickups applies item effects after the head lands on a cell.
func (e *Engine) checkPickups(s *snake.Snake, head game.Point) {
	item, ok := e.spawner.Collect(head)
	if !ok {
		return
	}
	e.hooks.pickup(s.ID(), item.Kind)

	switch item.Kind {
	case game.ItemFood:
		s.Grow(e.cfg.GrowPerFood)
		e.ctrl.AddScore(s.ID(), s.ScoreBoostActive())
	case game.ItemPoison:
		s.Shrink(e.cfg.ShrinkPerPoison)
		e.ctrl.DeductScore(s.ID())
	case game.ItemShield:
		s.ActivatePowerUp(item.Kind, e.cfg.Shield.Duration)
	case game.ItemScoreBoost:
		s.ActivatePowerUp(item.Kind, e.cfg.ScoreBoost.Duration)
	case game.ItemSpeedBoost:
		s.ActivatePowerUp(item.Kind, e.cfg.SpeedBoost.Duration)
	}
}

// occupancy builds the cell set the spawner must avoid: every snake's
// cells (dead ones included until their removal delay elapses). Live item
// cells are added by the spawner itself.
func (e *Engine) occupancy() map[game.Point]bool {
	occ := make(map[game.Point]bool, 64)
	for _, s := range e.snakes {
		if !s.Alive() && e.cellsRemoved[s.ID()] {
			continue
		}
		for _, p := range s.OccupiedCells() {
			occ[p] = true
		}
	}
	return occ
}

// Snapshot builds the current observer view.
func (e *Engine) Snapshot() *game.MatchSnapshot {
	snap := &game.MatchSnapshot{
		Tick:       e.tick,
		GameOver:   e.ctrl.GameOver(),
		HeadToHead: e.ctrl.HeadToHeadInProgress(),
	}
	for _, s := range e.snakes {
		snap.Snakes = append(snap.Snakes, game.SnakeSnapshot{
			ID:         s.ID(),
			Alive:      s.Alive(),
			Score:      e.ctrl.Score(s.ID()),
			Won:        e.ctrl.Won(s.ID()),
			Lost:       e.ctrl.Lost(s.ID()),
			Body:       s.OccupiedCells(),
			Shield:     s.ShieldActive(),
			ScoreBoost: s.ScoreBoostActive(),
			SpeedBoost: s.SpeedBoostActive(),
		})
	}
	for _, it := range e.spawner.Items() {
		snap.Items = append(snap.Items, game.ItemSnapshot{Kind: it.Kind, Cell: it.Cell})
	}
	return snap
}

func (e *Engine) emitSnapshot() {
	snap := e.Snapshot()
	// Latest wins: replace a stale snapshot rather than block.
	select {
	case e.snapshots <- snap:
	default:
		select {
		case <-e.snapshots:
		default:
		}
		select {
		case e.snapshots <- snap:
		default:
		}
	}
}

// Teardown cancels every pending deferred action and drops all live
// items. Safe to call more than once.
func (e *Engine) Teardown() {
	for i := range e.removals {
		e.removals[i].cancelled = true
	}
	e.spawner.Clear()
	e.ctrl.EndGame()
	for _, s := range e.snakes {
		e.ctrl.UnregisterSnake(s.ID())
	}
}
