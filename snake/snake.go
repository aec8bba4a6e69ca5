// Package snake implements the per-snake simulation state: the ordered
// body cell list, buffered direction input, tail history for growth
// placement, and timed power-up effects.
//
// A Snake never decides collision outcomes on its own. The match engine
// asks it for a candidate head, resolves the outcome against global state,
// and then tells the snake to commit, cancel, or die.
package snake

import (
	"time"

	"github.com/brensch/duelsnake/game"
)

// State is the per-snake lifecycle: Moving while playing, Idle while
// waiting for input after a shield save, Dead terminally.
type State int

const (
	StateIdle State = iota
	StateMoving
	StateDead
)

// Snake owns one snake's simulation state.
type Snake struct {
	id    game.SnakeID
	state State
	grid  *game.Grid

	body []game.Point // head first, length >= 1

	dir         game.Direction // committed, applied this tick
	buffered    game.Direction // requested, applied next tick
	hasBuffered bool

	// Recently vacated tail cells, most recent first, bounded. Growth
	// re-places segments along the path the tail actually traced.
	tailHistory []game.Point
	historyCap  int

	// pendingGrowth absorbs tail pops for growth that could not be placed
	// from history immediately.
	pendingGrowth int32

	baseInterval time.Duration
	liveInterval time.Duration
	speedFactor  float64

	shieldLeft     time.Duration
	scoreBoostLeft time.Duration
	speedBoostLeft time.Duration
}

// New builds a snake from an already-laid-out body (head first). The
// engine is responsible for placing the body on the grid, including wrap
// normalization; body cells outside a bounded grid are the engine's
// problem to detect at match start.
//
// The facing direction is committed immediately so the snake moves on
// its first tick and a reverse request issued before that tick is
// filtered like any other.
func New(id game.SnakeID, body []game.Point, facing game.Direction, grid *game.Grid, baseInterval time.Duration, speedFactor float64, historyCap int) *Snake {
	b := make([]game.Point, len(body))
	copy(b, body)
	state := StateIdle
	if facing != game.DirNone {
		state = StateMoving
	}
	return &Snake{
		id:           id,
		state:        state,
		grid:         grid,
		body:         b,
		dir:          facing,
		historyCap:   historyCap,
		baseInterval: baseInterval,
		liveInterval: baseInterval,
		speedFactor:  speedFactor,
	}
}

// ID returns the snake's stable identifier.
func (s *Snake) ID() game.SnakeID { return s.id }

// State returns the lifecycle state.
func (s *Snake) State() State { return s.state }

// Alive reports whether the snake is still playing.
func (s *Snake) Alive() bool { return s.state != StateDead }

// Head returns the current head cell.
func (s *Snake) Head() game.Point { return s.body[0] }

// Tail returns the current tail cell.
func (s *Snake) Tail() game.Point { return s.body[len(s.body)-1] }

// Dir returns the committed direction.
func (s *Snake) Dir() game.Direction { return s.dir }

// Len returns the body length.
func (s *Snake) Len() int { return len(s.body) }

// OccupiedCells returns a copy of the body, head first.
func (s *Snake) OccupiedCells() []game.Point {
	out := make([]game.Point, len(s.body))
	copy(out, s.body)
	return out
}

// RequestDirection buffers a direction for the next movement tick.
// Latest valid request wins; at most one is held. A request that exactly
// reverses the committed direction is dropped, not queued, which is what
// prevents the classic instant-reversal self-kill.
func (s *Snake) RequestDirection(d game.Direction) {
	if s.state == StateDead || d == game.DirNone {
		return
	}
	if s.dir != game.DirNone && d == s.dir.Reverse() {
		return
	}
	s.buffered = d
	s.hasBuffered = true
}

// CommitDirection applies the buffered direction at a tick boundary and
// returns the direction for this tick. The reverse check runs again here:
// the buffered slot may predate the current committed direction.
func (s *Snake) CommitDirection() game.Direction {
	if s.state == StateDead {
		return game.DirNone
	}
	if s.hasBuffered {
		d := s.buffered
		s.hasBuffered = false
		if d != s.dir && (s.dir == game.DirNone || d != s.dir.Reverse()) {
			s.dir = d
			if s.state == StateIdle {
				s.state = StateMoving
			}
		}
	}
	return s.dir
}

// CandidateHead returns the raw next head cell for the committed
// direction. The engine normalizes (wrap) or boundary-tests it.
func (s *Snake) CandidateHead() game.Point {
	return s.body[0].Add(s.dir.Delta())
}

// CommitMove pushes the new head onto the body and pops the tail unless a
// pending growth absorbs it. A popped tail cell is recorded in the tail
// history.
func (s *Snake) CommitMove(newHead game.Point) {
	s.body = append([]game.Point{newHead}, s.body...)
	if s.pendingGrowth > 0 {
		s.pendingGrowth--
		return
	}
	tail := s.body[len(s.body)-1]
	s.body = s.body[:len(s.body)-1]
	s.recordVacated(tail)
}

// CancelMove is the shield-save path: the head stays where it was and the
// direction resets so the player must re-input before moving again.
func (s *Snake) CancelMove() {
	s.dir = game.DirNone
	s.buffered = game.DirNone
	s.hasBuffered = false
	if s.state == StateMoving {
		s.state = StateIdle
	}
}

// Kill is terminal. A dead snake ignores input and never moves again.
func (s *Snake) Kill() {
	s.state = StateDead
	s.buffered = game.DirNone
	s.hasBuffered = false
}

// Grow appends up to n segments at the most recently vacated tail cells,
// oldest-vacated last, so new segments trace the path the tail took.
// Growth beyond the retained history extrapolates straight behind the
// current tail. Returns how many segments were placed.
func (s *Snake) Grow(n int32) int32 {
	if s.state == StateDead || n <= 0 {
		return 0
	}

	var placed int32
	for placed < n && len(s.tailHistory) > 0 {
		cell := s.tailHistory[0]
		s.tailHistory = s.tailHistory[1:]
		s.body = append(s.body, cell)
		placed++
	}

	// Extrapolate behind the tail when history runs dry.
	for placed < n {
		step := s.tailStep()
		if step == (game.Point{}) {
			// Length-1 snake with no heading yet: absorb via the next
			// tail pop instead of inventing a cell.
			s.pendingGrowth += n - placed
			return placed
		}
		cell := s.grid.Normalize(s.Tail().Add(step))
		if !s.grid.Wrap && !s.grid.IsInside(cell) {
			// The straight line behind the tail runs into the wall:
			// defer the rest to tail pops.
			s.pendingGrowth += n - placed
			return placed
		}
		s.body = append(s.body, cell)
		placed++
	}
	return placed
}

// Shrink removes up to n segments from the tail, never reducing length
// below 1. Vacated cells go back into the tail history. Returns how many
// segments were removed.
func (s *Snake) Shrink(n int32) int32 {
	if n <= 0 {
		return 0
	}
	var removed int32
	for removed < n && len(s.body) > 1 {
		tail := s.body[len(s.body)-1]
		s.body = s.body[:len(s.body)-1]
		s.recordVacated(tail)
		removed++
	}
	return removed
}

// ContainsCell reports whether p is one of the snake's cells. With
// excludeTail set the current tail cell is exempt: it is vacated on the
// very tick being tested, so moving into it is legal.
func (s *Snake) ContainsCell(p game.Point, excludeTail bool) bool {
	end := len(s.body)
	if excludeTail && end > 1 && s.pendingGrowth == 0 {
		end--
	}
	for i := 0; i < end; i++ {
		if s.body[i] == p {
			return true
		}
	}
	return false
}

// ActivatePowerUp starts (or refreshes) a timed effect.
func (s *Snake) ActivatePowerUp(kind game.ItemKind, duration time.Duration) {
	if s.state == StateDead {
		return
	}
	switch kind {
	case game.ItemShield:
		s.shieldLeft = duration
	case game.ItemScoreBoost:
		s.scoreBoostLeft = duration
	case game.ItemSpeedBoost:
		s.speedBoostLeft = duration
		s.liveInterval = time.Duration(float64(s.baseInterval) / s.speedFactor)
	}
}

// UpdateEffects decrements all active effect timers by elapsed time. It
// runs every engine advance, not only on movement ticks. Speed boost
// expiry restores the stored base interval exactly.
func (s *Snake) UpdateEffects(dt time.Duration) {
	if s.shieldLeft > 0 {
		s.shieldLeft -= dt
		if s.shieldLeft < 0 {
			s.shieldLeft = 0
		}
	}
	if s.scoreBoostLeft > 0 {
		s.scoreBoostLeft -= dt
		if s.scoreBoostLeft < 0 {
			s.scoreBoostLeft = 0
		}
	}
	if s.speedBoostLeft > 0 {
		s.speedBoostLeft -= dt
		if s.speedBoostLeft <= 0 {
			s.speedBoostLeft = 0
			s.liveInterval = s.baseInterval
		}
	}
}

// ConsumeShield spends an active shield. It returns true exactly once per
// activation: the effect ends the moment it saves the snake.
func (s *Snake) ConsumeShield() bool {
	if s.shieldLeft <= 0 {
		return false
	}
	s.shieldLeft = 0
	return true
}

// ShieldActive reports whether a shield is currently held.
func (s *Snake) ShieldActive() bool { return s.shieldLeft > 0 }

// ScoreBoostActive reports whether pickups score double right now.
func (s *Snake) ScoreBoostActive() bool { return s.scoreBoostLeft > 0 }

// SpeedBoostActive reports whether the movement interval is boosted.
func (s *Snake) SpeedBoostActive() bool { return s.speedBoostLeft > 0 }

// MoveInterval returns the live interval between movement ticks.
func (s *Snake) MoveInterval() time.Duration { return s.liveInterval }

func (s *Snake) recordVacated(cell game.Point) {
	s.tailHistory = append([]game.Point{cell}, s.tailHistory...)
	if len(s.tailHistory) > s.historyCap {
		s.tailHistory = s.tailHistory[:s.historyCap]
	}
}

// tailStep is the direction from the second-to-last segment to the tail,
// used to extrapolate growth past the retained history. On a toroidal
// grid the raw difference across the wrap seam is +-(extent-1), so each
// axis is reduced to the shortest wrapped delta.
func (s *Snake) tailStep() game.Point {
	if len(s.body) < 2 {
		return s.dir.Reverse().Delta()
	}
	prev := s.body[len(s.body)-2]
	tail := s.body[len(s.body)-1]
	d := game.Point{X: tail.X - prev.X, Y: tail.Y - prev.Y}
	if s.grid.Wrap {
		d.X = wrapStep(d.X, s.grid.Width)
		d.Y = wrapStep(d.Y, s.grid.Height)
	}
	return d
}

// wrapStep reduces a coordinate delta to its shortest equivalent on a
// ring of n cells: 9 on a 10-wide grid is really -1.
func wrapStep(d, n int32) int32 {
	m := ((d % n) + n) % n
	if m > n/2 {
		m -= n
	}
	return m
}
