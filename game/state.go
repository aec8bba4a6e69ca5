// Package game defines the core value types shared by the simulation:
// board coordinates, directions, snake identity, the grid itself, and the
// read-only snapshots handed to observers.
//
// Everything in this package is plain data with pure functions over it.
// The snapshot types are designed to be cheaply clonable so the engine can
// hand them to presentation code without exposing live state.
package game

// Point is a board coordinate.
// (0,0) is the bottom-left cell; Y grows upward.
type Point struct {
	X int32
	Y int32
}

// Add returns p shifted by d.
func (p Point) Add(d Point) Point {
	return Point{X: p.X + d.X, Y: p.Y + d.Y}
}

// Direction is a movement heading. DirNone means "not moving yet":
// a freshly created snake holds DirNone until the first input arrives,
// and a shield save resets the heading back to DirNone.
type Direction int

const (
	DirNone Direction = iota
	DirUp
	DirDown
	DirLeft
	DirRight
)

// Delta returns the unit cell offset for the direction.
func (d Direction) Delta() Point {
	switch d {
	case DirUp:
		return Point{X: 0, Y: 1}
	case DirDown:
		return Point{X: 0, Y: -1}
	case DirLeft:
		return Point{X: -1, Y: 0}
	case DirRight:
		return Point{X: 1, Y: 0}
	}
	return Point{}
}

// Reverse returns the opposite heading. DirNone reverses to itself.
func (d Direction) Reverse() Direction {
	switch d {
	case DirUp:
		return DirDown
	case DirDown:
		return DirUp
	case DirLeft:
		return DirRight
	case DirRight:
		return DirLeft
	}
	return DirNone
}

func (d Direction) String() string {
	switch d {
	case DirUp:
		return "up"
	case DirDown:
		return "down"
	case DirLeft:
		return "left"
	case DirRight:
		return "right"
	}
	return "none"
}

// SnakeID is a stable small integer identifying a snake for the whole
// match. Controller state is stored in fixed arrays indexed by SnakeID,
// so identity never depends on object addresses or map iteration order.
type SnakeID int32

// MaxSnakes is the roster capacity. The game supports one or two players.
const MaxSnakes = 2

// ItemKind identifies what occupies an item cell in a snapshot.
type ItemKind int32

const (
	ItemFood ItemKind = iota
	ItemPoison
	ItemShield
	ItemScoreBoost
	ItemSpeedBoost
)

func (k ItemKind) String() string {
	switch k {
	case ItemFood:
		return "food"
	case ItemPoison:
		return "poison"
	case ItemShield:
		return "shield"
	case ItemScoreBoost:
		return "score_boost"
	case ItemSpeedBoost:
		return "speed_boost"
	}
	return "unknown"
}

// SnakeSnapshot is the observer view of one snake at a tick.
type SnakeSnapshot struct {
	ID         SnakeID
	Alive      bool
	Score      int32
	Won        bool
	Lost       bool
	Body       []Point // head first
	Shield     bool
	ScoreBoost bool
	SpeedBoost bool
}

// ItemSnapshot is the observer view of one live item at a tick.
type ItemSnapshot struct {
	Kind ItemKind
	Cell Point
}

// MatchSnapshot is the complete observer view of a match at one tick.
// The engine emits one after every advance; observers must treat it as
// immutable and clone before holding references across ticks.
type MatchSnapshot struct {
	Tick       uint64
	GameOver   bool
	HeadToHead bool
	Snakes     []SnakeSnapshot
	Items      []ItemSnapshot
}

// Clone performs a deep copy of the snapshot.
func (s *MatchSnapshot) Clone() *MatchSnapshot {
	if s == nil {
		return nil
	}

	out := &MatchSnapshot{
		Tick:       s.Tick,
		GameOver:   s.GameOver,
		HeadToHead: s.HeadToHead,
	}

	if len(s.Snakes) > 0 {
		out.Snakes = make([]SnakeSnapshot, len(s.Snakes))
		for i := range s.Snakes {
			out.Snakes[i] = s.Snakes[i]
			if len(s.Snakes[i].Body) > 0 {
				out.Snakes[i].Body = make([]Point, len(s.Snakes[i].Body))
				copy(out.Snakes[i].Body, s.Snakes[i].Body)
			}
		}
	}

	if len(s.Items) > 0 {
		out.Items = make([]ItemSnapshot, len(s.Items))
		copy(out.Items, s.Items)
	}

	return out
}
