package match

import (
	"io"
	"log/slog"
	"testing"

	"github.com/brensch/duelsnake/game"
)

// stubCombatant implements Combatant for controller-level tests.
type stubCombatant struct {
	id        game.SnakeID
	shield    bool
	consumed  bool
	cancelled bool
}

func (s *stubCombatant) ID() game.SnakeID   { return s.id }
func (s *stubCombatant) ShieldActive() bool { return s.shield }
func (s *stubCombatant) CancelMove()        { s.cancelled = true }
func (s *stubCombatant) ConsumeShield() bool {
	if !s.shield {
		return false
	}
	s.shield = false
	s.consumed = true
	return true
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func twoPlayerController(t *testing.T, hooks *Hooks) (*Controller, *game.Config) {
	t.Helper()
	cfg := game.DefaultConfig()
	cfg.Players = 2
	c := NewController(&cfg, hooks, quietLogger())
	c.RegisterSnake(0)
	c.RegisterSnake(1)
	return c, &cfg
}

// addScoreTimes credits n unboosted pickups.
func addScoreTimes(c *Controller, id game.SnakeID, n int) {
	for i := 0; i < n; i++ {
		c.AddScore(id, false)
	}
}

func TestHeadToHead_HigherScoreWins(t *testing.T) {
	c, _ := twoPlayerController(t, nil)
	addScoreTimes(c, 0, 5) // A: 50
	addScoreTimes(c, 1, 3) // B: 30

	a := &stubCombatant{id: 0}
	b := &stubCombatant{id: 1}

	c.MarkHeadToHead()
	dead := c.HandleHeadToHeadCollision(a, b)

	if !c.Won(0) || c.Lost(0) {
		t.Errorf("A won=%v lost=%v want won", c.Won(0), c.Lost(0))
	}
	if c.Won(1) || !c.Lost(1) {
		t.Errorf("B won=%v lost=%v want lost", c.Won(1), c.Lost(1))
	}
	if len(dead) != 1 || dead[0] != 1 {
		t.Errorf("dead=%v want [1]", dead)
	}
	if c.HeadToHeadInProgress() {
		t.Error("head-to-head flag left dangling")
	}
	if !c.GameOver() {
		t.Error("game should be over")
	}
}

func TestHeadToHead_EqualScoresDraw(t *testing.T) {
	c, _ := twoPlayerController(t, nil)
	addScoreTimes(c, 0, 4) // 40
	addScoreTimes(c, 1, 4) // 40

	a := &stubCombatant{id: 0}
	b := &stubCombatant{id: 1}

	c.MarkHeadToHead()
	dead := c.HandleHeadToHeadCollision(a, b)

	if c.Won(0) || c.Won(1) {
		t.Errorf("draw declared a winner: A.won=%v B.won=%v", c.Won(0), c.Won(1))
	}
	if !c.Lost(0) || !c.Lost(1) {
		t.Errorf("draw should mark both lost: A.lost=%v B.lost=%v", c.Lost(0), c.Lost(1))
	}
	if len(dead) != 2 {
		t.Errorf("dead=%v want both", dead)
	}
	if c.HeadToHeadInProgress() {
		t.Error("head-to-head flag left dangling")
	}
}

func TestHeadToHead_OneShield(t *testing.T) {
	c, _ := twoPlayerController(t, nil)

	a := &stubCombatant{id: 0, shield: true}
	b := &stubCombatant{id: 1}

	c.MarkHeadToHead()
	dead := c.HandleHeadToHeadCollision(a, b)

	if !a.consumed {
		t.Error("A's shield not consumed")
	}
	if !a.cancelled {
		t.Error("A's move not cancelled")
	}
	if c.Lost(0) {
		t.Error("shielded snake marked lost")
	}
	if !c.Lost(1) {
		t.Error("unshielded snake not marked lost")
	}
	if len(dead) != 1 || dead[0] != 1 {
		t.Errorf("dead=%v want [1]", dead)
	}
	if c.HeadToHeadInProgress() {
		t.Error("head-to-head flag left dangling")
	}
}

func TestHeadToHead_BothShielded(t *testing.T) {
	c, _ := twoPlayerController(t, nil)

	a := &stubCombatant{id: 0, shield: true}
	b := &stubCombatant{id: 1, shield: true}

	c.MarkHeadToHead()
	dead := c.HandleHeadToHeadCollision(a, b)

	if len(dead) != 0 {
		t.Errorf("dead=%v want none", dead)
	}
	if !a.consumed || !b.consumed {
		t.Error("both shields should be spent")
	}
	if c.GameOver() {
		t.Error("match should continue")
	}
	if c.Lost(0) || c.Lost(1) || c.Won(0) || c.Won(1) {
		t.Error("no flags should be set")
	}
	if c.HeadToHeadInProgress() {
		t.Error("head-to-head flag left dangling")
	}
}

// The head-to-head path must override default-win-by-survival regardless
// of which snake's SetLost lands first.
func TestSetLost_HeadToHeadPriority(t *testing.T) {
	// Loser's SetLost arrives first.
	c, _ := twoPlayerController(t, nil)
	addScoreTimes(c, 0, 5) // A: 50
	addScoreTimes(c, 1, 3) // B: 30
	c.MarkHeadToHead()
	c.SetLost(1)
	if !c.Won(0) || !c.Lost(1) || c.Lost(0) {
		t.Errorf("loser-first: A won=%v A lost=%v B lost=%v", c.Won(0), c.Lost(0), c.Lost(1))
	}
	if c.HeadToHeadInProgress() {
		t.Error("flag left dangling")
	}

	// Winner's own SetLost arrives first: the premature lost flag must be
	// retracted and the snake promoted.
	c2, _ := twoPlayerController(t, nil)
	addScoreTimes(c2, 0, 5)
	addScoreTimes(c2, 1, 3)
	c2.MarkHeadToHead()
	c2.SetLost(0)
	if !c2.Won(0) || c2.Lost(0) {
		t.Errorf("winner-first: A won=%v lost=%v want promoted", c2.Won(0), c2.Lost(0))
	}
	if !c2.Lost(1) {
		t.Error("winner-first: B should be lost")
	}
	if c2.HeadToHeadInProgress() {
		t.Error("flag left dangling")
	}
}

func TestSetLost_EqualScoresViaSetLost(t *testing.T) {
	c, _ := twoPlayerController(t, nil)
	addScoreTimes(c, 0, 4)
	addScoreTimes(c, 1, 4)
	c.MarkHeadToHead()
	c.SetLost(0)

	if c.Won(0) || c.Won(1) {
		t.Error("draw declared a winner")
	}
	if !c.Lost(0) || !c.Lost(1) {
		t.Error("both should be lost")
	}
	if !c.GameOver() {
		t.Error("game should be over")
	}
}

func TestSetLost_OrdinaryDeathDefaultWin(t *testing.T) {
	c, _ := twoPlayerController(t, nil)
	addScoreTimes(c, 0, 1) // scores irrelevant without the flag
	addScoreTimes(c, 1, 9)

	c.SetLost(1)
	if !c.Won(0) {
		t.Error("survivor should win by default")
	}
	if !c.Lost(1) {
		t.Error("dead snake should be lost")
	}
}

func TestWinThreshold(t *testing.T) {
	cfg := game.DefaultConfig()
	cfg.Players = 1
	cfg.WinScore = 1000
	cfg.FoodScore = 10
	c := NewController(&cfg, nil, quietLogger())
	c.RegisterSnake(0)

	// Exactly 100 unboosted food pickups ends the match at 1000.
	for i := 0; i < 99; i++ {
		c.AddScore(0, false)
	}
	if c.Won(0) || c.GameOver() {
		t.Fatalf("won early at score=%d", c.Score(0))
	}
	c.AddScore(0, false)

	if got := c.Score(0); got != 1000 {
		t.Errorf("score=%d want 1000", got)
	}
	if !c.Won(0) {
		t.Error("win threshold crossing did not set won")
	}
	if !c.GameOver() {
		t.Error("win did not end the game")
	}
}

func TestAddScore_BoostDoubles(t *testing.T) {
	c, cfg := twoPlayerController(t, nil)
	c.AddScore(0, true)
	if got := c.Score(0); got != cfg.FoodScore*2 {
		t.Errorf("boosted score=%d want %d", got, cfg.FoodScore*2)
	}
}

func TestDeductScore_FloorsAtZero(t *testing.T) {
	cfg := game.DefaultConfig()
	cfg.Players = 1
	cfg.FoodScore = 3
	cfg.PoisonScore = 5
	c := NewController(&cfg, nil, quietLogger())
	c.RegisterSnake(0)

	c.AddScore(0, false) // 3
	c.DeductScore(0)     // 3 - 5 floors at 0
	if got := c.Score(0); got != 0 {
		t.Errorf("score=%d want 0", got)
	}
}

func TestLifecycleIdempotence(t *testing.T) {
	c, _ := twoPlayerController(t, nil)

	wins := 0
	c.hooks = &Hooks{Win: func(game.SnakeID) { wins++ }}

	// Double registration resets nothing.
	addScoreTimes(c, 0, 2)
	c.RegisterSnake(0)
	if c.Score(0) != 20 {
		t.Error("re-registration reset score")
	}

	c.SetWon(0)
	c.SetWon(0)
	if wins != 1 {
		t.Errorf("win fired %d times want 1", wins)
	}

	c.EndGame()
	c.EndGame()
	if !c.GameOver() {
		t.Error("game over lost")
	}

	// No mutation after game over.
	c.AddScore(0, false)
	if c.Score(0) != 20 {
		t.Error("score mutated after game over")
	}
}

func TestGameOverNotification_FiresOnce(t *testing.T) {
	fired := 0
	hooks := &Hooks{GameOver: func() { fired++ }}
	c, _ := twoPlayerController(t, hooks)

	c.EndGame()
	c.EndGame()
	c.SetLost(0) // idempotent paths must not re-fire
	if fired != 1 {
		t.Errorf("game-over fired %d times want 1", fired)
	}
}
