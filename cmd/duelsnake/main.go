package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/brensch/duelsnake/feed"
	"github.com/brensch/duelsnake/game"
	"github.com/brensch/duelsnake/logging"
	"github.com/brensch/duelsnake/match"
	"github.com/brensch/duelsnake/store"
)

// frameInterval is the simulation advance granularity. Movement pacing
// comes from each snake's own interval, so frames only bound input
// latency and render rate.
const frameInterval = 33 * time.Millisecond

type TickMsg time.Time

type snapMsg *game.MatchSnapshot

func tickCmd() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func waitForSnapshot(snaps <-chan *game.MatchSnapshot) tea.Cmd {
	return func() tea.Msg {
		return snapMsg(<-snaps)
	}
}

type model struct {
	engine *match.Engine
	cfg    game.Config
	log    *slog.Logger

	recorder *store.Recorder
	feed     *feed.Server

	snap      *game.MatchSnapshot
	lastTick  time.Time
	startTime time.Time
	events    []string
}

func initialModel(e *match.Engine, cfg game.Config, logger *slog.Logger, rec *store.Recorder, fd *feed.Server) *model {
	return &model{
		engine:    e,
		cfg:       cfg,
		log:       logger,
		recorder:  rec,
		feed:      fd,
		lastTick:  time.Now(),
		startTime: time.Now(),
	}
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), waitForSnapshot(m.engine.Snapshots()))
}

func (m *model) note(format string, args ...any) {
	m.events = append([]string{fmt.Sprintf(format, args...)}, m.events...)
	if len(m.events) > 6 {
		m.events = m.events[:6]
	}
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "up":
			m.engine.RequestDirection(0, game.DirUp)
		case "down":
			m.engine.RequestDirection(0, game.DirDown)
		case "left":
			m.engine.RequestDirection(0, game.DirLeft)
		case "right":
			m.engine.RequestDirection(0, game.DirRight)
		case "w":
			m.engine.RequestDirection(1, game.DirUp)
		case "s":
			m.engine.RequestDirection(1, game.DirDown)
		case "a":
			m.engine.RequestDirection(1, game.DirLeft)
		case "d":
			m.engine.RequestDirection(1, game.DirRight)
		}
		return m, nil

	case TickMsg:
		now := time.Time(msg)
		m.engine.Advance(now.Sub(m.lastTick))
		m.lastTick = now
		return m, tickCmd()

	case snapMsg:
		m.snap = (*game.MatchSnapshot)(msg)
		if m.recorder != nil {
			if err := m.recorder.Record(m.snap); err != nil {
				m.log.Error("record snapshot", "err", err)
				m.note("recording failed: %v", err)
				m.recorder = nil
			}
		}
		if m.feed != nil {
			m.feed.Broadcast(m.snap)
		}
		return m, waitForSnapshot(m.engine.Snapshots())
	}
	return m, nil
}

var itemGlyphs = map[game.ItemKind]byte{
	game.ItemFood:       '*',
	game.ItemPoison:     'x',
	game.ItemShield:     'o',
	game.ItemScoreBoost: '$',
	game.ItemSpeedBoost: '>',
}

// renderBoard draws the grid with y increasing upward, heads uppercase.
func renderBoard(cfg *game.Config, snap *game.MatchSnapshot) string {
	grid := make([][]byte, cfg.Height)
	for y := int32(0); y < cfg.Height; y++ {
		grid[y] = make([]byte, cfg.Width)
		for x := int32(0); x < cfg.Width; x++ {
			grid[y][x] = '.'
		}
	}
	for _, it := range snap.Items {
		if it.Cell.Y >= 0 && it.Cell.Y < cfg.Height && it.Cell.X >= 0 && it.Cell.X < cfg.Width {
			grid[it.Cell.Y][it.Cell.X] = itemGlyphs[it.Kind]
		}
	}
	for i, s := range snap.Snakes {
		sym := byte('a' + i)
		if !s.Alive {
			sym = '+'
		}
		for j, p := range s.Body {
			if p.Y >= 0 && p.Y < cfg.Height && p.X >= 0 && p.X < cfg.Width {
				if j == 0 && s.Alive {
					grid[p.Y][p.X] = sym - 32 // uppercase head
				} else {
					grid[p.Y][p.X] = sym
				}
			}
		}
	}
	var sb strings.Builder
	for y := cfg.Height - 1; y >= 0; y-- {
		sb.Write(grid[y])
		sb.WriteByte('\n')
	}
	return sb.String()
}

func effectTags(s game.SnakeSnapshot) string {
	var tags []string
	if s.Shield {
		tags = append(tags, "shield")
	}
	if s.ScoreBoost {
		tags = append(tags, "2x")
	}
	if s.SpeedBoost {
		tags = append(tags, "fast")
	}
	if len(tags) == 0 {
		return ""
	}
	return " [" + strings.Join(tags, ",") + "]"
}

func (m *model) View() string {
	if m.snap == nil {
		return "starting...\n"
	}

	var sb strings.Builder
	sb.WriteString(renderBoard(&m.cfg, m.snap))
	sb.WriteByte('\n')

	for _, s := range m.snap.Snakes {
		status := "alive"
		switch {
		case s.Won:
			status = "WINNER"
		case s.Lost:
			status = "lost"
		case !s.Alive:
			status = "dead"
		}
		fmt.Fprintf(&sb, "Snake %c: %4d / %d  %s%s\n",
			'A'+byte(s.ID), s.Score, m.cfg.WinScore, status, effectTags(s))
	}

	fmt.Fprintf(&sb, "Tick %d  %s\n", m.snap.Tick, time.Since(m.startTime).Round(time.Second))

	if m.snap.GameOver {
		sb.WriteString("\nGame over. Press q to quit.\n")
	} else if m.cfg.Players == 2 {
		sb.WriteString("\nP1: arrows  P2: wasd  q: quit\n")
	} else {
		sb.WriteString("\nArrows to steer, q to quit.\n")
	}

	for _, ev := range m.events {
		sb.WriteString(ev + "\n")
	}
	return sb.String()
}

func main() {
	players := flag.Int("players", 1, "Number of snakes (1 or 2)")
	width := flag.Int("width", 20, "Grid width in cells")
	height := flag.Int("height", 20, "Grid height in cells")
	bounded := flag.Bool("bounded", false, "Fatal walls instead of wrap-around edges")
	seed := flag.Int64("seed", time.Now().UnixNano(), "Simulation seed; same seed and inputs replay the same match")
	moveInterval := flag.Duration("move-interval", 200*time.Millisecond, "Base time per cell of movement")
	winScore := flag.Int("win-score", 1000, "Score threshold for an immediate win")
	recordDir := flag.String("record", "", "Directory to record the match as parquet (empty disables)")
	feedAddr := flag.String("feed", "", "Address to serve the websocket spectator feed on, e.g. :8080 (empty disables)")
	logPath := flag.String("log", "", "Log file path (empty discards logs; the TUI owns the terminal)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logging.Discard()
	if *logPath != "" {
		l, f, err := logging.ToFile(*logPath, slog.LevelInfo)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open log: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logger = l
	}

	cfg := game.DefaultConfig()
	cfg.Players = *players
	cfg.Width = int32(*width)
	cfg.Height = int32(*height)
	cfg.Wrap = !*bounded
	cfg.MoveInterval = *moveInterval
	cfg.WinScore = int32(*winScore)

	engine, err := match.NewEngine(&cfg, nil, logger, *seed)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	defer engine.Teardown()

	var recorder *store.Recorder
	if *recordDir != "" {
		matchID := fmt.Sprintf("%d", time.Now().UnixNano())
		recorder, err = store.NewRecorder(*recordDir, matchID, *seed, cfg.Width, cfg.Height)
		if err != nil {
			fmt.Fprintf(os.Stderr, "recorder: %v\n", err)
			os.Exit(1)
		}
	}

	var feedSrv *feed.Server
	var httpSrv *http.Server
	if *feedAddr != "" {
		feedSrv = feed.NewServer(logger)
		mux := http.NewServeMux()
		mux.Handle("/watch", feedSrv)
		httpSrv = &http.Server{Addr: *feedAddr, Handler: mux}
		go func() {
			if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("feed server", "err", err)
			}
		}()
	}

	logger.Info("match starting",
		"players", cfg.Players, "width", cfg.Width, "height", cfg.Height,
		"wrap", cfg.Wrap, "seed", *seed)

	p := tea.NewProgram(initialModel(engine, cfg, logger, recorder, feedSrv),
		tea.WithAltScreen(), tea.WithContext(ctx))
	// A signal cancels the context; finish cleanup either way.
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "tui: %v\n", err)
	}

	if feedSrv != nil {
		feedSrv.Close()
		httpSrv.Close()
	}
	if recorder != nil {
		outPath, rows, err := recorder.Finalize()
		if err != nil {
			fmt.Fprintf(os.Stderr, "finalize recording: %v\n", err)
			os.Exit(1)
		}
		if outPath != "" {
			fmt.Printf("Recorded %d ticks to %s\n", rows, outPath)
		}
	}
}
