package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/brensch/duelsnake/game"
)

func sampleSnapshot(tick uint64) *game.MatchSnapshot {
	return &game.MatchSnapshot{
		Tick: tick,
		Snakes: []game.SnakeSnapshot{
			{
				ID:    0,
				Alive: true,
				Score: 30,
				Body:  []game.Point{{X: 5, Y: 5}, {X: 4, Y: 5}},
			},
			{
				ID:     1,
				Alive:  false,
				Score:  10,
				Lost:   true,
				Body:   []game.Point{{X: 8, Y: 2}},
				Shield: true,
			},
		},
		Items: []game.ItemSnapshot{
			{Kind: game.ItemFood, Cell: game.Point{X: 1, Y: 1}},
			{Kind: game.ItemShield, Cell: game.Point{X: 2, Y: 7}},
		},
	}
}

func TestRecorder_RoundTrip(t *testing.T) {
	dir := t.TempDir()

	rec, err := NewRecorder(dir, "m1", 42, 20, 20)
	if err != nil {
		t.Fatalf("recorder: %v", err)
	}
	for tick := uint64(1); tick <= 3; tick++ {
		if err := rec.Record(sampleSnapshot(tick)); err != nil {
			t.Fatalf("record tick %d: %v", tick, err)
		}
	}

	outPath, rows, err := rec.Finalize()
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if rows != 3 {
		t.Fatalf("rows=%d want 3", rows)
	}

	got, err := ReadMatchParquet(outPath)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("read %d rows want 3", len(got))
	}

	first := got[0]
	if first.MatchID != "m1" || first.Seed != 42 || first.Tick != 1 {
		t.Errorf("row header mismatch: %+v", first)
	}
	if len(first.Snakes) != 2 {
		t.Fatalf("snakes=%d want 2", len(first.Snakes))
	}
	if first.Snakes[0].Score != 30 || !first.Snakes[0].Alive {
		t.Errorf("snake 0 mismatch: %+v", first.Snakes[0])
	}
	if !first.Snakes[1].Lost || !first.Snakes[1].Shield {
		t.Errorf("snake 1 mismatch: %+v", first.Snakes[1])
	}
	if len(first.ItemKind) != 2 || first.ItemKind[0] != "food" || first.ItemX[1] != 2 {
		t.Errorf("items mismatch: kinds=%v xs=%v", first.ItemKind, first.ItemX)
	}
	if len(first.Snakes[0].BodyX) != 2 || first.Snakes[0].BodyX[1] != 4 {
		t.Errorf("body mismatch: %v", first.Snakes[0].BodyX)
	}
}

func TestRecorder_EmptyMatchLeavesNoFile(t *testing.T) {
	dir := t.TempDir()

	rec, err := NewRecorder(dir, "empty", 1, 10, 10)
	if err != nil {
		t.Fatalf("recorder: %v", err)
	}
	outPath, rows, err := rec.Finalize()
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if outPath != "" || rows != 0 {
		t.Fatalf("outPath=%q rows=%d want empty", outPath, rows)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".parquet" {
			t.Errorf("stray parquet file %s", e.Name())
		}
	}
}

func TestWriteMatchParquet_NoTmpLeftBehind(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "m.parquet")

	rows := []MatchTurnRow{RowFromSnapshot("m2", 7, 20, 20, sampleSnapshot(1))}
	if err := WriteMatchParquet(out, rows); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := os.Stat(out); err != nil {
		t.Fatalf("output missing: %v", err)
	}
	if _, err := os.Stat(out + ".tmp"); !os.IsNotExist(err) {
		t.Error("tmp file left behind")
	}

	got, err := ReadMatchParquet(out)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 1 || got[0].MatchID != "m2" {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}
