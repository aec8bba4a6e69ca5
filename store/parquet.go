package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"

	"github.com/brensch/duelsnake/game"
)

// MatchTurnRow is a single (match, tick) snapshot intended for long-term
// storage and offline analysis.
//
// It is optimized for compression:
// - one row per tick (no duplication of item state across snakes)
// - nested/repeated snake data
type MatchTurnRow struct {
	MatchID string `parquet:"match_id,dict"`
	Tick    int64  `parquet:"tick"`
	Width   int32  `parquet:"width"`
	Height  int32  `parquet:"height"`

	ItemKind []string `parquet:"item_kind,dict"`
	ItemX    []int32  `parquet:"item_x"`
	ItemY    []int32  `parquet:"item_y"`

	Snakes []MatchSnake `parquet:"snakes"`

	HeadToHead bool `parquet:"head_to_head"`
	GameOver   bool `parquet:"game_over"`

	Seed   int64  `parquet:"seed"`
	Source string `parquet:"source,dict"`
}

type MatchSnake struct {
	ID    int32 `parquet:"id"`
	Alive bool  `parquet:"alive"`
	Score int32 `parquet:"score"`
	Won   bool  `parquet:"won"`
	Lost  bool  `parquet:"lost"`

	BodyX []int32 `parquet:"body_x"`
	BodyY []int32 `parquet:"body_y"`

	Shield     bool `parquet:"shield"`
	ScoreBoost bool `parquet:"score_boost"`
	SpeedBoost bool `parquet:"speed_boost"`
}

// RowFromSnapshot flattens an engine snapshot into one storable row.
func RowFromSnapshot(matchID string, seed int64, width, height int32, snap *game.MatchSnapshot) MatchTurnRow {
	row := MatchTurnRow{
		MatchID:    matchID,
		Tick:       int64(snap.Tick),
		Width:      width,
		Height:     height,
		HeadToHead: snap.HeadToHead,
		GameOver:   snap.GameOver,
		Seed:       seed,
		Source:     "duelsnake",
	}
	for _, it := range snap.Items {
		row.ItemKind = append(row.ItemKind, it.Kind.String())
		row.ItemX = append(row.ItemX, it.Cell.X)
		row.ItemY = append(row.ItemY, it.Cell.Y)
	}
	for _, s := range snap.Snakes {
		ms := MatchSnake{
			ID:         int32(s.ID),
			Alive:      s.Alive,
			Score:      s.Score,
			Won:        s.Won,
			Lost:       s.Lost,
			Shield:     s.Shield,
			ScoreBoost: s.ScoreBoost,
			SpeedBoost: s.SpeedBoost,
		}
		for _, p := range s.Body {
			ms.BodyX = append(ms.BodyX, p.X)
			ms.BodyY = append(ms.BodyY, p.Y)
		}
		row.Snakes = append(row.Snakes, ms)
	}
	return row
}

// WriteMatchParquet writes all rows of one match to outPath via a temp
// file and an atomic rename, so readers never observe a partial file.
func WriteMatchParquet(outPath string, rows []MatchTurnRow) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmpPath := outPath + ".tmp"
	_ = os.Remove(tmpPath)

	if err := parquet.WriteFile(tmpPath, rows,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.KeyValueMetadata("schema", "match_turn_v1"),
	); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write parquet: %w", err)
	}

	if err := os.Rename(tmpPath, outPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename parquet: %w", err)
	}
	return nil
}

// WriteMatchBatchParquet writes rows into outDir under a unique
// timestamped name and returns the final path.
func WriteMatchBatchParquet(outDir string, rows []MatchTurnRow) (string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	name := fmt.Sprintf("match_%d.parquet", time.Now().UnixNano())
	outPath := filepath.Join(outDir, name)
	if err := WriteMatchParquet(outPath, rows); err != nil {
		return "", err
	}
	return outPath, nil
}

// ReadMatchParquet loads every row of a previously recorded match.
func ReadMatchParquet(path string) ([]MatchTurnRow, error) {
	rows, err := parquet.ReadFile[MatchTurnRow](path)
	if err != nil {
		return nil, fmt.Errorf("read parquet %s: %w", path, err)
	}
	return rows, nil
}
