package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"

	"github.com/brensch/duelsnake/game"
)

// Recorder streams match turns into a parquet file as they happen. Rows
// land in a tmp/ sibling first; Finalize moves the file into place, so a
// crash mid-match leaves no half-written file in the output directory.
type Recorder struct {
	matchID string
	seed    int64
	width   int32
	height  int32

	outDir  string
	tmpPath string
	outPath string

	file   *os.File
	writer *parquet.GenericWriter[MatchTurnRow]

	bufferedRows int
}

func NewRecorder(outDir, matchID string, seed int64, width, height int32) (*Recorder, error) {
	if outDir == "" {
		return nil, fmt.Errorf("outDir is required")
	}
	if matchID == "" {
		return nil, fmt.Errorf("matchID is required")
	}

	absOut, err := filepath.Abs(outDir)
	if err != nil {
		absOut = outDir
	}
	tmpDir := filepath.Join(absOut, "tmp")
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return nil, fmt.Errorf("create tmp dir: %w", err)
	}

	name := fmt.Sprintf("match_%s.parquet", matchID)
	tmpPath := filepath.Join(tmpDir, name)
	outPath := filepath.Join(absOut, name)

	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open tmp parquet: %w", err)
	}

	w := parquet.NewGenericWriter[MatchTurnRow](
		f,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
	)
	w.SetKeyValueMetadata("schema", "match_turn_v1")

	return &Recorder{
		matchID: matchID,
		seed:    seed,
		width:   width,
		height:  height,
		outDir:  absOut,
		tmpPath: tmpPath,
		outPath: outPath,
		file:    f,
		writer:  w,
	}, nil
}

func (r *Recorder) OutPath() string   { return r.outPath }
func (r *Recorder) BufferedRows() int { return r.bufferedRows }

// Record appends one snapshot to the match file.
func (r *Recorder) Record(snap *game.MatchSnapshot) error {
	if r.writer == nil || r.file == nil {
		return fmt.Errorf("recorder is closed")
	}
	row := RowFromSnapshot(r.matchID, r.seed, r.width, r.height, snap)
	if _, err := r.writer.Write([]MatchTurnRow{row}); err != nil {
		return err
	}
	r.bufferedRows++
	return nil
}

// Finalize closes the parquet writer and moves the file from tmp/ to the
// output directory. If no rows were recorded, the tmp file is removed and
// the returned path is empty.
func (r *Recorder) Finalize() (outPath string, rows int, err error) {
	if r.writer == nil && r.file == nil {
		return "", 0, nil
	}

	rows = r.bufferedRows
	outPath = r.outPath

	var closeErr error
	if r.writer != nil {
		closeErr = r.writer.Close()
		r.writer = nil
	}
	var fileErr error
	if r.file != nil {
		_ = r.file.Sync()
		fileErr = r.file.Close()
		r.file = nil
	}
	if closeErr != nil {
		return "", 0, fmt.Errorf("close parquet writer: %w", closeErr)
	}
	if fileErr != nil {
		return "", 0, fmt.Errorf("close parquet file: %w", fileErr)
	}

	if rows == 0 {
		_ = os.Remove(r.tmpPath)
		return "", 0, nil
	}

	if err := os.Rename(r.tmpPath, outPath); err != nil {
		return "", 0, fmt.Errorf("finalize parquet: %w", err)
	}
	return outPath, rows, nil
}

// Abort discards everything recorded so far.
func (r *Recorder) Abort() {
	if r.writer != nil {
		_ = r.writer.Close()
		r.writer = nil
	}
	if r.file != nil {
		_ = r.file.Close()
		r.file = nil
	}
	_ = os.Remove(r.tmpPath)
}
