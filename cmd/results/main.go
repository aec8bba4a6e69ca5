// Command results summarizes recorded matches. It points DuckDB at the
// parquet files a match recorder wrote and prints per-match outcomes, or
// the tick-by-tick score progression of a single match.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
)

type matchSummary struct {
	MatchID    string
	Ticks      int64
	Seed       int64
	Winner     string
	Scores     []int64
	HeadToHead bool
}

func main() {
	dataDirs := flag.String("data", "data/matches", "Comma-separated directories of recorded match parquet files")
	matchID := flag.String("match", "", "Show tick-by-tick scores for one match instead of the summary list")
	timeout := flag.Duration("timeout", 30*time.Second, "Query timeout")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	db, err := openDuckDBWithGlobs(strings.Split(*dataDirs, ","))
	if err != nil {
		fmt.Fprintf(os.Stderr, "open duckdb: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	if *matchID != "" {
		if err := printMatchDetail(ctx, db, *matchID); err != nil {
			fmt.Fprintf(os.Stderr, "match detail: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := printSummaries(ctx, db); err != nil {
		fmt.Fprintf(os.Stderr, "summaries: %v\n", err)
		os.Exit(1)
	}
}

// openDuckDBWithGlobs creates an in-memory DuckDB with a turns view over
// every recorded parquet file under the given roots. Glob patterns are
// much faster than enumerating files; tmp/ directories hold half-written
// recordings and are excluded.
func openDuckDBWithGlobs(roots []string) (*sql.DB, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, err
	}
	_, _ = db.Exec("PRAGMA threads=4")

	globs := make([]string, 0, len(roots))
	for _, root := range roots {
		root = strings.TrimSpace(root)
		if root == "" {
			continue
		}
		glob := filepath.Join(root, "**", "*.parquet")
		globs = append(globs, "'"+escapeSQLString(glob)+"'")
	}
	if len(globs) == 0 {
		_ = db.Close()
		return nil, fmt.Errorf("no data directories given")
	}

	sqlText := `CREATE OR REPLACE VIEW turns AS
		SELECT * FROM read_parquet([` + strings.Join(globs, ",") + `], filename=true, union_by_name=true)
		WHERE NOT contains(filename, '/tmp/')`
	if _, err := db.Exec(sqlText); err != nil {
		_ = db.Close()
		return nil, err
	}

	// One row per (match, tick, snake) with struct fields as columns.
	if _, err := db.Exec(`CREATE OR REPLACE VIEW snake_turns AS
		SELECT match_id, tick, seed, head_to_head, game_over,
		       UNNEST(snakes, recursive := true)
		FROM turns`); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func escapeSQLString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func querySummaries(ctx context.Context, db *sql.DB) ([]matchSummary, error) {
	rows, err := db.QueryContext(ctx, `
		WITH last AS (
			SELECT match_id, MAX(tick) AS ticks
			FROM snake_turns
			GROUP BY match_id
		), h2h AS (
			SELECT match_id, BOOL_OR(head_to_head) AS any_h2h
			FROM turns
			GROUP BY match_id
		)
		SELECT st.match_id, l.ticks, st.seed, h.any_h2h, st.id, st.score, st.won
		FROM snake_turns st
		JOIN last l ON st.match_id = l.match_id AND st.tick = l.ticks
		JOIN h2h h ON st.match_id = h.match_id
		ORDER BY st.match_id, st.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []matchSummary
	for rows.Next() {
		var (
			id          string
			ticks, seed int64
			anyH2H, won bool
			snakeID     int32
			score       int64
		)
		if err := rows.Scan(&id, &ticks, &seed, &anyH2H, &snakeID, &score, &won); err != nil {
			return nil, err
		}
		if len(out) == 0 || out[len(out)-1].MatchID != id {
			out = append(out, matchSummary{
				MatchID:    id,
				Ticks:      ticks,
				Seed:       seed,
				HeadToHead: anyH2H,
				Winner:     "draw",
			})
		}
		m := &out[len(out)-1]
		m.Scores = append(m.Scores, score)
		if won {
			m.Winner = fmt.Sprintf("snake %d", snakeID)
		}
	}
	return out, rows.Err()
}

func printSummaries(ctx context.Context, db *sql.DB) error {
	summaries, err := querySummaries(ctx, db)
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		fmt.Println("no recorded matches found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "MATCH\tTICKS\tWINNER\tSCORES\tHEAD-TO-HEAD\tSEED")
	for _, m := range summaries {
		scores := make([]string, len(m.Scores))
		for i, s := range m.Scores {
			scores[i] = fmt.Sprintf("%d", s)
		}
		h2h := ""
		if m.HeadToHead {
			h2h = "yes"
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%d\n",
			m.MatchID, m.Ticks, m.Winner, strings.Join(scores, " / "), h2h, m.Seed)
	}
	return w.Flush()
}

func printMatchDetail(ctx context.Context, db *sql.DB, matchID string) error {
	rows, err := db.QueryContext(ctx, `
		SELECT tick, id, score, alive, shield, score_boost, speed_boost
		FROM snake_turns
		WHERE match_id = ?
		ORDER BY tick, id`, matchID)
	if err != nil {
		return err
	}
	defer rows.Close()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TICK\tSNAKE\tSCORE\tALIVE\tEFFECTS")
	found := false
	for rows.Next() {
		var (
			tick, score                   int64
			id                            int32
			alive, shield, scoreB, speedB bool
		)
		if err := rows.Scan(&tick, &id, &score, &alive, &shield, &scoreB, &speedB); err != nil {
			return err
		}
		found = true
		var effects []string
		if shield {
			effects = append(effects, "shield")
		}
		if scoreB {
			effects = append(effects, "2x")
		}
		if speedB {
			effects = append(effects, "fast")
		}
		fmt.Fprintf(w, "%d\t%d\t%d\t%v\t%s\n", tick, id, score, alive, strings.Join(effects, ","))
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if !found {
		fmt.Printf("match %s not found\n", matchID)
		return nil
	}
	return w.Flush()
}
