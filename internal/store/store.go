// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/kanabake/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// DefaultSlot is the save slot used by the game.
const DefaultSlot = "default"

// ErrNoSnapshot is returned when a slot holds no save.
var ErrNoSnapshot = errors.New("store: no saved snapshot")

// Store wraps SQLite access for rounds and saves.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS rounds (
			id INTEGER PRIMARY KEY,
			cycle_id TEXT NOT NULL,
			round INTEGER NOT NULL,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			keystrokes INTEGER NOT NULL,
			misses INTEGER NOT NULL,
			units INTEGER NOT NULL,
			max_combo INTEGER NOT NULL,
			criticals INTEGER NOT NULL,
			score TEXT NOT NULL,
			duration_ms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS round_unit_stats (
			round_id INTEGER NOT NULL,
			unit TEXT NOT NULL,
			correct INTEGER NOT NULL,
			incorrect INTEGER NOT NULL,
			latency_sum_ms INTEGER NOT NULL,
			latency_count INTEGER NOT NULL,
			PRIMARY KEY (round_id, unit)
		);`,
		`CREATE TABLE IF NOT EXISTS saves (
			slot TEXT PRIMARY KEY,
			cycle_id TEXT NOT NULL,
			round INTEGER NOT NULL,
			combo INTEGER NOT NULL,
			total_score TEXT NOT NULL,
			round_score TEXT NOT NULL,
			chips TEXT NOT NULL,
			modifiers TEXT NOT NULL,
			unlocked TEXT NOT NULL,
			upgrades TEXT NOT NULL DEFAULT '{}',
			saved_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_rounds_ended_at ON rounds(ended_at);`,
		`CREATE INDEX IF NOT EXISTS idx_round_unit_stats_unit ON round_unit_stats(unit);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return s.ensureColumn("saves", "upgrades", `TEXT NOT NULL DEFAULT '{}'`)
}

// ensureColumn adds a column missing from a database created by an older
// schema.
func (s *Store) ensureColumn(table, column, decl string) error {
	rows, err := s.db.Query(fmt.Sprintf(`PRAGMA table_info(%s)`, table))
	if err != nil {
		return err
	}
	found := false
	for rows.Next() {
		var (
			cid       int
			name      string
			colType   string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			_ = rows.Close()
			return err
		}
		if name == column {
			found = true
		}
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return err
	}
	if err := rows.Close(); err != nil {
		return err
	}
	if found {
		return nil
	}
	_, err = s.db.Exec(fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s %s`, table, column, decl))
	return err
}

// InsertRound stores a finished round and its per-kana stats.
func (s *Store) InsertRound(ctx context.Context, stats model.RoundStats, units []model.UnitStats) (id int64, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO rounds (cycle_id, round, started_at, ended_at, keystrokes, misses, units, max_combo, criticals, score, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		stats.CycleID,
		stats.Round,
		stats.StartedAt.Format(time.RFC3339Nano),
		stats.EndedAt.Format(time.RFC3339Nano),
		stats.Keystrokes,
		stats.Misses,
		stats.Units,
		stats.MaxCombo,
		stats.Criticals,
		stats.Score,
		stats.DurationMs,
	)
	if err != nil {
		return 0, err
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if len(units) > 0 {
		stmt, perr := tx.PrepareContext(ctx,
			`INSERT INTO round_unit_stats (round_id, unit, correct, incorrect, latency_sum_ms, latency_count)
			 VALUES (?, ?, ?, ?, ?, ?)`)
		if perr != nil {
			err = perr
			return 0, err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for _, us := range units {
			if _, err = stmt.ExecContext(ctx, id, us.Unit, us.Correct, us.Incorrect, us.LatencySumMs, us.LatencyCount); err != nil {
				return 0, err
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// GetWeakUnits aggregates kana stats over the most recent rounds.
func (s *Store) GetWeakUnits(ctx context.Context, window int) ([]model.UnitAggregate, error) {
	if window <= 0 {
		return nil, nil
	}
	query := `WITH recent_rounds AS (
		SELECT id FROM rounds
		ORDER BY ended_at DESC
		LIMIT ?
	)
	SELECT us.unit, SUM(us.correct) AS correct, SUM(us.incorrect) AS incorrect,
		SUM(us.latency_sum_ms) AS latency_sum_ms, SUM(us.latency_count) AS latency_count
	FROM round_unit_stats us
	JOIN recent_rounds r ON r.id = us.round_id
	GROUP BY us.unit`

	rows, err := s.db.QueryContext(ctx, query, window)
	if err != nil {
		return nil, err
	}
	return scanUnitAggregates(rows)
}

// ListRounds returns stored rounds filtered by stats config, oldest first.
func (s *Store) ListRounds(ctx context.Context, cfg model.StatsConfig) ([]model.RoundAggregate, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Since != nil {
		clauses = append(clauses, "ended_at >= ?")
		args = append(args, cfg.Since.Format(time.RFC3339Nano))
	}
	query := fmt.Sprintf(`SELECT id, cycle_id, ended_at, keystrokes, misses, units, max_combo, score, duration_ms
		FROM rounds
		WHERE %s
		ORDER BY ended_at ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var rounds []model.RoundAggregate
	for rows.Next() {
		var agg model.RoundAggregate
		var endedAt string
		if err := rows.Scan(&agg.RoundID, &agg.CycleID, &endedAt, &agg.Keystrokes, &agg.Misses, &agg.Units, &agg.MaxCombo, &agg.Score, &agg.DurationMs); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, endedAt)
		if err != nil {
			return nil, err
		}
		agg.EndedAt = parsed
		rounds = append(rounds, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if cfg.Last > 0 && len(rounds) > cfg.Last {
		rounds = rounds[len(rounds)-cfg.Last:]
	}
	return rounds, nil
}

// ListUnitAggregates aggregates per-kana stats across the given rounds.
func (s *Store) ListUnitAggregates(ctx context.Context, roundIDs []int64) ([]model.UnitAggregate, error) {
	if len(roundIDs) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(roundIDs))
	args := make([]any, len(roundIDs))
	for i, id := range roundIDs {
		placeholders[i] = "?"
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT unit, SUM(correct) AS correct, SUM(incorrect) AS incorrect,
		SUM(latency_sum_ms) AS latency_sum_ms, SUM(latency_count) AS latency_count
		FROM round_unit_stats
		WHERE round_id IN (%s)
		GROUP BY unit`, strings.Join(placeholders, ","))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanUnitAggregates(rows)
}

func scanUnitAggregates(rows *sql.Rows) ([]model.UnitAggregate, error) {
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.UnitAggregate
	for rows.Next() {
		var agg model.UnitAggregate
		if err := rows.Scan(&agg.Unit, &agg.Correct, &agg.Incorrect, &agg.LatencySumMs, &agg.LatencyCount); err != nil {
			return nil, err
		}
		result = append(result, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// SaveSnapshot writes the snapshot into a slot, replacing any previous save.
func (s *Store) SaveSnapshot(ctx context.Context, slot string, snap model.Snapshot) error {
	modifiers, err := json.Marshal(nonNil(snap.Modifiers))
	if err != nil {
		return err
	}
	unlocked, err := json.Marshal(nonNil(snap.Unlocked))
	if err != nil {
		return err
	}
	upgrades := snap.Upgrades
	if upgrades == nil {
		upgrades = map[string]int{}
	}
	upgradesJSON, err := json.Marshal(upgrades)
	if err != nil {
		return err
	}
	savedAt := snap.SavedAt
	if savedAt.IsZero() {
		savedAt = time.Now()
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO saves (slot, cycle_id, round, combo, total_score, round_score, chips, modifiers, unlocked, upgrades, saved_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(slot) DO UPDATE SET
			cycle_id = excluded.cycle_id,
			round = excluded.round,
			combo = excluded.combo,
			total_score = excluded.total_score,
			round_score = excluded.round_score,
			chips = excluded.chips,
			modifiers = excluded.modifiers,
			unlocked = excluded.unlocked,
			upgrades = excluded.upgrades,
			saved_at = excluded.saved_at`,
		slot,
		snap.CycleID,
		snap.Round,
		snap.Combo,
		snap.TotalScore,
		snap.RoundScore,
		snap.Chips,
		string(modifiers),
		string(unlocked),
		string(upgradesJSON),
		savedAt.Format(time.RFC3339Nano),
	)
	return err
}

// LoadSnapshot reads the save in a slot. It returns ErrNoSnapshot when the
// slot is empty. Decoding problems are returned as errors so the caller can
// fall back to a fresh cycle.
func (s *Store) LoadSnapshot(ctx context.Context, slot string) (model.Snapshot, error) {
	var snap model.Snapshot
	var modifiers, unlocked, upgrades, savedAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT cycle_id, round, combo, total_score, round_score, chips, modifiers, unlocked, upgrades, saved_at
		 FROM saves WHERE slot = ?`, slot,
	).Scan(&snap.CycleID, &snap.Round, &snap.Combo, &snap.TotalScore, &snap.RoundScore, &snap.Chips, &modifiers, &unlocked, &upgrades, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Snapshot{}, ErrNoSnapshot
	}
	if err != nil {
		return model.Snapshot{}, err
	}
	if err := json.Unmarshal([]byte(modifiers), &snap.Modifiers); err != nil {
		return model.Snapshot{}, fmt.Errorf("decode modifiers: %w", err)
	}
	if err := json.Unmarshal([]byte(unlocked), &snap.Unlocked); err != nil {
		return model.Snapshot{}, fmt.Errorf("decode unlocked tiers: %w", err)
	}
	if err := json.Unmarshal([]byte(upgrades), &snap.Upgrades); err != nil {
		return model.Snapshot{}, fmt.Errorf("decode upgrades: %w", err)
	}
	parsed, err := time.Parse(time.RFC3339Nano, savedAt)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("decode saved_at: %w", err)
	}
	snap.SavedAt = parsed
	return snap, nil
}

// ClearSnapshot deletes the save in a slot.
func (s *Store) ClearSnapshot(ctx context.Context, slot string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM saves WHERE slot = ?`, slot)
	return err
}

// Reset deletes every stored round and save.
func (s *Store) Reset(ctx context.Context) error {
	for _, stmt := range []string{
		`DELETE FROM round_unit_stats`,
		`DELETE FROM rounds`,
		`DELETE FROM saves`,
	} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
