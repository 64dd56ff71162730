// Package store holds the last successfully loaded schedule in an in-memory
// SQLite database. Nothing outlives the process.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/robertmeta/tvfixtures/model"
	_ "modernc.org/sqlite"
)

// Store manages the snapshot database.
type Store struct {
	db  *sql.DB
	loc *time.Location
}

// Stats describes the current snapshot.
type Stats struct {
	Matchdays int        `json:"matchdays"`
	Matches   int        `json:"matches"`
	LoadedAt  *time.Time `json:"loaded_at,omitempty"`
}

// New opens an empty snapshot. Dates read back are expressed in loc.
func New(loc *time.Location) (*Store, error) {
	if loc == nil {
		loc = time.Local
	}
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Every connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, loc: loc}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshot (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		loaded_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS matchdays (
		id INTEGER PRIMARY KEY,
		day INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS matches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		matchday_id INTEGER NOT NULL,
		position INTEGER NOT NULL,
		kickoff INTEGER NOT NULL,
		competition TEXT NOT NULL,
		flag TEXT NOT NULL,
		home_team TEXT NOT NULL,
		away_team TEXT NOT NULL,
		calendar_url TEXT NOT NULL,
		FOREIGN KEY (matchday_id) REFERENCES matchdays(id) ON DELETE CASCADE,
		UNIQUE(matchday_id, position)
	);

	CREATE TABLE IF NOT EXISTS match_tvs (
		match_id INTEGER NOT NULL,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		PRIMARY KEY (match_id, position),
		FOREIGN KEY (match_id) REFERENCES matches(id) ON DELETE CASCADE
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Replace swaps the whole snapshot for days in one transaction.
func (s *Store) Replace(ctx context.Context, days []model.Matchday) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		"DELETE FROM match_tvs",
		"DELETE FROM matches",
		"DELETE FROM matchdays",
		"DELETE FROM snapshot",
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to clear snapshot: %w", err)
		}
	}

	for i, d := range days {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO matchdays (id, day) VALUES (?, ?)",
			i+1, d.Date.Unix(),
		); err != nil {
			return fmt.Errorf("failed to insert matchday: %w", err)
		}
		for pos, m := range d.Matches {
			result, err := tx.ExecContext(ctx,
				"INSERT INTO matches (matchday_id, position, kickoff, competition, flag, home_team, away_team, calendar_url) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
				i+1, pos, m.Date.Unix(), m.Competition, m.Flag, m.HomeTeam, m.AwayTeam, m.CalendarURL,
			)
			if err != nil {
				return fmt.Errorf("failed to insert match: %w", err)
			}
			matchID, err := result.LastInsertId()
			if err != nil {
				return fmt.Errorf("failed to get last insert ID: %w", err)
			}
			for tvPos, tv := range m.TV {
				if _, err := tx.ExecContext(ctx,
					"INSERT INTO match_tvs (match_id, position, name) VALUES (?, ?, ?)",
					matchID, tvPos, tv,
				); err != nil {
					return fmt.Errorf("failed to insert broadcaster: %w", err)
				}
			}
		}
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO snapshot (id, loaded_at) VALUES (1, ?)", time.Now().Unix(),
	); err != nil {
		return fmt.Errorf("failed to record snapshot: %w", err)
	}

	return tx.Commit()
}

// Matchdays materializes a fresh copy of the snapshot in load order.
// All reads share one transaction, so a concurrent Replace is seen either
// entirely or not at all.
func (s *Store) Matchdays(ctx context.Context) ([]model.Matchday, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	days := []model.Matchday{}
	index := map[int64]int{}

	rows, err := tx.QueryContext(ctx, "SELECT id, day FROM matchdays ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query matchdays: %w", err)
	}
	for rows.Next() {
		var id, day int64
		if err := rows.Scan(&id, &day); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan matchday: %w", err)
		}
		index[id] = len(days)
		days = append(days, model.Matchday{Date: s.unixToTime(day), Matches: []model.Match{}})
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}

	tvs, err := broadcasters(ctx, tx)
	if err != nil {
		return nil, err
	}

	rows, err = tx.QueryContext(ctx,
		"SELECT id, matchday_id, kickoff, competition, flag, home_team, away_team, calendar_url FROM matches ORDER BY matchday_id, position",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	for rows.Next() {
		var id, dayID, kickoff int64
		m := model.Match{}
		if err := rows.Scan(&id, &dayID, &kickoff, &m.Competition, &m.Flag, &m.HomeTeam, &m.AwayTeam, &m.CalendarURL); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		m.Date = s.unixToTime(kickoff)
		m.TV = tvs[id]
		if m.TV == nil {
			m.TV = []string{}
		}
		i, ok := index[dayID]
		if !ok {
			continue
		}
		days[i].Matches = append(days[i].Matches, m)
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to finish read: %w", err)
	}
	return days, nil
}

func broadcasters(ctx context.Context, tx *sql.Tx) (map[int64][]string, error) {
	rows, err := tx.QueryContext(ctx, "SELECT match_id, name FROM match_tvs ORDER BY match_id, position")
	if err != nil {
		return nil, fmt.Errorf("failed to query broadcasters: %w", err)
	}
	tvs := map[int64][]string{}
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan broadcaster: %w", err)
		}
		tvs[id] = append(tvs[id], name)
	}
	return tvs, closeRows(rows)
}

// Stats counts the snapshot's rows.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return st, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM matchdays").Scan(&st.Matchdays); err != nil {
		return st, fmt.Errorf("failed to count matchdays: %w", err)
	}
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM matches").Scan(&st.Matches); err != nil {
		return st, fmt.Errorf("failed to count matches: %w", err)
	}

	var loaded int64
	err = tx.QueryRowContext(ctx, "SELECT loaded_at FROM snapshot WHERE id = 1").Scan(&loaded)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return st, fmt.Errorf("failed to read snapshot time: %w", err)
	default:
		t := s.unixToTime(loaded)
		st.LoadedAt = &t
	}
	return st, nil
}

func closeRows(rows *sql.Rows) error {
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("failed to iterate rows: %w", err)
	}
	return rows.Close()
}

// Helper to convert Unix timestamp to time.Time in the store's location
func (s *Store) unixToTime(unix int64) time.Time {
	return time.Unix(unix, 0).In(s.loc)
}
