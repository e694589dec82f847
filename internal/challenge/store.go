package challenge

import (
	"context"
	"database/sql"
	"time"
)

// Result is one finished challenge run.
type Result struct {
	OwnerID         string `json:"ownerId"`
	Date            string `json:"date"`
	Successes       int    `json:"successes"`
	DurationSeconds int    `json:"durationSeconds"`
}

// LBRow is one leaderboard line. Name is empty for guests.
type LBRow struct {
	OwnerID   string `json:"ownerId"`
	Name      string `json:"name,omitempty"`
	Successes int    `json:"successes"`
	CreatedAt string `json:"createdAt"`
}

// Store persists finished runs in the challenge_results table.
type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func (s *Store) InsertResult(ctx context.Context, r Result) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO challenge_results(owner_id, date, successes, duration_seconds)
		 VALUES(?,?,?,?)`, r.OwnerID, r.Date, r.Successes, r.DurationSeconds,
	)
	return err
}

// Leaderboard returns the best runs of date: most successes first, earlier
// runs winning ties.
func (s *Store) Leaderboard(ctx context.Context, date string, limit int) ([]LBRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.owner_id, COALESCE(u.username, ''), r.successes, r.created_at
		 FROM challenge_results r
		 LEFT JOIN users u ON u.id = r.owner_id
		 WHERE r.date=?
		 ORDER BY r.successes DESC, r.created_at ASC, r.id ASC
		 LIMIT ?`, date, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]LBRow, 0, limit)
	for rows.Next() {
		var r LBRow
		if err := rows.Scan(&r.OwnerID, &r.Name, &r.Successes, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
