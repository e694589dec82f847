package challenge_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/buchstabensalat/salad/internal/challenge"
	"github.com/buchstabensalat/salad/internal/store"
)

func TestLeaderboardOrdering(t *testing.T) {
	ctx := context.Background()
	db, err := store.OpenDB(filepath.Join(t.TempDir(), "lb.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	if _, err := db.Exec(`INSERT INTO users(id, username, password_hash, created_at) VALUES('u1','anna','x','2024-01-01T00:00:00Z')`); err != nil {
		t.Fatal(err)
	}

	st := challenge.NewStore(db)
	date := challenge.DateKey(time.Date(2024, 5, 1, 23, 0, 0, 0, time.UTC))
	for _, r := range []challenge.Result{
		{OwnerID: "guest", Date: date, Successes: 3, DurationSeconds: 120},
		{OwnerID: "u1", Date: date, Successes: 5, DurationSeconds: 120},
		{OwnerID: "late", Date: date, Successes: 3, DurationSeconds: 120},
		{OwnerID: "other-day", Date: "2024-04-30", Successes: 9, DurationSeconds: 120},
	} {
		if err := st.InsertResult(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	rows, err := st.Leaderboard(ctx, date, 0)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"u1", "guest", "late"}
	if len(rows) != len(want) {
		t.Fatalf("got %d rows, want %d", len(rows), len(want))
	}
	for i, id := range want {
		if rows[i].OwnerID != id {
			t.Errorf("row %d = %s, want %s", i, rows[i].OwnerID, id)
		}
	}
	if rows[0].Name != "anna" || rows[1].Name != "" {
		t.Errorf("names = %q, %q", rows[0].Name, rows[1].Name)
	}
}
