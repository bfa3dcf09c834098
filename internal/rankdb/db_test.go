package rankdb

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/scenetrace/internal/ranking"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "rank.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testRun(scene string, started time.Time) *ranking.Run {
	return &ranking.Run{
		ID:         uuid.New(),
		Scene:      scene,
		StartedAt:  started,
		FinishedAt: started.Add(4 * time.Second),
		Lights:     3,
		Rows: []ranking.Row{
			{Rank: 0, Path: "/Hall/LampA", Average: 0.8, StdDev: 0.01, Frames: 10, Index: 0},
			{Rank: 1, Path: "/Hall/LampB", Average: 0.35, StdDev: 0.02, Frames: 10, Index: 1},
		},
	}
}

func TestOpen_Migrates(t *testing.T) {
	db := openTestDB(t)

	version, dirty, err := db.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)

	// Running again is a no-op.
	require.NoError(t, db.MigrateUp())
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rank.db")

	db, err := Open(path)
	require.NoError(t, err)
	run := testRun("hall", time.Unix(1700000000, 0).UTC())
	require.NoError(t, db.InsertRun(run))
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()

	got, err := db.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.Scene, got.Scene)
}

func TestInsertAndGetRun(t *testing.T) {
	db := openTestDB(t)
	run := testRun("hall", time.Date(2026, 3, 1, 12, 0, 0, 500, time.UTC))

	require.NoError(t, db.Publish(run))

	got, err := db.GetRun(run.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(run, got); diff != "" {
		t.Errorf("GetRun mismatch (-want +got):\n%s", diff)
	}
}

func TestInsertRun_Empty(t *testing.T) {
	db := openTestDB(t)
	run := testRun("empty", time.Unix(1700000000, 0).UTC())
	run.Rows = nil

	require.NoError(t, db.InsertRun(run))

	got, err := db.GetRun(run.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Rows)
	assert.Equal(t, 3, got.Lights)
}

func TestInsertRun_DuplicateID(t *testing.T) {
	db := openTestDB(t)
	run := testRun("hall", time.Unix(1700000000, 0).UTC())

	require.NoError(t, db.InsertRun(run))
	assert.Error(t, db.InsertRun(run))

	// The failed insert rolled back; the original rows are intact.
	got, err := db.GetRun(run.ID)
	require.NoError(t, err)
	assert.Len(t, got.Rows, 2)
}

func TestGetRun_NotFound(t *testing.T) {
	db := openTestDB(t)

	_, err := db.GetRun(uuid.New())
	assert.True(t, errors.Is(err, ErrRunNotFound))
}

func TestListRuns(t *testing.T) {
	db := openTestDB(t)
	base := time.Unix(1700000000, 0).UTC()

	older := testRun("hall", base)
	newer := testRun("hall", base.Add(time.Hour))
	other := testRun("garden", base.Add(2*time.Hour))
	other.Rows = other.Rows[:1]
	for _, r := range []*ranking.Run{older, newer, other} {
		require.NoError(t, db.InsertRun(r))
	}

	tests := []struct {
		name  string
		scene string
		limit int
		want  []uuid.UUID
	}{
		{"all", "", 0, []uuid.UUID{other.ID, newer.ID, older.ID}},
		{"scene filter", "hall", 0, []uuid.UUID{newer.ID, older.ID}},
		{"limit", "", 1, []uuid.UUID{other.ID}},
		{"unknown scene", "attic", 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs, err := db.ListRuns(tt.scene, tt.limit)
			require.NoError(t, err)

			var ids []uuid.UUID
			for _, r := range runs {
				ids = append(ids, r.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}

	runs, err := db.ListRuns("garden", 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 1, runs[0].Ranked)
	assert.Equal(t, 3, runs[0].Lights)
	assert.Equal(t, base.Add(2*time.Hour), runs[0].StartedAt)
}
