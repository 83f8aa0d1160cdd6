package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumerank-engine/internal/domain"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, Migrate(db.Pool))
	return db.Pool
}

func sampleBatch() ([]domain.Document, domain.Ranking) {
	docs := []domain.Document{
		{Name: "alice.txt", Text: "expert python developer built a project"},
		{Name: "bob.txt", Text: "basic learning exposure"},
	}
	ranking := domain.Ranking{
		Weights: domain.Signals{Partial: 0.3, Relative: 0.2, Penalty: 0.1, Consistency: 0.2, Duplicate: 0.2},
		Records: []domain.ScoreRecord{
			{
				Filename:   "alice.txt",
				Index:      0,
				Breakdown:  domain.Signals{Partial: 1, Penalty: -0.05, Consistency: 1, Duplicate: 1},
				Weighted:   domain.Signals{Partial: 0.3, Penalty: -0.005, Consistency: 0.2, Duplicate: 0.2},
				RawScore:   0.695,
				FinalScore: 100,
				Rank:       1,
			},
			{
				Filename:          "bob.txt",
				Index:             1,
				Breakdown:         domain.Signals{Partial: 0.75, Penalty: -0.05, Duplicate: 1},
				Weighted:          domain.Signals{Partial: 0.225, Penalty: -0.005, Duplicate: 0.2},
				RawScore:          0.42,
				FinalScore:        20,
				Rank:              2,
				ClosestPeer:       "alice.txt",
				ClosestSimilarity: 0.1,
			},
		},
		Issues: []domain.Issue{{Kind: "invalid_weight", Key: "penalty", Message: "weight \"x\" is not a number"}},
		Stats:  domain.RankStats{Documents: 2, Participants: 2, MinRaw: 0.42, MaxRaw: 0.695},
	}
	return docs, ranking
}

func TestMigrate_Idempotent(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Migrate(db))

	var v int
	require.NoError(t, db.QueryRow(`PRAGMA user_version;`).Scan(&v))
	assert.Equal(t, schemaVersion, v)
}

func TestInsertAndGetRun(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	docs, ranking := sampleBatch()

	run, err := InsertRun(ctx, db, "upload", docs, ranking)
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, "alice.txt", run.TopFilename)
	assert.Equal(t, 100, run.TopScore)

	got, err := GetRun(ctx, db, run.ID)
	require.NoError(t, err)

	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, "upload", got.Source)
	assert.Equal(t, "alice.txt", got.TopFilename)
	assert.WithinDuration(t, run.CreatedAt, got.CreatedAt, time.Microsecond)
	assert.Equal(t, ranking.Weights, got.Ranking.Weights)
	assert.Equal(t, ranking.Stats, got.Ranking.Stats)
	assert.Equal(t, ranking.Issues, got.Ranking.Issues)
	assert.Equal(t, ranking.Records, got.Ranking.Records)
}

func TestGetRun_NotFound(t *testing.T) {
	db := openTestDB(t)

	_, err := GetRun(context.Background(), db, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = RunDocuments(context.Background(), db, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRunDocuments_BatchOrder(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	docs, ranking := sampleBatch()

	// Store records best first but with the batch order reversed.
	docs[0], docs[1] = docs[1], docs[0]
	ranking.Records[0].Index = 1
	ranking.Records[1].Index = 0

	run, err := InsertRun(ctx, db, "cli", docs, ranking)
	require.NoError(t, err)

	got, err := RunDocuments(ctx, db, run.ID)
	require.NoError(t, err)
	assert.Equal(t, docs, got)
}

func TestInsertRun_RejectsBadIndex(t *testing.T) {
	db := openTestDB(t)
	docs, ranking := sampleBatch()
	ranking.Records[1].Index = 7

	_, err := InsertRun(context.Background(), db, "cli", docs, ranking)
	require.Error(t, err)

	runs, err := ListRuns(context.Background(), db, ListRunsOpts{})
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestListRuns_NewestFirst(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	docs, ranking := sampleBatch()

	first, err := InsertRun(ctx, db, "a", docs, ranking)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	second, err := InsertRun(ctx, db, "b", docs, ranking)
	require.NoError(t, err)

	runs, err := ListRuns(ctx, db, ListRunsOpts{})
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second.ID, runs[0].ID)
	assert.Equal(t, first.ID, runs[1].ID)

	runs, err = ListRuns(ctx, db, ListRunsOpts{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, runs, 1)

	runs, err = ListRuns(ctx, db, ListRunsOpts{Since: time.Now().Add(time.Hour)})
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestDeleteRun(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	docs, ranking := sampleBatch()

	run, err := InsertRun(ctx, db, "cli", docs, ranking)
	require.NoError(t, err)

	ok, err := DeleteRun(ctx, db, run.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = DeleteRun(ctx, db, run.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM results;`).Scan(&n))
	assert.Zero(t, n)
}

func TestCleanupRunsBefore(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	docs, ranking := sampleBatch()

	_, err := InsertRun(ctx, db, "cli", docs, ranking)
	require.NoError(t, err)

	n, err := CleanupOldRuns(ctx, db, 30)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = CleanupRunsBefore(ctx, db, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	var results int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM results;`).Scan(&results))
	assert.Zero(t, results)
}

func TestCheckpoint(t *testing.T) {
	db := openTestDB(t)
	assert.NoError(t, Checkpoint(context.Background(), db))
}

func TestGetRun_CorruptColumns(t *testing.T) {
	tests := []struct {
		name   string
		update string
		want   string
	}{
		{"breakdown", `UPDATE results SET breakdown = '{bad' WHERE filename = 'bob.txt';`, "breakdown of bob.txt"},
		{"weighted", `UPDATE results SET weighted = 'null,' WHERE filename = 'alice.txt';`, "weighted of alice.txt"},
		{"issues", `UPDATE runs SET issues = '[{' ;`, "issues"},
		{"weights", `UPDATE runs SET weights = 'x';`, "weights"},
		{"created_at", `UPDATE runs SET created_at = 'yesterday';`, "created_at"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := openTestDB(t)
			ctx := context.Background()
			docs, ranking := sampleBatch()

			run, err := InsertRun(ctx, db, "upload", docs, ranking)
			require.NoError(t, err)
			_, err = db.Exec(tt.update)
			require.NoError(t, err)

			_, err = GetRun(ctx, db, run.ID)
			require.Error(t, err)
			assert.Contains(t, err.Error(), run.ID)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestListRuns_CorruptWeights(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	docs, ranking := sampleBatch()

	_, err := InsertRun(ctx, db, "upload", docs, ranking)
	require.NoError(t, err)
	_, err = db.Exec(`UPDATE runs SET weights = '{';`)
	require.NoError(t, err)

	_, err = ListRuns(ctx, db, ListRunsOpts{})
	assert.Error(t, err)
}
