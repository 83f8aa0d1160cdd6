package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"resumerank-engine/internal/domain"
)

// Fixed-width so created_at sorts and compares as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Run is the summary row of one persisted ranking.
type Run struct {
	ID           string         `json:"id"`
	CreatedAt    time.Time      `json:"createdAt"`
	Source       string         `json:"source"`
	Documents    int            `json:"documents"`
	Participants int            `json:"participants"`
	Degenerate   bool           `json:"degenerate"`
	Weights      domain.Signals `json:"weights"`
	TopFilename  string         `json:"topFilename,omitempty"`
	TopScore     int            `json:"topScore,omitempty"`
}

// RunDetail is a run together with its full ranking.
type RunDetail struct {
	Run
	Ranking domain.Ranking `json:"ranking"`
}

type ListRunsOpts struct {
	Since time.Time // zero means no lower bound
	Limit int
}

// InsertRun persists a ranking and the texts it was computed from. docs must
// be the batch passed to the engine, since records refer to it by Index.
func InsertRun(ctx context.Context, db *sql.DB, source string, docs []domain.Document, r domain.Ranking) (Run, error) {
	run := Run{
		ID:           uuid.NewString(),
		CreatedAt:    time.Now().UTC(),
		Source:       source,
		Documents:    r.Stats.Documents,
		Participants: r.Stats.Participants,
		Degenerate:   r.Stats.Degenerate,
		Weights:      r.Weights,
	}
	if len(r.Records) > 0 {
		run.TopFilename = r.Records[0].Filename
		run.TopScore = r.Records[0].FinalScore
	}

	weightsB, err := json.Marshal(r.Weights)
	if err != nil {
		return Run{}, fmt.Errorf("marshal weights: %w", err)
	}
	issues := r.Issues
	if issues == nil {
		issues = []domain.Issue{}
	}
	issuesB, err := json.Marshal(issues)
	if err != nil {
		return Run{}, fmt.Errorf("marshal issues: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
INSERT INTO runs(id, created_at, source, documents, participants, min_raw, max_raw, degenerate, weights, issues)
VALUES(?,?,?,?,?,?,?,?,?,?);`,
		run.ID, run.CreatedAt.Format(timeLayout), source,
		r.Stats.Documents, r.Stats.Participants, r.Stats.MinRaw, r.Stats.MaxRaw,
		boolToInt(r.Stats.Degenerate), string(weightsB), string(issuesB),
	); err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO results(run_id, position, filename, text, rank, final_score, raw_score,
  breakdown, weighted, closest_peer, closest_similarity, excluded)
VALUES(?,?,?,?,?,?,?,?,?,?,?,?);`)
	if err != nil {
		return Run{}, fmt.Errorf("prepare result insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range r.Records {
		if rec.Index < 0 || rec.Index >= len(docs) {
			return Run{}, fmt.Errorf("record %q: index %d outside batch of %d", rec.Filename, rec.Index, len(docs))
		}
		breakdownB, _ := json.Marshal(rec.Breakdown)
		weightedB, _ := json.Marshal(rec.Weighted)

		if _, err := stmt.ExecContext(ctx,
			run.ID, rec.Index, rec.Filename, docs[rec.Index].Text, rec.Rank, rec.FinalScore, rec.RawScore,
			string(breakdownB), string(weightedB), rec.ClosestPeer, rec.ClosestSimilarity,
			boolToInt(rec.ExcludedFromCorpus),
		); err != nil {
			return Run{}, fmt.Errorf("insert result %q: %w", rec.Filename, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, err
	}
	return run, nil
}

// ListRuns returns runs newest first.
func ListRuns(ctx context.Context, db *sql.DB, opts ListRunsOpts) ([]Run, error) {
	if opts.Limit <= 0 || opts.Limit > 1000 {
		opts.Limit = 100
	}
	since := ""
	if !opts.Since.IsZero() {
		since = opts.Since.UTC().Format(timeLayout)
	}

	rows, err := db.QueryContext(ctx, `
SELECT r.id, r.created_at, r.source, r.documents, r.participants, r.degenerate, r.weights,
  COALESCE(t.filename, ''), COALESCE(t.final_score, 0)
FROM runs r
LEFT JOIN results t ON t.run_id = r.id AND t.rank = 1
WHERE r.created_at >= ?
ORDER BY r.created_at DESC
LIMIT ?;`, since, opts.Limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetRun loads a run with its records ordered by rank.
func GetRun(ctx context.Context, db *sql.DB, id string) (RunDetail, error) {
	row := db.QueryRowContext(ctx, `
SELECT r.id, r.created_at, r.source, r.documents, r.participants, r.degenerate, r.weights,
  COALESCE(t.filename, ''), COALESCE(t.final_score, 0)
FROM runs r
LEFT JOIN results t ON t.run_id = r.id AND t.rank = 1
WHERE r.id = ?;`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return RunDetail{}, fmt.Errorf("get run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return RunDetail{}, fmt.Errorf("get run %s: %w", id, err)
	}

	d := RunDetail{Run: run}
	d.Ranking.Weights = run.Weights

	var issuesJSON string
	if err := db.QueryRowContext(ctx,
		`SELECT min_raw, max_raw, issues FROM runs WHERE id = ?;`, id,
	).Scan(&d.Ranking.Stats.MinRaw, &d.Ranking.Stats.MaxRaw, &issuesJSON); err != nil {
		return RunDetail{}, fmt.Errorf("get run %s stats: %w", id, err)
	}
	if err := json.Unmarshal([]byte(issuesJSON), &d.Ranking.Issues); err != nil {
		return RunDetail{}, fmt.Errorf("get run %s issues: %w", id, err)
	}
	d.Ranking.Stats.Documents = run.Documents
	d.Ranking.Stats.Participants = run.Participants
	d.Ranking.Stats.Degenerate = run.Degenerate

	rows, err := db.QueryContext(ctx, `
SELECT position, filename, rank, final_score, raw_score, breakdown, weighted,
  closest_peer, closest_similarity, excluded
FROM results
WHERE run_id = ?
ORDER BY rank ASC;`, id)
	if err != nil {
		return RunDetail{}, fmt.Errorf("get run %s results: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var rec domain.ScoreRecord
		var breakdownJSON, weightedJSON string
		var excluded int
		if err := rows.Scan(
			&rec.Index,
			&rec.Filename,
			&rec.Rank,
			&rec.FinalScore,
			&rec.RawScore,
			&breakdownJSON,
			&weightedJSON,
			&rec.ClosestPeer,
			&rec.ClosestSimilarity,
			&excluded,
		); err != nil {
			return RunDetail{}, err
		}
		if err := json.Unmarshal([]byte(breakdownJSON), &rec.Breakdown); err != nil {
			return RunDetail{}, fmt.Errorf("get run %s breakdown of %s: %w", id, rec.Filename, err)
		}
		if err := json.Unmarshal([]byte(weightedJSON), &rec.Weighted); err != nil {
			return RunDetail{}, fmt.Errorf("get run %s weighted of %s: %w", id, rec.Filename, err)
		}
		rec.ExcludedFromCorpus = excluded != 0
		d.Ranking.Records = append(d.Ranking.Records, rec)
	}
	if err := rows.Err(); err != nil {
		return RunDetail{}, err
	}
	return d, nil
}

// RunDocuments returns the stored batch of a run in its original order.
func RunDocuments(ctx context.Context, db *sql.DB, id string) ([]domain.Document, error) {
	rows, err := db.QueryContext(ctx, `
SELECT filename, text FROM results WHERE run_id = ? ORDER BY position ASC;`, id)
	if err != nil {
		return nil, fmt.Errorf("run %s documents: %w", id, err)
	}
	defer rows.Close()

	var out []domain.Document
	for rows.Next() {
		var d domain.Document
		if err := rows.Scan(&d.Name, &d.Text); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("run %s documents: %w", id, ErrNotFound)
	}
	return out, nil
}

// DeleteRun removes a run and its results. It reports whether the run existed.
func DeleteRun(ctx context.Context, db *sql.DB, id string) (bool, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM results WHERE run_id = ?;`, id); err != nil {
		return false, fmt.Errorf("delete results of %s: %w", id, err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?;`, id)
	if err != nil {
		return false, fmt.Errorf("delete run %s: %w", id, err)
	}
	n, _ := res.RowsAffected()
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return n > 0, nil
}

// CleanupRunsBefore deletes runs created before cutoff and returns how many
// were removed.
func CleanupRunsBefore(ctx context.Context, db *sql.DB, cutoff time.Time) (deleted int64, err error) {
	c := cutoff.UTC().Format(timeLayout)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
DELETE FROM results
WHERE run_id IN (SELECT id FROM runs WHERE created_at < ?);`, c); err != nil {
		return 0, fmt.Errorf("cleanup old results: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE created_at < ?;`, c)
	if err != nil {
		return 0, fmt.Errorf("cleanup old runs: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, tx.Commit()
}

// CleanupOldRuns deletes runs older than the retention window in days.
func CleanupOldRuns(ctx context.Context, db *sql.DB, days int) (int64, error) {
	if days <= 0 {
		return 0, nil
	}
	return CleanupRunsBefore(ctx, db, time.Now().AddDate(0, 0, -days))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(s rowScanner) (Run, error) {
	var run Run
	var created, weightsJSON string
	var degenerate int
	if err := s.Scan(
		&run.ID,
		&created,
		&run.Source,
		&run.Documents,
		&run.Participants,
		&degenerate,
		&weightsJSON,
		&run.TopFilename,
		&run.TopScore,
	); err != nil {
		return Run{}, err
	}
	t, err := time.Parse(timeLayout, created)
	if err != nil {
		return Run{}, fmt.Errorf("run %s created_at: %w", run.ID, err)
	}
	run.CreatedAt = t
	run.Degenerate = degenerate != 0
	if err := json.Unmarshal([]byte(weightsJSON), &run.Weights); err != nil {
		return Run{}, fmt.Errorf("run %s weights: %w", run.ID, err)
	}
	return run, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
