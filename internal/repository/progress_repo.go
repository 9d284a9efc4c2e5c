package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"lexora-backend/internal/mastery"
	"lexora-backend/internal/models"
)

// ProgressRepo is the mastery ledger, one row per (user, word).
type ProgressRepo struct {
	pool *pgxpool.Pool
}

func NewProgressRepo(pool *pgxpool.Pool) *ProgressRepo {
	return &ProgressRepo{pool: pool}
}

const progressColumns = `p.user_id, p.word_id, p.mastery_score, p.review_count, p.error_count,
	p.consecutive_correct, p.learning_sessions, p.last_reviewed_at, p.next_review_at, p.version, p.updated_at`

func scanProgress(row pgx.Row, p *models.WordProgress) error {
	return row.Scan(
		&p.UserID, &p.WordID, &p.MasteryScore, &p.ReviewCount, &p.ErrorCount,
		&p.ConsecutiveCorrect, &p.LearningSessions, &p.LastReviewedAt, &p.NextReviewAt, &p.Version, &p.UpdatedAt,
	)
}

func collectProgress(rows pgx.Rows) ([]models.WordProgress, error) {
	defer rows.Close()

	var entries []models.WordProgress
	for rows.Next() {
		var p models.WordProgress
		if err := scanProgress(rows, &p); err != nil {
			return nil, err
		}
		entries = append(entries, p)
	}
	return entries, rows.Err()
}

func (r *ProgressRepo) GetDueEntries(ctx context.Context, userID uuid.UUID, now time.Time, limit int) ([]models.WordProgress, error) {
	query := `SELECT ` + progressColumns + `
		FROM user_word_progress p
		WHERE p.user_id = $1 AND p.next_review_at <= $2
		ORDER BY p.next_review_at ASC, p.word_id ASC
		LIMIT $3`

	rows, err := r.pool.Query(ctx, query, userID, now, limit)
	if err != nil {
		return nil, err
	}
	return collectProgress(rows)
}

func (r *ProgressRepo) GetHighestErrorEntries(ctx context.Context, userID uuid.UUID, limit int) ([]models.WordProgress, error) {
	query := `SELECT ` + progressColumns + `
		FROM user_word_progress p
		WHERE p.user_id = $1
		ORDER BY p.error_count DESC, p.last_reviewed_at ASC NULLS FIRST, p.word_id ASC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	return collectProgress(rows)
}

func (r *ProgressRepo) GetEntry(ctx context.Context, userID, wordID uuid.UUID) (*models.WordProgress, error) {
	p := &models.WordProgress{}
	query := `SELECT ` + progressColumns + ` FROM user_word_progress p WHERE p.user_id = $1 AND p.word_id = $2`

	err := scanProgress(r.pool.QueryRow(ctx, query, userID, wordID), p)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// UpsertEntry writes entry guarded by its version. Version 0 means the entry
// was absent when read; any other value must match the stored row.
func (r *ProgressRepo) UpsertEntry(ctx context.Context, entry *models.WordProgress) error {
	var (
		version   int
		updatedAt time.Time
		err       error
	)

	if entry.Version == 0 {
		err = r.pool.QueryRow(ctx, `
			INSERT INTO user_word_progress (user_id, word_id, mastery_score, review_count, error_count,
				consecutive_correct, learning_sessions, last_reviewed_at, next_review_at, version)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 1)
			ON CONFLICT (user_id, word_id) DO NOTHING
			RETURNING version, updated_at
		`, entry.UserID, entry.WordID, entry.MasteryScore, entry.ReviewCount, entry.ErrorCount,
			entry.ConsecutiveCorrect, entry.LearningSessions, entry.LastReviewedAt, entry.NextReviewAt,
		).Scan(&version, &updatedAt)
	} else {
		err = r.pool.QueryRow(ctx, `
			UPDATE user_word_progress
			SET mastery_score = $3, review_count = $4, error_count = $5, consecutive_correct = $6,
				learning_sessions = $7, last_reviewed_at = $8, next_review_at = $9,
				version = version + 1, updated_at = NOW()
			WHERE user_id = $1 AND word_id = $2 AND version = $10
			RETURNING version, updated_at
		`, entry.UserID, entry.WordID, entry.MasteryScore, entry.ReviewCount, entry.ErrorCount,
			entry.ConsecutiveCorrect, entry.LearningSessions, entry.LastReviewedAt, entry.NextReviewAt, entry.Version,
		).Scan(&version, &updatedAt)
	}

	if err != nil {
		return mapUpsertError(err, entry)
	}

	entry.Version = version
	entry.UpdatedAt = &updatedAt
	return nil
}

// pgForeignKeyViolation is SQLSTATE foreign_key_violation.
const pgForeignKeyViolation = "23503"

// mapUpsertError translates ledger write failures into engine errors. A lost
// version race surfaces as no returned row; a word removed from the catalog
// after the caller resolved it surfaces as a foreign key violation.
func mapUpsertError(err error, entry *models.WordProgress) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: user %s word %s", mastery.ErrConcurrentUpdate, entry.UserID, entry.WordID)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
		return fmt.Errorf("%w: word %s", mastery.ErrUnknownItem, entry.WordID)
	}
	return err
}

func (r *ProgressRepo) GetStats(ctx context.Context, userID uuid.UUID, now time.Time) (*models.LearnerStats, error) {
	stats := &models.LearnerStats{}

	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(review_count), 0), COALESCE(SUM(error_count), 0),
			COALESCE(AVG(mastery_score), 0)::float8,
			COUNT(*) FILTER (WHERE next_review_at <= $2)
		FROM user_word_progress
		WHERE user_id = $1
	`, userID, now).Scan(&stats.TotalWords, &stats.TotalReviews, &stats.TotalErrors, &stats.AvgMastery, &stats.NeedReview)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT mastery_score, COUNT(*) FROM user_word_progress
		WHERE user_id = $1 GROUP BY mastery_score
	`, userID)
	if err != nil {
		return nil, err
	}
	counts := make(map[int]int)
	for rows.Next() {
		var score, count int
		if err := rows.Scan(&score, &count); err != nil {
			rows.Close()
			return nil, err
		}
		counts[mastery.Bucket(score)] += count
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	stats.MasteryDistribution = masteryBands(counts)

	rows, err = r.pool.Query(ctx, `
		SELECT `+wordColumns+`
		FROM user_word_progress p
		JOIN words w ON w.id = p.word_id
		WHERE p.user_id = $1
		ORDER BY p.last_reviewed_at DESC NULLS LAST, w.id ASC
		LIMIT 10
	`, userID)
	if err != nil {
		return nil, err
	}
	stats.RecentWords, err = collectWords(rows)
	if err != nil {
		return nil, err
	}

	return stats, nil
}

func masteryBands(counts map[int]int) []models.MasteryBand {
	bands := make([]models.MasteryBand, 0, len(counts))
	for band, count := range counts {
		bands = append(bands, models.MasteryBand{Band: band, Count: count})
	}
	sort.Slice(bands, func(i, j int) bool { return bands[i].Band < bands[j].Band })
	return bands
}

// ListExportRows joins the whole catalog with the learner's ledger, ordered by word.
func (r *ProgressRepo) ListExportRows(ctx context.Context, userID uuid.UUID) ([]models.ExportRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT w.word, w.phonetic, w.meaning, w.example, w.example_translation, w.difficulty,
			COALESCE(p.mastery_score, 0), COALESCE(p.review_count, 0), COALESCE(p.error_count, 0),
			p.last_reviewed_at, p.next_review_at
		FROM words w
		LEFT JOIN user_word_progress p ON p.word_id = w.id AND p.user_id = $1
		ORDER BY w.word ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.ExportRow{}
	for rows.Next() {
		var e models.ExportRow
		if err := rows.Scan(
			&e.Word, &e.Phonetic, &e.Meaning, &e.Example, &e.ExampleTranslation, &e.Difficulty,
			&e.MasteryScore, &e.ReviewCount, &e.ErrorCount, &e.LastReviewedAt, &e.NextReviewAt,
		); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListLearnersWithDue returns every learner with at least one due entry.
func (r *ProgressRepo) ListLearnersWithDue(ctx context.Context, now time.Time) ([]models.DueSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT user_id, COUNT(*) FROM user_word_progress
		WHERE next_review_at <= $1
		GROUP BY user_id
		ORDER BY user_id
	`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.DueSummary
	for rows.Next() {
		var d models.DueSummary
		if err := rows.Scan(&d.UserID, &d.DueCount); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
