package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"lexora-backend/internal/models"
)

type WordRepo struct {
	pool *pgxpool.Pool
}

func NewWordRepo(pool *pgxpool.Pool) *WordRepo {
	return &WordRepo{pool: pool}
}

const wordColumns = `w.id, w.word, w.phonetic, w.meaning, w.example, w.example_translation, w.difficulty, w.created_at`

func scanWord(row pgx.Row, w *models.Word) error {
	return row.Scan(&w.ID, &w.Word, &w.Phonetic, &w.Meaning, &w.Example, &w.ExampleTranslation, &w.Difficulty, &w.CreatedAt)
}

func collectWords(rows pgx.Rows) ([]models.Word, error) {
	defer rows.Close()

	words := []models.Word{}
	for rows.Next() {
		var w models.Word
		if err := scanWord(rows, &w); err != nil {
			return nil, err
		}
		words = append(words, w)
	}
	return words, rows.Err()
}

func (r *WordRepo) ListAllWords(ctx context.Context) ([]models.Word, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+wordColumns+` FROM words w ORDER BY w.difficulty ASC, w.id ASC`)
	if err != nil {
		return nil, err
	}
	return collectWords(rows)
}

// ListUnseenWords returns words the learner has no ledger entry for, easiest first.
func (r *WordRepo) ListUnseenWords(ctx context.Context, userID uuid.UUID, limit int) ([]models.Word, error) {
	query := `SELECT ` + wordColumns + `
		FROM words w
		LEFT JOIN user_word_progress p ON p.word_id = w.id AND p.user_id = $1
		WHERE p.word_id IS NULL
		ORDER BY w.difficulty ASC, w.id ASC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	return collectWords(rows)
}

func (r *WordRepo) GetWordsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Word, error) {
	if len(ids) == 0 {
		return []models.Word{}, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT `+wordColumns+` FROM words w WHERE w.id = ANY($1::uuid[])`, uuidStrings(ids))
	if err != nil {
		return nil, err
	}
	return collectWords(rows)
}

// ListDistractors returns up to limit random words other than excludeID.
func (r *WordRepo) ListDistractors(ctx context.Context, excludeID uuid.UUID, limit int) ([]models.Word, error) {
	query := `SELECT ` + wordColumns + `
		FROM words w
		WHERE w.id <> $1
		ORDER BY random()
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, excludeID, limit)
	if err != nil {
		return nil, err
	}
	return collectWords(rows)
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
