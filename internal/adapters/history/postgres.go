package history

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/somaedu/adapt/internal/domain/model"
)

const insertResponse = `
INSERT INTO responses (session_id, student_id, question_id, option_id, area_id, standard_value, answered_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT DO NOTHING`

// PostgresRecorder appends answers to the responses table used as
// training input.
type PostgresRecorder struct {
	pool *pgxpool.Pool
}

// NewPostgresRecorder connects to the database at dsn.
func NewPostgresRecorder(ctx context.Context, dsn string) (*PostgresRecorder, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return &PostgresRecorder{pool: pool}, nil
}

func (r *PostgresRecorder) Record(ctx context.Context, rec model.AnswerRecord) error {
	_, err := r.pool.Exec(ctx, insertResponse,
		rec.SessionID,
		rec.StudentID,
		rec.ItemID,
		rec.OptionID,
		rec.SubjectID,
		rec.RawValue,
		rec.AnsweredAt,
	)
	if err != nil {
		return fmt.Errorf("inserting response %s: %w", rec.RecordID, err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (r *PostgresRecorder) Close() {
	r.pool.Close()
}
