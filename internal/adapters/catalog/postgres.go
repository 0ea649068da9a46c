package catalog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/somaedu/adapt/internal/domain/model"
)

// itemsQuery joins the question bank up to the subject area. Only active
// questions participate in ranking.
const itemsQuery = `
SELECT q.id, a.id, q.statement, s.value
FROM questions q
JOIN standards s ON s.id = q.standard_id
JOIN topics t ON t.id = s.topic_id
JOIN areas a ON a.id = t.area_id
WHERE a.id = $1 AND q.active = TRUE
ORDER BY q.id`

// PostgresCatalog reads the question bank from PostgreSQL.
type PostgresCatalog struct {
	pool *pgxpool.Pool
}

// NewPostgresCatalog connects to the database at dsn and verifies the
// connection with a ping.
func NewPostgresCatalog(ctx context.Context, dsn string) (*PostgresCatalog, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return &PostgresCatalog{pool: pool}, nil
}

func (c *PostgresCatalog) ItemsForSubject(ctx context.Context, subjectID int64) ([]model.Item, error) {
	rows, err := c.pool.Query(ctx, itemsQuery, subjectID)
	if err != nil {
		return nil, fmt.Errorf("querying items for subject %d: %w", subjectID, err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		var it model.Item
		if err := rows.Scan(&it.ID, &it.SubjectID, &it.Statement, &it.StandardValue); err != nil {
			return nil, fmt.Errorf("scanning item row: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading item rows: %w", err)
	}
	return items, nil
}

// Close releases the underlying connection pool.
func (c *PostgresCatalog) Close() {
	c.pool.Close()
}
