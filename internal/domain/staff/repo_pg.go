package staff

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const staffCols = `id, name, role, status, COALESCE(department, ''), created_at`

func (r *repoPG) List(ctx context.Context) ([]*Staff, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+staffCols+` FROM staff ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Staff
	for rows.Next() {
		var s Staff
		if err := rows.Scan(&s.ID, &s.Name, &s.Role, &s.Status, &s.Department, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Staff, error) {
	var s Staff
	err := r.pool.QueryRow(ctx, `SELECT `+staffCols+` FROM staff WHERE id = $1`, id).
		Scan(&s.ID, &s.Name, &s.Role, &s.Status, &s.Department, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}
