package destination

import (
	"context"
	"database/sql"
	"fmt"
)

type Repository interface {
	SelectAll(ctx context.Context) ([]Destination, error)
	Upsert(ctx context.Context, d Destination) error
	Update(ctx context.Context, d Destination) error
	Delete(ctx context.Context, id string) error
}

type RepositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) SelectAll(ctx context.Context) ([]Destination, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, color, default_class FROM destinations ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("selecting destinations: %w", err)
	}
	defer rows.Close()

	var destinations []Destination
	for rows.Next() {
		var d Destination
		if err := rows.Scan(&d.ID, &d.Name, &d.Color, &d.DefaultClass); err != nil {
			return nil, fmt.Errorf("scanning destination row: %w", err)
		}
		destinations = append(destinations, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating destination rows: %w", err)
	}
	return destinations, nil
}

func (r *RepositoryImpl) Upsert(ctx context.Context, d Destination) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO destinations (id, name, color, default_class)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			color = excluded.color,
			default_class = excluded.default_class`,
		d.ID, d.Name, d.Color, d.DefaultClass)
	if err != nil {
		return fmt.Errorf("upserting destination %q: %w", d.Name, err)
	}
	return nil
}

func (r *RepositoryImpl) Update(ctx context.Context, d Destination) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE destinations SET name = $1, color = $2, default_class = $3 WHERE id = $4",
		d.Name, d.Color, d.DefaultClass, d.ID)
	if err != nil {
		return fmt.Errorf("updating destination %q: %w", d.ID, err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *RepositoryImpl) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM destinations WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting destination %q: %w", id, err)
	}
	return nil
}
