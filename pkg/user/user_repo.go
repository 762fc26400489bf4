package user

import (
	"context"
	"database/sql"
	"fmt"
)

type Repository interface {
	SelectAll(ctx context.Context) ([]User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	Upsert(ctx context.Context, u User) error
	SetApproval(ctx context.Context, email string, approved bool) error
	Delete(ctx context.Context, email string) error
}

type RepositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) SelectAll(ctx context.Context) ([]User, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT email, name, password, role, phone, approved FROM users ORDER BY email")
	if err != nil {
		return nil, fmt.Errorf("selecting users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.Email, &u.Name, &u.Password, &u.Role, &u.Phone, &u.Approved); err != nil {
			return nil, fmt.Errorf("scanning user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating user rows: %w", err)
	}
	return users, nil
}

func (r *RepositoryImpl) FindByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := r.db.QueryRowContext(ctx,
		"SELECT email, name, password, role, phone, approved FROM users WHERE email = $1", email).
		Scan(&u.Email, &u.Name, &u.Password, &u.Role, &u.Phone, &u.Approved)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding user %q: %w", email, err)
	}
	return &u, nil
}

func (r *RepositoryImpl) Upsert(ctx context.Context, u User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (email, name, password, role, phone, approved)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT(email) DO UPDATE SET
			name = excluded.name,
			password = excluded.password,
			role = excluded.role,
			phone = excluded.phone,
			approved = excluded.approved`,
		u.Email, u.Name, u.Password, string(u.Role), u.Phone, u.Approved)
	if err != nil {
		return fmt.Errorf("upserting user %q: %w", u.Email, err)
	}
	return nil
}

func (r *RepositoryImpl) SetApproval(ctx context.Context, email string, approved bool) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE users SET approved = $1 WHERE email = $2", approved, email)
	if err != nil {
		return fmt.Errorf("updating approval of user %q: %w", email, err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *RepositoryImpl) Delete(ctx context.Context, email string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE email = $1", email)
	if err != nil {
		return fmt.Errorf("deleting user %q: %w", email, err)
	}
	return nil
}
