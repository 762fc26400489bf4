package user

import (
	"context"
	"database/sql"
)

// StubRepository is an in-memory Repository for tests.
type StubRepository struct {
	Users map[string]User

	SelectErr error
	UpsertErr error
}

func NewStubRepository() *StubRepository {
	return &StubRepository{Users: make(map[string]User)}
}

func (s *StubRepository) SelectAll(ctx context.Context) ([]User, error) {
	if s.SelectErr != nil {
		return nil, s.SelectErr
	}
	users := make([]User, 0, len(s.Users))
	for _, u := range s.Users {
		users = append(users, u)
	}
	return users, nil
}

func (s *StubRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	if s.SelectErr != nil {
		return nil, s.SelectErr
	}
	u, ok := s.Users[email]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (s *StubRepository) Upsert(ctx context.Context, u User) error {
	if s.UpsertErr != nil {
		return s.UpsertErr
	}
	s.Users[u.Email] = u
	return nil
}

func (s *StubRepository) SetApproval(ctx context.Context, email string, approved bool) error {
	u, ok := s.Users[email]
	if !ok {
		return sql.ErrNoRows
	}
	u.Approved = approved
	s.Users[email] = u
	return nil
}

func (s *StubRepository) Delete(ctx context.Context, email string) error {
	delete(s.Users, email)
	return nil
}
