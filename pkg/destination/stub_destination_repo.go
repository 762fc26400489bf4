package destination

import (
	"context"
	"database/sql"
)

// StubRepository is an in-memory Repository for tests.
type StubRepository struct {
	Items map[string]Destination

	SelectErr error
	UpsertErr error
	// UpsertErrFor fails upserts for specific destination names only.
	UpsertErrFor map[string]error
	UpdateErr    error
	DeleteErr    error
}

func NewStubRepository() *StubRepository {
	return &StubRepository{Items: make(map[string]Destination)}
}

func (s *StubRepository) SelectAll(ctx context.Context) ([]Destination, error) {
	if s.SelectErr != nil {
		return nil, s.SelectErr
	}
	destinations := make([]Destination, 0, len(s.Items))
	for _, d := range s.Items {
		destinations = append(destinations, d)
	}
	return destinations, nil
}

func (s *StubRepository) Upsert(ctx context.Context, d Destination) error {
	if s.UpsertErr != nil {
		return s.UpsertErr
	}
	if err, ok := s.UpsertErrFor[d.Name]; ok {
		return err
	}
	s.Items[d.ID] = d
	return nil
}

func (s *StubRepository) Update(ctx context.Context, d Destination) error {
	if s.UpdateErr != nil {
		return s.UpdateErr
	}
	if _, ok := s.Items[d.ID]; !ok {
		return sql.ErrNoRows
	}
	s.Items[d.ID] = d
	return nil
}

func (s *StubRepository) Delete(ctx context.Context, id string) error {
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	delete(s.Items, id)
	return nil
}
