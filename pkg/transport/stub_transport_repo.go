package transport

import (
	"context"
	"database/sql"
)

// StubRepository is an in-memory Repository for tests. Set the Err fields to
// force failures on specific operations.
type StubRepository struct {
	Records map[string]Record

	SelectErr error
	UpsertErr error
	// UpsertErrFor fails upserts for specific date keys only.
	UpsertErrFor map[string]error
	UpdateErr    error
	DeleteErr    error
}

func NewStubRepository() *StubRepository {
	return &StubRepository{Records: make(map[string]Record)}
}

func (s *StubRepository) SelectAll(ctx context.Context) ([]Record, error) {
	if s.SelectErr != nil {
		return nil, s.SelectErr
	}
	records := make([]Record, 0, len(s.Records))
	for _, rec := range s.Records {
		records = append(records, rec)
	}
	return records, nil
}

func (s *StubRepository) Upsert(ctx context.Context, record Record) error {
	if s.UpsertErr != nil {
		return s.UpsertErr
	}
	if err, ok := s.UpsertErrFor[record.DateKey]; ok {
		return err
	}
	s.Records[record.DateKey] = record
	return nil
}

func (s *StubRepository) UpdateStatus(ctx context.Context, dateKey string, status Status) error {
	if s.UpdateErr != nil {
		return s.UpdateErr
	}
	rec, ok := s.Records[dateKey]
	if !ok {
		return sql.ErrNoRows
	}
	rec.Status = status
	s.Records[dateKey] = rec
	return nil
}

func (s *StubRepository) UpdateSchedule(ctx context.Context, dateKey string, outbound, ret Schedule, stayedOnSite bool) error {
	if s.UpdateErr != nil {
		return s.UpdateErr
	}
	rec, ok := s.Records[dateKey]
	if !ok {
		return sql.ErrNoRows
	}
	rec.Outbound = outbound
	rec.Return = ret
	rec.StayedOnSite = stayedOnSite
	s.Records[dateKey] = rec
	return nil
}

func (s *StubRepository) Delete(ctx context.Context, dateKey string) error {
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	delete(s.Records, dateKey)
	return nil
}
