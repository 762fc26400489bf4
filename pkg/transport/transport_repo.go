package transport

import (
	"context"
	"database/sql"
	"fmt"

	log "github.com/sirupsen/logrus"
)

type Repository interface {
	SelectAll(ctx context.Context) ([]Record, error)
	Upsert(ctx context.Context, record Record) error
	UpdateStatus(ctx context.Context, dateKey string, status Status) error
	UpdateSchedule(ctx context.Context, dateKey string, outbound, ret Schedule, stayedOnSite bool) error
	Delete(ctx context.Context, dateKey string) error
}

type RepositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) SelectAll(ctx context.Context) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT date_key, title, school_class, color, status,
		       time_departure_origin, time_departure_destination,
		       time_departure_school, time_arrival_school, stayed_on_site
		FROM transports`)
	if err != nil {
		return nil, fmt.Errorf("selecting transports: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var outbound, ret string
		if err := rows.Scan(&rec.DateKey, &rec.Title, &rec.SchoolClass, &rec.Color, &rec.Status,
			&rec.DepartureOrigin, &rec.DepartureDestination, &outbound, &ret, &rec.StayedOnSite); err != nil {
			return nil, fmt.Errorf("scanning transport row: %w", err)
		}
		rec.Outbound = parseStoredSchedule(rec.DateKey, "time_departure_school", outbound)
		rec.Return = parseStoredSchedule(rec.DateKey, "time_arrival_school", ret)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transport rows: %w", err)
	}
	return records, nil
}

func (r *RepositoryImpl) Upsert(ctx context.Context, record Record) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transports (date_key, title, school_class, color, status,
		                        time_departure_origin, time_departure_destination,
		                        time_departure_school, time_arrival_school, stayed_on_site)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT(date_key) DO UPDATE SET
			title = excluded.title,
			school_class = excluded.school_class,
			color = excluded.color,
			status = excluded.status,
			time_departure_origin = excluded.time_departure_origin,
			time_departure_destination = excluded.time_departure_destination,
			time_departure_school = excluded.time_departure_school,
			time_arrival_school = excluded.time_arrival_school,
			stayed_on_site = excluded.stayed_on_site`,
		record.DateKey, record.Title, record.SchoolClass, record.Color, string(record.Status),
		record.DepartureOrigin, record.DepartureDestination,
		record.Outbound.Encode(), record.Return.Encode(), record.StayedOnSite)
	if err != nil {
		return fmt.Errorf("upserting transport %q: %w", record.DateKey, err)
	}
	return nil
}

func (r *RepositoryImpl) UpdateStatus(ctx context.Context, dateKey string, status Status) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE transports SET status = $1 WHERE date_key = $2", string(status), dateKey)
	if err != nil {
		return fmt.Errorf("updating transport status %q: %w", dateKey, err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *RepositoryImpl) UpdateSchedule(ctx context.Context, dateKey string, outbound, ret Schedule, stayedOnSite bool) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE transports
		SET time_departure_school = $1, time_arrival_school = $2, stayed_on_site = $3
		WHERE date_key = $4`,
		outbound.Encode(), ret.Encode(), stayedOnSite, dateKey)
	if err != nil {
		return fmt.Errorf("updating transport schedule %q: %w", dateKey, err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *RepositoryImpl) Delete(ctx context.Context, dateKey string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM transports WHERE date_key = $1", dateKey)
	if err != nil {
		return fmt.Errorf("deleting transport %q: %w", dateKey, err)
	}
	return nil
}

// parseStoredSchedule tolerates malformed schedule text left behind by older
// clients: the row still loads, the leg just comes back empty.
func parseStoredSchedule(dateKey, column, raw string) Schedule {
	schedule, err := ParseSchedule(raw)
	if err != nil {
		log.Warnf("Ignoring malformed %s on transport %q: %v", column, dateKey, err)
		return Schedule{}
	}
	return schedule
}
