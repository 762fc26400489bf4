package transport

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navette/navette/internal/test_utils"
)

func TestRepository_UpsertAndSelectAll(t *testing.T) {
	db := test_utils.SetupTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	record := Record{
		DateKey: "2025-5-10",
		Event: Event{
			Title:                "Sortie musée",
			SchoolClass:          "CM2",
			Color:                "#8b5cf6",
			Status:               StatusPending,
			DepartureOrigin:      "08:15",
			DepartureDestination: "Musée d'Orsay",
			Outbound:             Schedule{Steps: []Step{{Time: "08:15", Location: "Ecole"}, {Time: "09:00", Location: "Musée"}}},
		},
	}
	require.NoError(t, repo.Upsert(ctx, record))

	records, err := repo.SelectAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, record.DateKey, records[0].DateKey)
	assert.Equal(t, record.Title, records[0].Title)
	assert.Equal(t, record.Outbound, records[0].Outbound)
	assert.True(t, records[0].Return.IsZero())
}

func TestRepository_UpsertOverwritesExistingDay(t *testing.T) {
	db := test_utils.SetupTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, Record{DateKey: "2025-5-10", Event: Event{Title: "Sortie musée", Status: StatusPending}}))
	require.NoError(t, repo.Upsert(ctx, Record{DateKey: "2025-5-10", Event: Event{Title: "Sortie piscine", Status: StatusValidated}}))

	records, err := repo.SelectAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Sortie piscine", records[0].Title)
	assert.Equal(t, StatusValidated, records[0].Status)
}

func TestRepository_SelectAll_ToleratesMalformedSchedule(t *testing.T) {
	db := test_utils.SetupTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	_, err := db.Exec(
		"INSERT INTO transports (date_key, title, time_departure_school) VALUES ($1, $2, $3)",
		"2025-5-11", "Sortie théâtre", "{broken")
	require.NoError(t, err)

	records, err := repo.SelectAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, records[0].Outbound.IsZero())
}

func TestRepository_UpdateStatus(t *testing.T) {
	db := test_utils.SetupTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, Record{DateKey: "2025-5-10", Event: Event{Title: "Sortie", Status: StatusPending}}))
	require.NoError(t, repo.UpdateStatus(ctx, "2025-5-10", StatusValidated))

	records, err := repo.SelectAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusValidated, records[0].Status)

	err = repo.UpdateStatus(ctx, "2099-0-1", StatusValidated)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestRepository_UpdateSchedule(t *testing.T) {
	db := test_utils.SetupTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, Record{DateKey: "2025-5-10", Event: Event{Title: "Sortie"}}))

	outbound := Schedule{Steps: []Step{{Time: "08:00", Location: "Ecole"}, {Time: "09:00", Location: "Piscine"}}}
	ret := Schedule{Steps: []Step{{Time: "16:00", Location: "Piscine"}, {Time: "17:00", Location: "Ecole"}}}
	require.NoError(t, repo.UpdateSchedule(ctx, "2025-5-10", outbound, ret, true))

	records, err := repo.SelectAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, outbound, records[0].Outbound)
	assert.Equal(t, ret, records[0].Return)
	assert.True(t, records[0].StayedOnSite)

	err = repo.UpdateSchedule(ctx, "2099-0-1", outbound, ret, false)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestRepository_Delete(t *testing.T) {
	db := test_utils.SetupTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, Record{DateKey: "2025-5-10", Event: Event{Title: "Sortie"}}))
	require.NoError(t, repo.Delete(ctx, "2025-5-10"))

	records, err := repo.SelectAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)

	// deleting an absent row is not an error
	assert.NoError(t, repo.Delete(ctx, "2025-5-10"))
}
