package offering

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var offeringColumns = []string{
	"id", "host_id", "title", "description", "category", "price", "duration",
	"max_guests", "min_guests", "images", "availability", "is_active", "is_approved",
	"approval_note", "host_approved", "created_at", "updated_at",
}

func setupMock(t *testing.T) (Repository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	repo := NewRepository(sqlxDB)

	closer := func() {
		sqlxDB.Close()
	}

	return repo, mock, closer
}

func offeringRow(rows *sqlmock.Rows, id int, now time.Time) *sqlmock.Rows {
	return rows.AddRow(
		id, 2, "Coffee ceremony", "Traditional jebena buna", "coffee_ceremony",
		`{"amount_cents":150000,"currency":"ETB","unit":"per_person"}`,
		`{"hours":2,"days":0}`,
		6, 1,
		`[{"url":"https://img.example/1.jpg","is_main":true}]`,
		`{"schedule":[{"day":"monday","is_available":true,"time_slots":[{"start_time":"09:00","end_time":"11:00","max_bookings":2}]}],"special_dates":[],"blackout_dates":[]}`,
		true, true, "", true, now, now,
	)
}

func TestCreateOffering(t *testing.T) {
	repo, mock, close := setupMock(t)
	defer close()

	now := time.Now()
	o := &Offering{
		HostID:    2,
		Title:     "Coffee ceremony",
		Category:  CategoryCoffeeCeremony,
		Price:     Price{AmountCents: 150000, Currency: "ETB", Unit: UnitPerPerson},
		MaxGuests: 6,
		MinGuests: 1,
		IsActive:  true,
	}

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO offerings")).
		WithArgs(2, "Coffee ceremony", "", CategoryCoffeeCeremony,
			`{"amount_cents":150000,"currency":"ETB","unit":"per_person"}`,
			sqlmock.AnyArg(), 6, 1, sqlmock.AnyArg(), sqlmock.AnyArg(), true, false).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(11, now, now))

	require.NoError(t, repo.Create(context.Background(), o))
	assert.Equal(t, 11, o.ID)
	assert.Equal(t, now, o.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOfferingByID(t *testing.T) {
	repo, mock, close := setupMock(t)
	defer close()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("JOIN users u ON u.id = o.host_id WHERE o.id = $1")).
		WithArgs(11).
		WillReturnRows(offeringRow(sqlmock.NewRows(offeringColumns), 11, now))

	o, err := repo.GetByID(context.Background(), 11)
	require.NoError(t, err)
	assert.Equal(t, int64(150000), o.Price.AmountCents)
	assert.Equal(t, UnitPerPerson, o.Price.Unit)
	assert.Equal(t, 2, o.Duration.Hours)
	require.Len(t, o.Images, 1)
	require.Len(t, o.Availability.Schedule, 1)
	assert.Equal(t, 2, o.Availability.Schedule[0].TimeSlots[0].MaxBookings)
	assert.True(t, o.Bookable())

	mock.ExpectQuery(regexp.QuoteMeta("WHERE o.id = $1")).
		WithArgs(99).
		WillReturnRows(sqlmock.NewRows(offeringColumns))

	_, err = repo.GetByID(context.Background(), 99)
	assert.ErrorIs(t, err, ErrOfferingNotFound)
}

func TestListPublic(t *testing.T) {
	repo, mock, close := setupMock(t)
	defer close()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE o.is_active AND o.is_approved AND u.host_approved AND o.category = $1 ORDER BY o.created_at DESC LIMIT $2 OFFSET $3")).
		WithArgs(CategoryCoffeeCeremony, 20, 0).
		WillReturnRows(offeringRow(sqlmock.NewRows(offeringColumns), 11, now))

	list, err := repo.ListPublic(context.Background(), ListFilter{Category: CategoryCoffeeCeremony, Limit: 500})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSetApprovalAndDeactivate(t *testing.T) {
	repo, mock, close := setupMock(t)
	defer close()

	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE offerings SET is_approved = $2, approval_note = $3, updated_at = NOW() WHERE id = $1")).
		WithArgs(11, true, "looks great").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.SetApproval(ctx, 11, true, "looks great"))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE offerings SET is_active = FALSE, updated_at = NOW() WHERE id = $1")).
		WithArgs(12).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Deactivate(ctx, 12), ErrOfferingNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}
