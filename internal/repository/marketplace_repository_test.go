package repository

import (
	"context"
	"database/sql"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMarketplaceMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func marketplaceColumns() []string {
	return []string{"id", "name", "avatar_url", "hourly_rate", "modality", "city", "state",
		"mini_bio", "lesson_duration_minutes", "is_active_teacher",
		"request_experience_anonymity", "specialties", "experience_count"}
}

func TestMarketplaceListActiveTeachers(t *testing.T) {
	db, mock, cleanup := newMarketplaceMock(t)
	defer cleanup()
	repo := NewMarketplaceRepository(db, nil)

	mock.ExpectQuery(`WHERE tp.is_active_teacher = true\s+ORDER BY name ASC`).
		WillReturnRows(sqlmock.NewRows(marketplaceColumns()).
			AddRow("teacher-1", "Clara Souza", nil, 90.0, "hibrido", "Sao Paulo", "SP",
				"bio", 60, true, false, "{Alfabetizacao,Matematica}", 2))

	rows, err := repo.ListActiveTeachers(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Clara Souza", rows[0].Name)
	assert.Equal(t, []string{"Alfabetizacao", "Matematica"}, []string(rows[0].Specialties))
	assert.Equal(t, 2, rows[0].ExperienceCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarketplaceFindActiveTeacherNotFound(t *testing.T) {
	db, mock, cleanup := newMarketplaceMock(t)
	defer cleanup()
	repo := NewMarketplaceRepository(db, nil)

	mock.ExpectQuery(`WHERE tp.profile_id = \$1 AND tp.is_active_teacher = true`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(marketplaceColumns()))

	_, err := repo.FindActiveTeacher(context.Background(), "missing")
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestAvailabilityListBookedTimes(t *testing.T) {
	db, mock, cleanup := newMarketplaceMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db, nil)

	mock.ExpectQuery(`FROM bookings\s+WHERE teacher_profile_id = \$1 AND date_iso BETWEEN`).
		WithArgs("teacher-1", "2025-09-01", "2025-09-07").
		WillReturnRows(sqlmock.NewRows([]string{"date_iso", "time"}).
			AddRow("2025-09-01", "10:00:00"))

	booked, err := repo.ListBookedTimes(context.Background(), "teacher-1", "2025-09-01", "2025-09-07")
	require.NoError(t, err)
	require.Len(t, booked, 1)
	assert.Equal(t, "2025-09-01", booked[0].DateISO)
	assert.NoError(t, mock.ExpectationsWereMet())
}
