package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/kidario/kidario-api/internal/models"
)

// AvailabilityRepository reads teacher availability windows and the booked
// times that mask them.
type AvailabilityRepository struct {
	db *sqlx.DB
	queryTimer
}

// NewAvailabilityRepository constructs an AvailabilityRepository.
func NewAvailabilityRepository(db *sqlx.DB, obs QueryObserver) *AvailabilityRepository {
	return &AvailabilityRepository{db: db, queryTimer: queryTimer{obs: obs}}
}

// ListWindows returns the teacher's weekly windows ordered by day and start.
func (r *AvailabilityRepository) ListWindows(ctx context.Context, teacherID string) ([]models.AvailabilityWindow, error) {
	defer r.observe("availability.windows", time.Now())
	const query = `SELECT id, profile_id, day_of_week, start_time, end_time
		FROM teacher_availability WHERE profile_id = $1
		ORDER BY day_of_week ASC, start_time ASC`
	var windows []models.AvailabilityWindow
	if err := r.db.SelectContext(ctx, &windows, query, teacherID); err != nil {
		return nil, fmt.Errorf("list availability windows: %w", err)
	}
	return windows, nil
}

// ListBookedTimes returns the active bookings of a teacher inside the
// inclusive date range as (date, time) pairs.
func (r *AvailabilityRepository) ListBookedTimes(ctx context.Context, teacherID, fromISO, toISO string) ([]models.BookedTime, error) {
	defer r.observe("availability.booked_times", time.Now())
	const query = `SELECT to_char(date_iso, 'YYYY-MM-DD') AS date_iso, "time"
		FROM bookings
		WHERE teacher_profile_id = $1 AND date_iso BETWEEN $2 AND $3
		AND status IN ` + activeStatuses
	var booked []models.BookedTime
	if err := r.db.SelectContext(ctx, &booked, query, teacherID, fromISO, toISO); err != nil {
		return nil, fmt.Errorf("list booked times: %w", err)
	}
	return booked, nil
}
