package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/kidario/kidario-api/internal/models"
)

// MarketplaceRepository serves the public reader queries over active
// teachers. Only rows with is_active_teacher set are visible here.
type MarketplaceRepository struct {
	db *sqlx.DB
	queryTimer
}

// NewMarketplaceRepository constructs a MarketplaceRepository.
func NewMarketplaceRepository(db *sqlx.DB, obs QueryObserver) *MarketplaceRepository {
	return &MarketplaceRepository{db: db, queryTimer: queryTimer{obs: obs}}
}

const marketplaceTeacherColumns = `tp.profile_id AS id,
		COALESCE(NULLIF(TRIM(CONCAT_WS(' ', p.first_name, p.last_name)), ''), 'Professora Kidario') AS name,
		tp.profile_photo_file_name AS avatar_url,
		tp.hourly_rate, tp.modality, tp.city, tp.state, tp.mini_bio,
		tp.lesson_duration_minutes, tp.is_active_teacher, tp.request_experience_anonymity,
		COALESCE(spec.specialties, '{}'::text[]) AS specialties,
		COALESCE(exp.experience_count, 0) AS experience_count`

const marketplaceTeacherJoins = `FROM teacher_profiles tp
		JOIN profiles p ON p.id = tp.profile_id
		LEFT JOIN LATERAL (
			SELECT array_agg(s.specialty ORDER BY s.specialty) AS specialties
			FROM teacher_specialties s WHERE s.profile_id = tp.profile_id
		) spec ON true
		LEFT JOIN LATERAL (
			SELECT COUNT(*)::int AS experience_count
			FROM teacher_experiences ex WHERE ex.profile_id = tp.profile_id
		) exp ON true`

// ListActiveTeachers returns every active teacher row for the listing.
func (r *MarketplaceRepository) ListActiveTeachers(ctx context.Context) ([]models.MarketplaceTeacherRow, error) {
	defer r.observe("marketplace.list", time.Now())
	query := `SELECT ` + marketplaceTeacherColumns + `
		` + marketplaceTeacherJoins + `
		WHERE tp.is_active_teacher = true
		ORDER BY name ASC`
	var rows []models.MarketplaceTeacherRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list active teachers: %w", err)
	}
	return rows, nil
}

// FindActiveTeacher fetches one active teacher row, or sql.ErrNoRows when
// the teacher does not exist or is not active.
func (r *MarketplaceRepository) FindActiveTeacher(ctx context.Context, id string) (*models.MarketplaceTeacherRow, error) {
	defer r.observe("marketplace.detail", time.Now())
	query := `SELECT ` + marketplaceTeacherColumns + `
		` + marketplaceTeacherJoins + `
		WHERE tp.profile_id = $1 AND tp.is_active_teacher = true`
	var row models.MarketplaceTeacherRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, err
	}
	return &row, nil
}

// ListActiveTeacherWindows returns the availability windows of every active
// teacher in one query, for listing-level next-availability labels.
func (r *MarketplaceRepository) ListActiveTeacherWindows(ctx context.Context) ([]models.AvailabilityWindow, error) {
	defer r.observe("marketplace.windows", time.Now())
	const query = `SELECT ta.id, ta.profile_id, ta.day_of_week, ta.start_time, ta.end_time
		FROM teacher_availability ta
		JOIN teacher_profiles tp ON tp.profile_id = ta.profile_id
		WHERE tp.is_active_teacher = true
		ORDER BY ta.profile_id, ta.day_of_week ASC, ta.start_time ASC`
	var windows []models.AvailabilityWindow
	if err := r.db.SelectContext(ctx, &windows, query); err != nil {
		return nil, fmt.Errorf("list active teacher windows: %w", err)
	}
	return windows, nil
}
