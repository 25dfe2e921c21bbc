package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/kidario/kidario-api/internal/models"
)

// BookingRepository manages booking rows and their follow-up records.
type BookingRepository struct {
	db *sqlx.DB
	queryTimer
}

// NewBookingRepository constructs a BookingRepository.
func NewBookingRepository(db *sqlx.DB, obs QueryObserver) *BookingRepository {
	return &BookingRepository{db: db, queryTimer: queryTimer{obs: obs}}
}

const activeStatuses = `('pendente', 'confirmada')`

// CreateIfSlotFree inserts the booking inside a transaction after verifying
// no active booking occupies the same (teacher, date, time) slot. Returns
// ErrSlotTaken when the slot is occupied. The booking id is generated here.
func (r *BookingRepository) CreateIfSlotFree(ctx context.Context, booking *models.Booking) error {
	defer r.observe("bookings.create", time.Now())
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin booking create: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var taken bool
	err = tx.GetContext(ctx, &taken,
		`SELECT EXISTS(SELECT 1 FROM bookings
			WHERE teacher_profile_id = $1 AND date_iso = $2 AND "time" = $3
			AND status IN `+activeStatuses+`)`,
		booking.TeacherProfileID, booking.DateISO, booking.Time)
	if err != nil {
		return fmt.Errorf("check slot: %w", err)
	}
	if taken {
		return ErrSlotTaken
	}

	booking.ID = newID()
	err = tx.GetContext(ctx, booking,
		`INSERT INTO bookings (id, parent_profile_id, child_id, teacher_profile_id, date_iso, "time",
			duration_minutes, modality, status, payment_method, payment_status, price_total, currency)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, parent_profile_id, child_id, teacher_profile_id,
			to_char(date_iso, 'YYYY-MM-DD') AS date_iso, "time", duration_minutes, modality,
			status, payment_method, payment_status, price_total, currency, cancellation_reason,
			created_at, updated_at`,
		booking.ID, booking.ParentProfileID, booking.ChildID, booking.TeacherProfileID,
		booking.DateISO, booking.Time, booking.DurationMinutes, booking.Modality, booking.Status,
		booking.PaymentMethod, booking.PaymentStatus, booking.PriceTotal, booking.Currency)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit booking create: %w", err)
	}
	return nil
}

// FindDetailRow fetches the booking joined with child and teacher display
// data. Returns sql.ErrNoRows when the booking does not exist.
func (r *BookingRepository) FindDetailRow(ctx context.Context, id string) (*models.BookingDetailRow, error) {
	defer r.observe("bookings.detail", time.Now())
	const query = `SELECT b.id, b.parent_profile_id, b.child_id, b.teacher_profile_id,
			to_char(b.date_iso, 'YYYY-MM-DD') AS date_iso, b."time", b.duration_minutes, b.modality,
			b.status, b.payment_method, b.payment_status, b.price_total, b.currency,
			b.cancellation_reason, b.created_at, b.updated_at,
			c.name AS child_name,
			p.first_name AS teacher_first_name, p.last_name AS teacher_last_name,
			tp.profile_photo_file_name AS teacher_avatar_url,
			COALESCE((SELECT ts.specialty FROM teacher_specialties ts
				WHERE ts.profile_id = b.teacher_profile_id ORDER BY ts.created_at ASC LIMIT 1),
				'Apoio pedagogico') AS specialty
		FROM bookings b
		JOIN parent_children c ON c.id = b.child_id
		JOIN profiles p ON p.id = b.teacher_profile_id
		LEFT JOIN teacher_profiles tp ON tp.profile_id = b.teacher_profile_id
		WHERE b.id = $1`
	var row models.BookingDetailRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, err
	}
	return &row, nil
}

// FindFollowUp fetches the follow-up attached to a booking, or sql.ErrNoRows.
func (r *BookingRepository) FindFollowUp(ctx context.Context, bookingID string) (*models.FollowUp, error) {
	defer r.observe("bookings.follow_up", time.Now())
	const query = `SELECT booking_id, teacher_profile_id, child_id, summary, next_steps, tags, attention_points, updated_at
		FROM booking_follow_ups WHERE booking_id = $1`
	var followUp models.FollowUp
	if err := r.db.GetContext(ctx, &followUp, query, bookingID); err != nil {
		return nil, err
	}
	return &followUp, nil
}

// ParentAgenda lists the parent's lessons, optionally filtered to a child.
// The upcoming tab keeps rows dated today or later; past keeps earlier rows.
func (r *BookingRepository) ParentAgenda(ctx context.Context, parentID, tab string, childID *string) ([]models.ParentAgendaLesson, error) {
	defer r.observe("bookings.parent_agenda", time.Now())
	query := `SELECT b.id, b.teacher_profile_id AS teacher_id,
			COALESCE(NULLIF(TRIM(CONCAT_WS(' ', p.first_name, p.last_name)), ''), 'Professora Kidario') AS teacher_name,
			tp.profile_photo_file_name AS teacher_avatar_url,
			COALESCE((SELECT ts.specialty FROM teacher_specialties ts
				WHERE ts.profile_id = b.teacher_profile_id ORDER BY ts.created_at ASC LIMIT 1),
				'Apoio pedagogico') AS specialty,
			b.child_id, c.name AS child_name,
			to_char(b.date_iso, 'YYYY-MM-DD') AS date_iso, b."time", b.modality, b.status,
			b.created_at AS created_at_iso, b.updated_at AS updated_at_iso
		FROM bookings b
		JOIN parent_children c ON c.id = b.child_id
		JOIN profiles p ON p.id = b.teacher_profile_id
		LEFT JOIN teacher_profiles tp ON tp.profile_id = b.teacher_profile_id
		WHERE b.parent_profile_id = $1`
	args := []any{parentID}

	direction := "ASC"
	if tab == "past" {
		query += ` AND b.date_iso < CURRENT_DATE`
		direction = "DESC"
	} else {
		query += ` AND b.date_iso >= CURRENT_DATE`
	}
	if childID != nil {
		args = append(args, *childID)
		query += fmt.Sprintf(` AND b.child_id = $%d`, len(args))
	}
	query += fmt.Sprintf(` ORDER BY b.date_iso %s, b."time" %s`, direction, direction)

	var lessons []models.ParentAgendaLesson
	if err := r.db.SelectContext(ctx, &lessons, query, args...); err != nil {
		return nil, fmt.Errorf("list parent agenda: %w", err)
	}
	return lessons, nil
}

// TeacherAgenda lists the teacher's lessons, optionally filtered by status.
func (r *BookingRepository) TeacherAgenda(ctx context.Context, teacherID, tab string, status *models.BookingStatus) ([]models.TeacherAgendaLesson, error) {
	defer r.observe("bookings.teacher_agenda", time.Now())
	query := `SELECT b.id, b.parent_profile_id, b.child_id, c.name AS child_name, c.age AS child_age,
			to_char(b.date_iso, 'YYYY-MM-DD') AS date_iso, b."time", b.duration_minutes, b.modality, b.status
		FROM bookings b
		JOIN parent_children c ON c.id = b.child_id
		WHERE b.teacher_profile_id = $1`
	args := []any{teacherID}

	direction := "ASC"
	if tab == "past" {
		query += ` AND b.date_iso < CURRENT_DATE`
		direction = "DESC"
	} else {
		query += ` AND b.date_iso >= CURRENT_DATE`
	}
	if status != nil {
		args = append(args, *status)
		query += fmt.Sprintf(` AND b.status = $%d`, len(args))
	}
	query += fmt.Sprintf(` ORDER BY b.date_iso %s, b."time" %s`, direction, direction)

	var lessons []models.TeacherAgendaLesson
	if err := r.db.SelectContext(ctx, &lessons, query, args...); err != nil {
		return nil, fmt.Errorf("list teacher agenda: %w", err)
	}
	return lessons, nil
}

// Reschedule moves the booking to a new slot inside a transaction. The
// conflict check excludes the booking's own row. Returns ErrSlotTaken when
// another active booking holds the target slot.
func (r *BookingRepository) Reschedule(ctx context.Context, booking *models.Booking, dateISO, timeValue string) error {
	defer r.observe("bookings.reschedule", time.Now())
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reschedule: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var taken bool
	err = tx.GetContext(ctx, &taken,
		`SELECT EXISTS(SELECT 1 FROM bookings
			WHERE teacher_profile_id = $1 AND date_iso = $2 AND "time" = $3
			AND status IN `+activeStatuses+` AND id <> $4)`,
		booking.TeacherProfileID, dateISO, timeValue, booking.ID)
	if err != nil {
		return fmt.Errorf("check slot: %w", err)
	}
	if taken {
		return ErrSlotTaken
	}

	err = tx.GetContext(ctx, booking,
		`UPDATE bookings SET date_iso = $2, "time" = $3, updated_at = now()
		WHERE id = $1
		RETURNING id, parent_profile_id, child_id, teacher_profile_id,
			to_char(date_iso, 'YYYY-MM-DD') AS date_iso, "time", duration_minutes, modality,
			status, payment_method, payment_status, price_total, currency, cancellation_reason,
			created_at, updated_at`,
		booking.ID, dateISO, timeValue)
	if err != nil {
		return fmt.Errorf("update booking slot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reschedule: %w", err)
	}
	return nil
}

// Cancel marks the booking cancelled and stores the optional reason.
func (r *BookingRepository) Cancel(ctx context.Context, booking *models.Booking, reason *string) error {
	defer r.observe("bookings.cancel", time.Now())
	err := r.db.GetContext(ctx, booking,
		`UPDATE bookings SET status = $2, cancellation_reason = $3, updated_at = now()
		WHERE id = $1
		RETURNING id, parent_profile_id, child_id, teacher_profile_id,
			to_char(date_iso, 'YYYY-MM-DD') AS date_iso, "time", duration_minutes, modality,
			status, payment_method, payment_status, price_total, currency, cancellation_reason,
			created_at, updated_at`,
		booking.ID, models.BookingStatusCancelled, reason)
	if err != nil {
		return fmt.Errorf("cancel booking: %w", err)
	}
	return nil
}

// CompleteWithFollowUp upserts the follow-up and flips the booking to
// completed, both inside one transaction.
func (r *BookingRepository) CompleteWithFollowUp(ctx context.Context, booking *models.Booking, followUp *models.FollowUp) error {
	defer r.observe("bookings.complete", time.Now())
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin complete: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	err = tx.GetContext(ctx, followUp,
		`INSERT INTO booking_follow_ups (id, booking_id, teacher_profile_id, child_id, summary, next_steps, tags, attention_points)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (booking_id) DO UPDATE SET
			summary = EXCLUDED.summary, next_steps = EXCLUDED.next_steps,
			tags = EXCLUDED.tags, attention_points = EXCLUDED.attention_points, updated_at = now()
		RETURNING booking_id, teacher_profile_id, child_id, summary, next_steps, tags, attention_points, updated_at`,
		newID(), followUp.BookingID, followUp.TeacherProfileID, followUp.ChildID,
		followUp.Summary, followUp.NextSteps, followUp.Tags, followUp.AttentionPoints)
	if err != nil {
		return fmt.Errorf("upsert follow-up: %w", err)
	}

	err = tx.GetContext(ctx, booking,
		`UPDATE bookings SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING id, parent_profile_id, child_id, teacher_profile_id,
			to_char(date_iso, 'YYYY-MM-DD') AS date_iso, "time", duration_minutes, modality,
			status, payment_method, payment_status, price_total, currency, cancellation_reason,
			created_at, updated_at`,
		booking.ID, models.BookingStatusCompleted)
	if err != nil {
		return fmt.Errorf("complete booking: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit complete: %w", err)
	}
	return nil
}
