package models

import (
	"time"

	"github.com/lib/pq"
)

// BookingStatus is the closed set of booking lifecycle states.
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pendente"
	BookingStatusConfirmed BookingStatus = "confirmada"
	BookingStatusCancelled BookingStatus = "cancelada"
	BookingStatusCompleted BookingStatus = "concluida"
)

// IsActive reports whether the booking still occupies its slot.
func (s BookingStatus) IsActive() bool {
	return s == BookingStatusPending || s == BookingStatusConfirmed
}

// IsTerminal reports whether no further transitions are allowed.
func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusCancelled || s == BookingStatusCompleted
}

// PaymentMethod values accepted at booking creation.
type PaymentMethod string

const (
	PaymentMethodCard PaymentMethod = "cartao"
	PaymentMethodPix  PaymentMethod = "pix"
)

// PaymentStatus values tracked on a booking.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pendente"
	PaymentStatusPaid    PaymentStatus = "pago"
	PaymentStatusFailed  PaymentStatus = "falhou"
)

// Modality of a lesson.
type Modality string

const (
	ModalityOnline     Modality = "online"
	ModalityPresential Modality = "presencial"
)

// Booking is a lesson reservation row. DateISO is a YYYY-MM-DD string and
// Time an HH:MM string, matching the wire format end to end.
type Booking struct {
	ID                 string        `db:"id" json:"id"`
	ParentProfileID    string        `db:"parent_profile_id" json:"parent_profile_id"`
	ChildID            string        `db:"child_id" json:"child_id"`
	TeacherProfileID   string        `db:"teacher_profile_id" json:"teacher_profile_id"`
	DateISO            string        `db:"date_iso" json:"date_iso"`
	Time               string        `db:"time" json:"time"`
	DurationMinutes    int           `db:"duration_minutes" json:"duration_minutes"`
	Modality           Modality      `db:"modality" json:"modality"`
	Status             BookingStatus `db:"status" json:"status"`
	PaymentMethod      PaymentMethod `db:"payment_method" json:"payment_method"`
	PaymentStatus      PaymentStatus `db:"payment_status" json:"payment_status"`
	PriceTotal         float64       `db:"price_total" json:"price_total"`
	Currency           string        `db:"currency" json:"currency"`
	CancellationReason *string       `db:"cancellation_reason" json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time     `db:"updated_at" json:"updated_at"`
}

// FollowUp is the teacher-authored summary attached to a completed booking.
// One row per booking, overwritten on repeated upserts.
type FollowUp struct {
	BookingID        string         `db:"booking_id" json:"booking_id"`
	TeacherProfileID string         `db:"teacher_profile_id" json:"-"`
	ChildID          string         `db:"child_id" json:"-"`
	Summary          string         `db:"summary" json:"summary"`
	NextSteps        string         `db:"next_steps" json:"next_steps"`
	Tags             pq.StringArray `db:"tags" json:"tags"`
	AttentionPoints  pq.StringArray `db:"attention_points" json:"attention_points"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updated_at"`
}

// ParentAgendaLesson is one row of the parent agenda projection.
type ParentAgendaLesson struct {
	ID               string        `db:"id" json:"id"`
	TeacherID        string        `db:"teacher_id" json:"teacher_id"`
	TeacherName      string        `db:"teacher_name" json:"teacher_name"`
	TeacherAvatarURL *string       `db:"teacher_avatar_url" json:"teacher_avatar_url,omitempty"`
	Specialty        string        `db:"specialty" json:"specialty"`
	ChildID          string        `db:"child_id" json:"child_id"`
	ChildName        string        `db:"child_name" json:"child_name"`
	DateISO          string        `db:"date_iso" json:"date_iso"`
	DateLabel        string        `db:"-" json:"date_label"`
	Time             string        `db:"time" json:"time"`
	Modality         Modality      `db:"modality" json:"modality"`
	Status           BookingStatus `db:"status" json:"status"`
	CreatedAt        time.Time     `db:"created_at_iso" json:"created_at_iso"`
	UpdatedAt        time.Time     `db:"updated_at_iso" json:"updated_at_iso"`
}

// TeacherAgendaLesson is one row of the teacher agenda projection.
type TeacherAgendaLesson struct {
	ID              string        `db:"id" json:"id"`
	ParentProfileID string        `db:"parent_profile_id" json:"parent_profile_id"`
	ChildID         string        `db:"child_id" json:"child_id"`
	ChildName       string        `db:"child_name" json:"child_name"`
	ChildAge        *int          `db:"child_age" json:"child_age,omitempty"`
	DateISO         string        `db:"date_iso" json:"date_iso"`
	Time            string        `db:"time" json:"time"`
	DurationMinutes int           `db:"duration_minutes" json:"duration_minutes"`
	Modality        Modality      `db:"modality" json:"modality"`
	Status          BookingStatus `db:"status" json:"status"`
}

// BookingDetailRow is the joined row backing the booking detail view.
type BookingDetailRow struct {
	Booking
	ChildName        string  `db:"child_name"`
	TeacherFirstName *string `db:"teacher_first_name"`
	TeacherLastName  *string `db:"teacher_last_name"`
	TeacherAvatarURL *string `db:"teacher_avatar_url"`
	Specialty        string  `db:"specialty"`
}

// BookingActions are the derived action flags on a booking detail. They are
// computed from the current status and the caller identity, never stored.
type BookingActions struct {
	CanReschedule bool `json:"can_reschedule"`
	CanCancel     bool `json:"can_cancel"`
	CanComplete   bool `json:"can_complete"`
}

// BookingDetail is the owner-facing detail projection.
type BookingDetail struct {
	ID                 string         `json:"id"`
	ParentProfileID    string         `json:"parent_profile_id"`
	ChildID            string         `json:"child_id"`
	ChildName          string         `json:"child_name"`
	TeacherID          string         `json:"teacher_id"`
	TeacherName        string         `json:"teacher_name"`
	TeacherAvatarURL   *string        `json:"teacher_avatar_url,omitempty"`
	Specialty          string         `json:"specialty"`
	DateISO            string         `json:"date_iso"`
	DateLabel          string         `json:"date_label"`
	Time               string         `json:"time"`
	DurationMinutes    int            `json:"duration_minutes"`
	Modality           Modality       `json:"modality"`
	Status             BookingStatus  `json:"status"`
	PriceTotal         float64        `json:"price_total"`
	Currency           string         `json:"currency"`
	CancellationReason *string        `json:"cancellation_reason,omitempty"`
	LatestFollowUp     *FollowUp      `json:"latest_follow_up"`
	Actions            BookingActions `json:"actions"`
}

// DaySlots lists the open start times of a single day.
type DaySlots struct {
	DateISO   string   `json:"date_iso"`
	DateLabel string   `json:"date_label"`
	Times     []string `json:"times"`
}

// AvailabilitySlots is the authenticated slot listing for a teacher.
type AvailabilitySlots struct {
	TeacherProfileID string     `json:"teacher_profile_id"`
	Slots            []DaySlots `json:"slots"`
}

// BookedTime marks a (date, time) pair already taken by an active booking.
type BookedTime struct {
	DateISO string `db:"date_iso"`
	Time    string `db:"time"`
}
