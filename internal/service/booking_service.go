package service

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/kidario/kidario-api/internal/models"
	"github.com/kidario/kidario-api/internal/repository"
	appErrors "github.com/kidario/kidario-api/pkg/errors"
)

// BookingStore is the persistence surface the booking service needs.
type BookingStore interface {
	CreateIfSlotFree(ctx context.Context, booking *models.Booking) error
	FindDetailRow(ctx context.Context, id string) (*models.BookingDetailRow, error)
	FindFollowUp(ctx context.Context, bookingID string) (*models.FollowUp, error)
	ParentAgenda(ctx context.Context, parentID, tab string, childID *string) ([]models.ParentAgendaLesson, error)
	TeacherAgenda(ctx context.Context, teacherID, tab string, status *models.BookingStatus) ([]models.TeacherAgendaLesson, error)
	Reschedule(ctx context.Context, booking *models.Booking, dateISO, timeValue string) error
	Cancel(ctx context.Context, booking *models.Booking, reason *string) error
	CompleteWithFollowUp(ctx context.Context, booking *models.Booking, followUp *models.FollowUp) error
}

// BookingProfileReader exposes the profile lookups booking flows depend on.
type BookingProfileReader interface {
	ProfileRole(ctx context.Context, id string) (models.Role, error)
	ChildBelongsToParent(ctx context.Context, childID, parentID string) (bool, error)
	ListChildren(ctx context.Context, parentID string) ([]models.Child, error)
	TeacherExtensionExists(ctx context.Context, id string) (bool, error)
	TeacherHourlyRate(ctx context.Context, id string) (float64, error)
}

// BookingCreateRequest is the POST /bookings request body.
type BookingCreateRequest struct {
	ParentProfileID  *string              `json:"parent_profile_id" validate:"omitempty,uuid"`
	ChildID          *string              `json:"child_id" validate:"omitempty,uuid"`
	TeacherProfileID string               `json:"teacher_profile_id" validate:"required,uuid"`
	DateISO          string               `json:"date_iso" validate:"required"`
	Time             string               `json:"time" validate:"required"`
	DurationMinutes  int                  `json:"duration_minutes" validate:"required,gte=15,lte=300"`
	Modality         models.Modality      `json:"modality" validate:"required,oneof=online presencial"`
	PaymentMethod    models.PaymentMethod `json:"payment_method" validate:"required,oneof=cartao pix"`
	CouponCode       *string              `json:"coupon_code"`
}

// BookingCreateResult acknowledges a created booking.
type BookingCreateResult struct {
	Status        string               `json:"status"`
	BookingID     string               `json:"booking_id"`
	BookingStatus models.BookingStatus `json:"booking_status"`
	PaymentStatus models.PaymentStatus `json:"payment_status"`
}

// BookingReschedulePatch is the reschedule request body.
type BookingReschedulePatch struct {
	NewDateISO string  `json:"new_date_iso" validate:"required"`
	NewTime    string  `json:"new_time" validate:"required"`
	Reason     *string `json:"reason"`
}

// BookingRescheduleResult acknowledges a rescheduled booking.
type BookingRescheduleResult struct {
	Status        string               `json:"status"`
	BookingID     string               `json:"booking_id"`
	DateISO       string               `json:"date_iso"`
	Time          string               `json:"time"`
	BookingStatus models.BookingStatus `json:"booking_status"`
	UpdatedAtISO  time.Time            `json:"updated_at_iso"`
}

// BookingCancelPatch is the cancel request body.
type BookingCancelPatch struct {
	Reason string `json:"reason" validate:"required"`
}

// BookingCancelResult acknowledges a cancelled booking.
type BookingCancelResult struct {
	Status             string               `json:"status"`
	BookingID          string               `json:"booking_id"`
	BookingStatus      models.BookingStatus `json:"booking_status"`
	CancellationReason string               `json:"cancellation_reason"`
	UpdatedAtISO       time.Time            `json:"updated_at_iso"`
}

// BookingFollowUpPayload is the follow-up body of a completion request.
type BookingFollowUpPayload struct {
	Summary         string   `json:"summary" validate:"required"`
	NextSteps       string   `json:"next_steps" validate:"required"`
	Tags            []string `json:"tags"`
	AttentionPoints []string `json:"attention_points"`
}

// BookingCompletePatch is the complete request body.
type BookingCompletePatch struct {
	FollowUp BookingFollowUpPayload `json:"follow_up" validate:"required"`
}

// BookingCompleteResult acknowledges a completed booking.
type BookingCompleteResult struct {
	Status         string               `json:"status"`
	BookingID      string               `json:"booking_id"`
	BookingStatus  models.BookingStatus `json:"booking_status"`
	LatestFollowUp *models.FollowUp     `json:"latest_follow_up"`
}

// AgendaQuery filters an agenda listing. Tab defaults to upcoming.
type AgendaQuery struct {
	Tab     string  `validate:"omitempty,oneof=upcoming past"`
	ChildID *string `validate:"omitempty,uuid"`
	Status  *string `validate:"omitempty,oneof=pendente confirmada cancelada concluida"`
}

// ParentAgenda is the parent agenda listing.
type ParentAgenda struct {
	Lessons []models.ParentAgendaLesson `json:"lessons"`
}

// TeacherAgenda is the teacher agenda listing.
type TeacherAgenda struct {
	Lessons []models.TeacherAgendaLesson `json:"lessons"`
}

// BookingService implements the booking lifecycle: create, agendas, detail,
// reschedule, cancel and complete.
type BookingService struct {
	store    BookingStore
	profiles BookingProfileReader
	validate *validator.Validate
	logger   *zap.Logger
	verbose  bool
	now      func() time.Time
}

// NewBookingService constructs a BookingService.
func NewBookingService(store BookingStore, profiles BookingProfileReader, validate *validator.Validate, logger *zap.Logger, verbose bool) *BookingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BookingService{
		store:    store,
		profiles: profiles,
		validate: validate,
		logger:   logger,
		verbose:  verbose,
		now:      time.Now,
	}
}

// Create books a slot for the authenticated parent. Card payments confirm
// immediately; pix bookings stay pending until payment settles.
func (s *BookingService) Create(ctx context.Context, claims *models.AuthClaims, req BookingCreateRequest) (*BookingCreateResult, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	if _, err := parseDate(req.DateISO); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date_iso must have format YYYY-MM-DD.")
	}
	if !validHHMM(req.Time) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "time must have format HH:mm.")
	}

	if err := s.ensureRole(ctx, claims.UserID(), models.RoleParent); err != nil {
		return nil, err
	}
	if req.ParentProfileID != nil && *req.ParentProfileID != claims.UserID() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "parent_profile_id does not match the authenticated user.")
	}

	childID, err := s.resolveChildID(ctx, claims.UserID(), req.ChildID)
	if err != nil {
		return nil, err
	}

	teacherExists, err := s.profiles.TeacherExtensionExists(ctx, req.TeacherProfileID)
	if err != nil {
		return nil, appErrors.FromDB(err, s.verbose)
	}
	if !teacherExists {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Teacher profile not found.")
	}

	hourlyRate, err := s.profiles.TeacherHourlyRate(ctx, req.TeacherProfileID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.FromDB(err, s.verbose)
	}

	status := models.BookingStatusPending
	paymentStatus := models.PaymentStatusPending
	if req.PaymentMethod == models.PaymentMethodCard {
		status = models.BookingStatusConfirmed
		paymentStatus = models.PaymentStatusPaid
	}

	booking := &models.Booking{
		ParentProfileID:  claims.UserID(),
		ChildID:          childID,
		TeacherProfileID: req.TeacherProfileID,
		DateISO:          req.DateISO,
		Time:             req.Time,
		DurationMinutes:  req.DurationMinutes,
		Modality:         req.Modality,
		Status:           status,
		PaymentMethod:    req.PaymentMethod,
		PaymentStatus:    paymentStatus,
		PriceTotal:       roundPrice(hourlyRate * float64(req.DurationMinutes) / 60),
		Currency:         "BRL",
	}

	if err := s.store.CreateIfSlotFree(ctx, booking); err != nil {
		if errors.Is(err, repository.ErrSlotTaken) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "Selected slot is no longer available.")
		}
		return nil, appErrors.FromDB(err, s.verbose)
	}

	s.logger.Info("booking created",
		zap.String("booking_id", booking.ID),
		zap.String("teacher_profile_id", booking.TeacherProfileID),
		zap.String("status", string(booking.Status)))
	return &BookingCreateResult{
		Status:        "ok",
		BookingID:     booking.ID,
		BookingStatus: booking.Status,
		PaymentStatus: booking.PaymentStatus,
	}, nil
}

// ParentAgenda lists the caller's lessons as a parent.
func (s *BookingService) ParentAgenda(ctx context.Context, claims *models.AuthClaims, query AgendaQuery) (*ParentAgenda, error) {
	if err := s.validate.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	if err := s.ensureRole(ctx, claims.UserID(), models.RoleParent); err != nil {
		return nil, err
	}

	lessons, err := s.store.ParentAgenda(ctx, claims.UserID(), normalizeTab(query.Tab), query.ChildID)
	if err != nil {
		return nil, appErrors.FromDB(err, s.verbose)
	}
	for i := range lessons {
		if day, err := parseDate(lessons[i].DateISO); err == nil {
			lessons[i].DateLabel = formatDateLabel(day)
		}
	}
	if lessons == nil {
		lessons = []models.ParentAgendaLesson{}
	}
	return &ParentAgenda{Lessons: lessons}, nil
}

// TeacherAgenda lists the caller's lessons as a teacher.
func (s *BookingService) TeacherAgenda(ctx context.Context, claims *models.AuthClaims, query AgendaQuery) (*TeacherAgenda, error) {
	if err := s.validate.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	if err := s.ensureRole(ctx, claims.UserID(), models.RoleTeacher); err != nil {
		return nil, err
	}

	var status *models.BookingStatus
	if query.Status != nil {
		value := models.BookingStatus(*query.Status)
		status = &value
	}
	lessons, err := s.store.TeacherAgenda(ctx, claims.UserID(), normalizeTab(query.Tab), status)
	if err != nil {
		return nil, appErrors.FromDB(err, s.verbose)
	}
	if lessons == nil {
		lessons = []models.TeacherAgendaLesson{}
	}
	return &TeacherAgenda{Lessons: lessons}, nil
}

// Detail returns the owner-facing booking view with derived action flags.
func (s *BookingService) Detail(ctx context.Context, claims *models.AuthClaims, bookingID string) (*models.BookingDetail, error) {
	row, err := s.fetchForActor(ctx, claims.UserID(), bookingID)
	if err != nil {
		return nil, err
	}

	detail := buildBookingDetail(row, claims.UserID())

	followUp, err := s.store.FindFollowUp(ctx, bookingID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.FromDB(err, s.verbose)
		}
	} else {
		detail.LatestFollowUp = followUp
	}
	return detail, nil
}

// Reschedule moves the booking to a new slot. Only the parent owner may
// reschedule, and only while the booking is still active.
func (s *BookingService) Reschedule(ctx context.Context, claims *models.AuthClaims, bookingID string, patch BookingReschedulePatch) (*BookingRescheduleResult, error) {
	if err := s.validate.Struct(patch); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	if _, err := parseDate(patch.NewDateISO); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "new_date_iso must have format YYYY-MM-DD.")
	}
	if !validHHMM(patch.NewTime) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "new_time must have format HH:mm.")
	}

	row, err := s.fetchForActor(ctx, claims.UserID(), bookingID)
	if err != nil {
		return nil, err
	}
	if row.ParentProfileID != claims.UserID() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "Only the parent owner can reschedule the booking.")
	}
	if !row.Status.IsActive() {
		return nil, appErrors.Clone(appErrors.ErrConflict, "Booking cannot be rescheduled in the current status.")
	}

	booking := row.Booking
	if err := s.store.Reschedule(ctx, &booking, patch.NewDateISO, patch.NewTime); err != nil {
		if errors.Is(err, repository.ErrSlotTaken) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "Selected slot is no longer available.")
		}
		return nil, appErrors.FromDB(err, s.verbose)
	}

	s.logger.Info("booking rescheduled", zap.String("booking_id", booking.ID),
		zap.String("date_iso", booking.DateISO), zap.String("time", booking.Time))
	return &BookingRescheduleResult{
		Status:        "ok",
		BookingID:     booking.ID,
		DateISO:       booking.DateISO,
		Time:          booking.Time,
		BookingStatus: booking.Status,
		UpdatedAtISO:  booking.UpdatedAt,
	}, nil
}

// Cancel marks the booking cancelled. Only the parent owner may cancel, and
// only while the booking is still active.
func (s *BookingService) Cancel(ctx context.Context, claims *models.AuthClaims, bookingID string, patch BookingCancelPatch) (*BookingCancelResult, error) {
	if err := s.validate.Struct(patch); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}

	row, err := s.fetchForActor(ctx, claims.UserID(), bookingID)
	if err != nil {
		return nil, err
	}
	if row.ParentProfileID != claims.UserID() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "Only the parent owner can cancel the booking.")
	}
	if !row.Status.IsActive() {
		return nil, appErrors.Clone(appErrors.ErrConflict, "Booking cannot be cancelled in the current status.")
	}

	booking := row.Booking
	if err := s.store.Cancel(ctx, &booking, &patch.Reason); err != nil {
		return nil, appErrors.FromDB(err, s.verbose)
	}

	reason := ""
	if booking.CancellationReason != nil {
		reason = *booking.CancellationReason
	}
	s.logger.Info("booking cancelled", zap.String("booking_id", booking.ID))
	return &BookingCancelResult{
		Status:             "ok",
		BookingID:          booking.ID,
		BookingStatus:      booking.Status,
		CancellationReason: reason,
		UpdatedAtISO:       booking.UpdatedAt,
	}, nil
}

// Complete records the follow-up and closes the booking. Only the teacher
// owner may complete, and only from the confirmed status.
func (s *BookingService) Complete(ctx context.Context, claims *models.AuthClaims, bookingID string, patch BookingCompletePatch) (*BookingCompleteResult, error) {
	if err := s.validate.Struct(patch); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}

	row, err := s.fetchForActor(ctx, claims.UserID(), bookingID)
	if err != nil {
		return nil, err
	}
	if row.TeacherProfileID != claims.UserID() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "Only the teacher owner can complete the booking.")
	}
	if row.Status != models.BookingStatusConfirmed {
		return nil, appErrors.Clone(appErrors.ErrConflict, "Only confirmed bookings can be completed.")
	}

	booking := row.Booking
	followUp := &models.FollowUp{
		BookingID:        booking.ID,
		TeacherProfileID: booking.TeacherProfileID,
		ChildID:          booking.ChildID,
		Summary:          patch.FollowUp.Summary,
		NextSteps:        patch.FollowUp.NextSteps,
		Tags:             patch.FollowUp.Tags,
		AttentionPoints:  patch.FollowUp.AttentionPoints,
	}
	if followUp.Tags == nil {
		followUp.Tags = []string{}
	}
	if followUp.AttentionPoints == nil {
		followUp.AttentionPoints = []string{}
	}

	if err := s.store.CompleteWithFollowUp(ctx, &booking, followUp); err != nil {
		return nil, appErrors.FromDB(err, s.verbose)
	}

	s.logger.Info("booking completed", zap.String("booking_id", booking.ID))
	return &BookingCompleteResult{
		Status:         "ok",
		BookingID:      booking.ID,
		BookingStatus:  booking.Status,
		LatestFollowUp: followUp,
	}, nil
}

func (s *BookingService) ensureRole(ctx context.Context, profileID string, role models.Role) error {
	stored, err := s.profiles.ProfileRole(ctx, profileID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.roleError(role)
		}
		return appErrors.FromDB(err, s.verbose)
	}
	if stored != role {
		return s.roleError(role)
	}
	return nil
}

func (s *BookingService) roleError(role models.Role) error {
	if role == models.RoleParent {
		return appErrors.Clone(appErrors.ErrForbidden, "Only parent users can perform this action.")
	}
	return appErrors.Clone(appErrors.ErrForbidden, "Only teacher users can perform this action.")
}

// resolveChildID returns the explicit child after an ownership check, or the
// parent's only child when the request omits one. Zero or multiple children
// without an explicit id is a validation failure.
func (s *BookingService) resolveChildID(ctx context.Context, parentID string, childID *string) (string, error) {
	if childID != nil {
		owned, err := s.profiles.ChildBelongsToParent(ctx, *childID, parentID)
		if err != nil {
			return "", appErrors.FromDB(err, s.verbose)
		}
		if !owned {
			return "", appErrors.Clone(appErrors.ErrValidation, "child_id does not belong to the authenticated parent.")
		}
		return *childID, nil
	}

	children, err := s.profiles.ListChildren(ctx, parentID)
	if err != nil {
		return "", appErrors.FromDB(err, s.verbose)
	}
	switch len(children) {
	case 1:
		return children[0].ID, nil
	case 0:
		return "", appErrors.Clone(appErrors.ErrValidation, "Parent profile does not have children yet.")
	default:
		return "", appErrors.Clone(appErrors.ErrValidation, "Multiple children found. child_id is required.")
	}
}

func (s *BookingService) fetchForActor(ctx context.Context, actorID, bookingID string) (*models.BookingDetailRow, error) {
	row, err := s.store.FindDetailRow(ctx, bookingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Booking not found.")
		}
		return nil, appErrors.FromDB(err, s.verbose)
	}
	if row.ParentProfileID != actorID && row.TeacherProfileID != actorID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "You do not have access to this booking.")
	}
	return row, nil
}

func buildBookingDetail(row *models.BookingDetailRow, actorID string) *models.BookingDetail {
	isParentOwner := row.ParentProfileID == actorID
	isTeacherOwner := row.TeacherProfileID == actorID

	dateLabel := row.DateISO
	if day, err := parseDate(row.DateISO); err == nil {
		dateLabel = formatDateLabel(day)
	}

	return &models.BookingDetail{
		ID:                 row.ID,
		ParentProfileID:    row.ParentProfileID,
		ChildID:            row.ChildID,
		ChildName:          row.ChildName,
		TeacherID:          row.TeacherProfileID,
		TeacherName:        teacherDisplayName(row.TeacherFirstName, row.TeacherLastName),
		TeacherAvatarURL:   row.TeacherAvatarURL,
		Specialty:          row.Specialty,
		DateISO:            row.DateISO,
		DateLabel:          dateLabel,
		Time:               row.Time,
		DurationMinutes:    row.DurationMinutes,
		Modality:           row.Modality,
		Status:             row.Status,
		PriceTotal:         row.PriceTotal,
		Currency:           row.Currency,
		CancellationReason: row.CancellationReason,
		Actions: models.BookingActions{
			CanReschedule: isParentOwner && row.Status.IsActive(),
			CanCancel:     isParentOwner && row.Status.IsActive(),
			CanComplete:   isTeacherOwner && row.Status == models.BookingStatusConfirmed,
		},
	}
}

func teacherDisplayName(first, last *string) string {
	var parts []string
	if first != nil && *first != "" {
		parts = append(parts, *first)
	}
	if last != nil && *last != "" {
		parts = append(parts, *last)
	}
	name := strings.TrimSpace(strings.Join(parts, " "))
	if name == "" {
		return "Professora Kidario"
	}
	return name
}

func normalizeTab(tab string) string {
	if tab == "past" {
		return "past"
	}
	return "upcoming"
}

func roundPrice(value float64) float64 {
	return math.Round(value*100) / 100
}
