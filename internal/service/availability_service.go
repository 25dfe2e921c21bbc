package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/kidario/kidario-api/internal/models"
	appErrors "github.com/kidario/kidario-api/pkg/errors"
)

// AvailabilityStore is the persistence surface the slot computation needs.
type AvailabilityStore interface {
	ListWindows(ctx context.Context, teacherID string) ([]models.AvailabilityWindow, error)
	ListBookedTimes(ctx context.Context, teacherID, fromISO, toISO string) ([]models.BookedTime, error)
}

// AvailabilityTeacherReader checks teacher existence.
type AvailabilityTeacherReader interface {
	TeacherExtensionExists(ctx context.Context, id string) (bool, error)
}

// SlotsQuery bounds a slot listing. Duration defaults to 60 minutes.
type SlotsQuery struct {
	FromISO         string
	ToISO           string
	DurationMinutes int
}

// AvailabilityService expands weekly windows into concrete bookable slots.
type AvailabilityService struct {
	store    AvailabilityStore
	profiles AvailabilityTeacherReader
	logger   *zap.Logger
	verbose  bool
}

// NewAvailabilityService constructs an AvailabilityService.
func NewAvailabilityService(store AvailabilityStore, profiles AvailabilityTeacherReader, logger *zap.Logger, verbose bool) *AvailabilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityService{store: store, profiles: profiles, logger: logger, verbose: verbose}
}

// Slots lists the teacher's open start times per day over the inclusive
// [from, to] range, with active bookings masked out. Days without a matching
// weekly window contribute no entry.
func (s *AvailabilityService) Slots(ctx context.Context, teacherID string, query SlotsQuery) (*models.AvailabilitySlots, error) {
	duration := query.DurationMinutes
	if duration == 0 {
		duration = 60
	}
	if duration < 15 || duration > 300 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "duration_minutes must be between 15 and 300.")
	}

	from, err := parseDate(query.FromISO)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "from must have format YYYY-MM-DD.")
	}
	to, err := parseDate(query.ToISO)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "to must have format YYYY-MM-DD.")
	}
	if to.Before(from) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "to date must be greater than or equal to from date.")
	}

	exists, err := s.profiles.TeacherExtensionExists(ctx, teacherID)
	if err != nil {
		return nil, appErrors.FromDB(err, s.verbose)
	}
	if !exists {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Teacher profile not found.")
	}

	windows, err := s.store.ListWindows(ctx, teacherID)
	if err != nil {
		return nil, appErrors.FromDB(err, s.verbose)
	}
	booked, err := s.store.ListBookedTimes(ctx, teacherID, query.FromISO, query.ToISO)
	if err != nil {
		return nil, appErrors.FromDB(err, s.verbose)
	}

	blocked := make(map[string]map[string]struct{})
	for _, b := range booked {
		if blocked[b.DateISO] == nil {
			blocked[b.DateISO] = make(map[string]struct{})
		}
		if minutes, err := timeToMinutes(b.Time); err == nil {
			blocked[b.DateISO][minutesToTime(minutes)] = struct{}{}
		}
	}

	slots := buildDaySlots(windows, from, to, duration, blocked)
	if slots == nil {
		slots = []models.DaySlots{}
	}
	return &models.AvailabilitySlots{TeacherProfileID: teacherID, Slots: slots}, nil
}
