package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kidario/kidario-api/internal/models"
	appErrors "github.com/kidario/kidario-api/pkg/errors"
)

const (
	previewMaxDays    = 3
	previewScanWindow = 21
)

// MarketplaceStore is the persistence surface of the public reader.
type MarketplaceStore interface {
	ListActiveTeachers(ctx context.Context) ([]models.MarketplaceTeacherRow, error)
	FindActiveTeacher(ctx context.Context, id string) (*models.MarketplaceTeacherRow, error)
	ListActiveTeacherWindows(ctx context.Context) ([]models.AvailabilityWindow, error)
}

// MarketplaceAvailabilityReader reads one teacher's windows for the detail
// slot preview.
type MarketplaceAvailabilityReader interface {
	ListWindows(ctx context.Context, teacherID string) ([]models.AvailabilityWindow, error)
}

// MarketplaceListing is the public teacher listing.
type MarketplaceListing struct {
	Teachers []models.MarketplaceTeacherSummary `json:"teachers"`
}

// MarketplaceService serves the public, unauthenticated marketplace reads.
type MarketplaceService struct {
	store        MarketplaceStore
	availability MarketplaceAvailabilityReader
	logger       *zap.Logger
	verbose      bool
	now          func() time.Time
}

// NewMarketplaceService constructs a MarketplaceService.
func NewMarketplaceService(store MarketplaceStore, availability MarketplaceAvailabilityReader, logger *zap.Logger, verbose bool) *MarketplaceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MarketplaceService{
		store:        store,
		availability: availability,
		logger:       logger,
		verbose:      verbose,
		now:          time.Now,
	}
}

// ListTeachers returns every active teacher as a listing card.
func (s *MarketplaceService) ListTeachers(ctx context.Context) (*MarketplaceListing, error) {
	rows, err := s.store.ListActiveTeachers(ctx)
	if err != nil {
		return nil, appErrors.FromDB(err, s.verbose)
	}

	windows, err := s.store.ListActiveTeacherWindows(ctx)
	if err != nil {
		return nil, appErrors.FromDB(err, s.verbose)
	}
	windowsByTeacher := make(map[string][]models.AvailabilityWindow)
	for _, w := range windows {
		windowsByTeacher[w.ProfileID] = append(windowsByTeacher[w.ProfileID], w)
	}

	today := s.now()
	teachers := make([]models.MarketplaceTeacherSummary, 0, len(rows))
	for _, row := range rows {
		rating, reviews := deriveRatingAndReviews(row.ID)
		isOnline, isPresential := modalityFlags(row.Modality)
		teachers = append(teachers, models.MarketplaceTeacherSummary{
			ID:               row.ID,
			Name:             row.Name,
			AvatarURL:        row.AvatarURL,
			Rating:           rating,
			ReviewCount:      reviews,
			PricePerClass:    derefFloat(row.HourlyRate),
			Specialties:      []string(row.Specialties),
			IsVerified:       row.IsActiveTeacher,
			IsOnline:         isOnline,
			IsPresential:     isPresential,
			NextAvailability: nextAvailabilityLabel(windowsByTeacher[row.ID], today),
			ExperienceLabel:  experienceLabel(row.ExperienceCount, row.RequestExperienceAnonymity),
			BioSnippet:       row.MiniBio,
		})
	}
	return &MarketplaceListing{Teachers: teachers}, nil
}

// TeacherDetail returns the public detail view of one active teacher,
// including a short booking-agnostic slot preview.
func (s *MarketplaceService) TeacherDetail(ctx context.Context, teacherID string) (*models.MarketplaceTeacherDetail, error) {
	row, err := s.store.FindActiveTeacher(ctx, teacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Teacher not found in marketplace.")
		}
		return nil, appErrors.FromDB(err, s.verbose)
	}

	windows, err := s.availability.ListWindows(ctx, teacherID)
	if err != nil {
		return nil, appErrors.FromDB(err, s.verbose)
	}

	duration := 60
	if row.LessonDurationMinutes != nil && *row.LessonDurationMinutes > 0 {
		duration = *row.LessonDurationMinutes
	}

	nextSlots := previewDaySlots(windows, s.now(), duration, previewMaxDays, previewScanWindow)
	if nextSlots == nil {
		nextSlots = []models.DaySlots{}
	}

	rating, reviews := deriveRatingAndReviews(row.ID)
	isOnline, isPresential := modalityFlags(row.Modality)
	return &models.MarketplaceTeacherDetail{
		ID:                    row.ID,
		Name:                  row.Name,
		AvatarURL:             row.AvatarURL,
		Rating:                rating,
		ReviewCount:           reviews,
		PricePerClass:         derefFloat(row.HourlyRate),
		Specialties:           []string(row.Specialties),
		IsVerified:            true,
		IsOnline:              isOnline,
		IsPresential:          isPresential,
		ExperienceLabel:       experienceLabel(row.ExperienceCount, row.RequestExperienceAnonymity),
		Bio:                   row.MiniBio,
		City:                  row.City,
		State:                 row.State,
		LessonDurationMinutes: duration,
		NextSlots:             nextSlots,
	}, nil
}

// deriveRatingAndReviews produces stable placeholder social proof from the
// teacher id. There is no review system behind these numbers.
func deriveRatingAndReviews(teacherID string) (float64, int) {
	seed := 0
	for _, char := range teacherID {
		if char == '-' {
			continue
		}
		seed += int(char)
	}
	rating := math.Min(5.0, 4.6+float64(seed%5)*0.1)
	return math.Round(rating*10) / 10, 18 + seed%220
}

func modalityFlags(modality *string) (isOnline, isPresential bool) {
	normalized := "online"
	if modality != nil {
		normalized = strings.TrimSpace(strings.ToLower(*modality))
	}
	switch normalized {
	case "hibrido":
		return true, true
	case "presencial":
		return false, true
	default:
		return true, false
	}
}

func experienceLabel(count int, anonymized bool) string {
	if anonymized {
		return "Experiencia validada pela plataforma"
	}
	switch {
	case count <= 0:
		return "Experiencia em apoio pedagogico"
	case count == 1:
		return "1 experiencia registrada"
	default:
		return fmt.Sprintf("%d experiencias registradas", count)
	}
}

func derefFloat(value *float64) float64 {
	if value == nil {
		return 0
	}
	return *value
}
