package service

import (
	"context"
	"database/sql"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kidario/kidario-api/internal/models"
)

type marketplaceStoreMock struct {
	rows       []models.MarketplaceTeacherRow
	row        *models.MarketplaceTeacherRow
	rowErr     error
	allWindows []models.AvailabilityWindow
}

func (m *marketplaceStoreMock) ListActiveTeachers(ctx context.Context) ([]models.MarketplaceTeacherRow, error) {
	return m.rows, nil
}

func (m *marketplaceStoreMock) FindActiveTeacher(ctx context.Context, id string) (*models.MarketplaceTeacherRow, error) {
	if m.rowErr != nil {
		return nil, m.rowErr
	}
	return m.row, nil
}

func (m *marketplaceStoreMock) ListActiveTeacherWindows(ctx context.Context) ([]models.AvailabilityWindow, error) {
	return m.allWindows, nil
}

type marketplaceWindowsMock struct {
	windows []models.AvailabilityWindow
}

func (m *marketplaceWindowsMock) ListWindows(ctx context.Context, teacherID string) ([]models.AvailabilityWindow, error) {
	return m.windows, nil
}

func newMarketplaceService(store *marketplaceStoreMock, windows *marketplaceWindowsMock) *MarketplaceService {
	svc := NewMarketplaceService(store, windows, nil, true)
	// Monday.
	svc.now = func() time.Time { return time.Date(2025, 9, 1, 8, 0, 0, 0, time.UTC) }
	return svc
}

func TestDeriveRatingAndReviewsIsDeterministic(t *testing.T) {
	r1, c1 := deriveRatingAndReviews("abc-123")
	r2, c2 := deriveRatingAndReviews("abc-123")
	assert.Equal(t, r1, r2)
	assert.Equal(t, c1, c2)

	assert.GreaterOrEqual(t, r1, 4.6)
	assert.LessOrEqual(t, r1, 5.0)
	assert.GreaterOrEqual(t, c1, 18)
	assert.Less(t, c1, 238)
}

func TestDeriveRatingAndReviewsIgnoresHyphens(t *testing.T) {
	r1, c1 := deriveRatingAndReviews("a-b-c")
	r2, c2 := deriveRatingAndReviews("abc")
	assert.Equal(t, r1, r2)
	assert.Equal(t, c1, c2)
}

func TestModalityFlags(t *testing.T) {
	hibrido := "hibrido"
	presencial := "Presencial "
	online := "online"
	unknown := "other"

	tests := []struct {
		name           string
		modality       *string
		wantOnline     bool
		wantPresential bool
	}{
		{name: "nil defaults to online", modality: nil, wantOnline: true},
		{name: "hibrido is both", modality: &hibrido, wantOnline: true, wantPresential: true},
		{name: "presencial normalized", modality: &presencial, wantPresential: true},
		{name: "online", modality: &online, wantOnline: true},
		{name: "unknown falls back to online", modality: &unknown, wantOnline: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isOnline, isPresential := modalityFlags(tt.modality)
			assert.Equal(t, tt.wantOnline, isOnline)
			assert.Equal(t, tt.wantPresential, isPresential)
		})
	}
}

func TestExperienceLabel(t *testing.T) {
	assert.Equal(t, "Experiencia validada pela plataforma", experienceLabel(5, true))
	assert.Equal(t, "Experiencia em apoio pedagogico", experienceLabel(0, false))
	assert.Equal(t, "1 experiencia registrada", experienceLabel(1, false))
	assert.Equal(t, "3 experiencias registradas", experienceLabel(3, false))
}

func TestMarketplaceListTeachers(t *testing.T) {
	rate := 90.0
	modality := "hibrido"
	store := &marketplaceStoreMock{
		rows: []models.MarketplaceTeacherRow{{
			ID:              "teacher-1",
			Name:            "Clara Souza",
			HourlyRate:      &rate,
			Modality:        &modality,
			Specialties:     []string{"Alfabetizacao", "Matematica"},
			IsActiveTeacher: true,
			ExperienceCount: 2,
		}},
		allWindows: []models.AvailabilityWindow{
			{ProfileID: "teacher-1", DayOfWeek: 0, StartTime: "14:00", EndTime: "16:00"},
		},
	}
	svc := newMarketplaceService(store, &marketplaceWindowsMock{})

	listing, err := svc.ListTeachers(context.Background())
	require.NoError(t, err)
	require.Len(t, listing.Teachers, 1)

	card := listing.Teachers[0]
	assert.Equal(t, "Clara Souza", card.Name)
	assert.Equal(t, 90.0, card.PricePerClass)
	assert.True(t, card.IsOnline)
	assert.True(t, card.IsPresential)
	assert.True(t, card.IsVerified)
	assert.Equal(t, "2 experiencias registradas", card.ExperienceLabel)
	assert.Equal(t, []string{"Alfabetizacao", "Matematica"}, card.Specialties)
	require.NotNil(t, card.NextAvailability)
	assert.Equal(t, "Hoje, 14h", *card.NextAvailability)
}

func TestMarketplaceListTeachersEmpty(t *testing.T) {
	svc := newMarketplaceService(&marketplaceStoreMock{}, &marketplaceWindowsMock{})

	listing, err := svc.ListTeachers(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, listing.Teachers)
	assert.Empty(t, listing.Teachers)
}

func TestMarketplaceTeacherDetailNotFound(t *testing.T) {
	svc := newMarketplaceService(&marketplaceStoreMock{rowErr: sql.ErrNoRows}, &marketplaceWindowsMock{})

	_, err := svc.TeacherDetail(context.Background(), "missing")
	typed := requireStatus(t, err, http.StatusNotFound)
	assert.Equal(t, "Teacher not found in marketplace.", typed.Message)
}

func TestMarketplaceTeacherDetailSlotPreview(t *testing.T) {
	duration := 30
	store := &marketplaceStoreMock{
		row: &models.MarketplaceTeacherRow{
			ID:                    "teacher-1",
			Name:                  "Clara Souza",
			LessonDurationMinutes: &duration,
			IsActiveTeacher:       true,
		},
	}
	windows := &marketplaceWindowsMock{windows: []models.AvailabilityWindow{
		{ProfileID: "teacher-1", DayOfWeek: 0, StartTime: "09:00", EndTime: "10:00"},
	}}
	svc := newMarketplaceService(store, windows)

	detail, err := svc.TeacherDetail(context.Background(), "teacher-1")
	require.NoError(t, err)
	assert.True(t, detail.IsVerified)
	assert.Equal(t, 30, detail.LessonDurationMinutes)

	// The preview is capped at three days inside a 21 day horizon.
	require.Len(t, detail.NextSlots, 3)
	assert.Equal(t, "2025-09-01", detail.NextSlots[0].DateISO)
	assert.Equal(t, []string{"09:00", "09:30"}, detail.NextSlots[0].Times)
	assert.Equal(t, "2025-09-08", detail.NextSlots[1].DateISO)
	assert.Equal(t, "2025-09-15", detail.NextSlots[2].DateISO)
}

func TestMarketplaceTeacherDetailNoWindows(t *testing.T) {
	store := &marketplaceStoreMock{
		row: &models.MarketplaceTeacherRow{ID: "teacher-1", Name: "Clara Souza"},
	}
	svc := newMarketplaceService(store, &marketplaceWindowsMock{})

	detail, err := svc.TeacherDetail(context.Background(), "teacher-1")
	require.NoError(t, err)
	assert.NotNil(t, detail.NextSlots)
	assert.Empty(t, detail.NextSlots)
	assert.Equal(t, 60, detail.LessonDurationMinutes)
}
