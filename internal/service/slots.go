package service

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/kidario/kidario-api/internal/models"
)

const (
	dateLayout = "2006-01-02"
	labelDDMM  = "02/01"
)

// weekdayIndex maps a date to the stored day-of-week convention,
// Monday=0 through Sunday=6.
func weekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

func formatDateLabel(t time.Time) string {
	return t.Format("02/01/2006")
}

func parseDate(value string) (time.Time, error) {
	return time.Parse(dateLayout, value)
}

// timeToMinutes converts an HH:MM string into minutes since midnight.
// Accepts HH:MM:SS values coming back from time columns.
func timeToMinutes(value string) (int, error) {
	parts := strings.SplitN(value, ":", 3)
	if len(parts) < 2 {
		return 0, fmt.Errorf("invalid time %q", value)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid time %q", value)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid time %q", value)
	}
	if hours < 0 || hours > 23 || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("invalid time %q", value)
	}
	return hours*60 + minutes, nil
}

func minutesToTime(total int) string {
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// validHHMM reports whether value is a well-formed HH:MM string.
func validHHMM(value string) bool {
	if len(value) != 5 || value[2] != ':' {
		return false
	}
	_, err := timeToMinutes(value)
	return err == nil
}

// windowsByDay groups weekly windows by their day-of-week index.
func windowsByDay(windows []models.AvailabilityWindow) map[int][]models.AvailabilityWindow {
	grouped := make(map[int][]models.AvailabilityWindow)
	for _, w := range windows {
		grouped[w.DayOfWeek] = append(grouped[w.DayOfWeek], w)
	}
	return grouped
}

// dayStartTimes generates the candidate start times for one day: for every
// window matching the weekday, starts advance at duration stride from the
// window start while the whole lesson still fits. Starts present in blocked
// are dropped. The result is de-duplicated and sorted ascending.
func dayStartTimes(windows []models.AvailabilityWindow, duration int, blocked map[string]struct{}) []string {
	seen := make(map[string]struct{})
	var times []string
	for _, w := range windows {
		start, err := timeToMinutes(w.StartTime)
		if err != nil {
			continue
		}
		end, err := timeToMinutes(w.EndTime)
		if err != nil {
			continue
		}
		for minute := start; minute+duration <= end; minute += duration {
			value := minutesToTime(minute)
			if _, taken := blocked[value]; taken {
				continue
			}
			if _, dup := seen[value]; dup {
				continue
			}
			seen[value] = struct{}{}
			times = append(times, value)
		}
	}
	sort.Strings(times)
	return times
}

// buildDaySlots walks the inclusive [from, to] range and emits one DaySlots
// entry per day that still has at least one open start time. Days without a
// matching window produce no entry at all.
func buildDaySlots(windows []models.AvailabilityWindow, from, to time.Time, duration int, booked map[string]map[string]struct{}) []models.DaySlots {
	grouped := windowsByDay(windows)

	var slots []models.DaySlots
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		dayWindows := grouped[weekdayIndex(day)]
		if len(dayWindows) == 0 {
			continue
		}
		dateISO := day.Format(dateLayout)
		times := dayStartTimes(dayWindows, duration, booked[dateISO])
		if len(times) == 0 {
			continue
		}
		slots = append(slots, models.DaySlots{
			DateISO:   dateISO,
			DateLabel: formatDateLabel(day),
			Times:     times,
		})
	}
	return slots
}

// previewDaySlots scans forward from start collecting up to maxDays day
// entries within a scanWindow-day horizon. Existing bookings are not
// consulted; this backs the public marketplace preview only.
func previewDaySlots(windows []models.AvailabilityWindow, start time.Time, duration, maxDays, scanWindow int) []models.DaySlots {
	grouped := windowsByDay(windows)

	var slots []models.DaySlots
	day := start
	for scanned := 0; len(slots) < maxDays && scanned < scanWindow; scanned++ {
		times := dayStartTimes(grouped[weekdayIndex(day)], duration, nil)
		if len(times) > 0 {
			slots = append(slots, models.DaySlots{
				DateISO:   day.Format(dateLayout),
				DateLabel: formatDateLabel(day),
				Times:     times,
			})
		}
		day = day.AddDate(0, 0, 1)
	}
	return slots
}

// nextAvailabilityLabel scans the next 14 days for the first weekday with a
// configured window and renders a short human label from its earliest start,
// e.g. "Hoje, 14h", "Amanha, 09h" or "05/09, 10h".
func nextAvailabilityLabel(windows []models.AvailabilityWindow, today time.Time) *string {
	grouped := windowsByDay(windows)

	for offset := 0; offset < 14; offset++ {
		day := today.AddDate(0, 0, offset)
		dayWindows := grouped[weekdayIndex(day)]
		if len(dayWindows) == 0 {
			continue
		}

		earliest := dayWindows[0].StartTime
		for _, w := range dayWindows[1:] {
			if w.StartTime < earliest {
				earliest = w.StartTime
			}
		}
		hourLabel := earliest[:2] + "h"

		var label string
		switch offset {
		case 0:
			label = "Hoje, " + hourLabel
		case 1:
			label = "Amanha, " + hourLabel
		default:
			label = day.Format(labelDDMM) + ", " + hourLabel
		}
		return &label
	}
	return nil
}
