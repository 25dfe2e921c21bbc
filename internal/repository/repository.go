// Package repository implements PostgreSQL persistence on top of sqlx.
// Check-then-write sequences run inside a single transaction and surface
// sentinel errors for business-rule violations detected at the storage edge.
package repository

import (
	"time"

	"github.com/google/uuid"
)

func newID() string {
	return uuid.NewString()
}

// QueryObserver receives the label and wall time of each executed operation.
// A nil observer disables timing.
type QueryObserver func(label string, duration time.Duration)

type queryTimer struct {
	obs QueryObserver
}

func (t queryTimer) observe(label string, start time.Time) {
	if t.obs != nil {
		t.obs(label, time.Since(start))
	}
}
