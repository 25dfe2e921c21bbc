// Package service holds the business rules between the HTTP handlers and the
// repositories. Services validate input, enforce ownership and lifecycle
// rules, and translate storage failures into the API error taxonomy.
package service

import "github.com/google/uuid"

// newRecordID generates ids for nested records created through patch batches.
func newRecordID() string {
	return uuid.NewString()
}
