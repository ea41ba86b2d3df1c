// Crumb - Bakery Search Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/crumb

package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxQueryLength is the longest query (in characters) kept in search history.
const MaxQueryLength = 200

// SearchHistoryRecord is one keyword search made by a user. Records are
// append-only; the only read pattern is the most recent K for a user.
type SearchHistoryRecord struct {
	ID         int64       `json:"id"`
	UserID     int64       `json:"user_id"`
	Query      string      `json:"query"`
	Coordinate *Coordinate `json:"coordinate,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}

// Validate checks the invariants a record must satisfy before persistence.
func (r *SearchHistoryRecord) Validate() error {
	if r.UserID <= 0 {
		return NewValidationError("user_id", "user id must be positive")
	}
	if err := ValidateQuery(r.Query); err != nil {
		return err
	}
	if r.Coordinate != nil {
		if err := r.Coordinate.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ValidateQuery rejects blank queries and queries longer than MaxQueryLength.
func ValidateQuery(q string) error {
	if strings.TrimSpace(q) == "" {
		return NewValidationError("query", "query must not be blank")
	}
	if n := utf8.RuneCountInString(q); n > MaxQueryLength {
		return NewValidationError("query", fmt.Sprintf("query is %d characters, maximum is %d", n, MaxQueryLength))
	}
	return nil
}
