// Package service holds the business rules for users, relationships, favorites and movies.
// Every operation takes the caller's id explicitly; nothing here reads request state.
package service

import (
	"errors"
	"strings"

	"cinematch/backend/internal/apperr"
	"cinematch/backend/internal/metrics"

	"gorm.io/gorm"
)

// Outcome reports whether an idempotent operation changed anything.
// A no-op is not an error: the reason says why nothing happened.
type Outcome struct {
	Applied bool   `json:"applied"`
	Reason  string `json:"reason,omitempty"`
}

func applied() Outcome { return Outcome{Applied: true} }

func noOp(reason string) Outcome { return Outcome{Reason: reason} }

func recordOutcome(operation string, out Outcome, err error) {
	switch {
	case err != nil:
		metrics.RecordRelationship(operation, metrics.OutcomeError)
	case out.Applied:
		metrics.RecordRelationship(operation, metrics.OutcomeApplied)
	default:
		metrics.RecordRelationship(operation, metrics.OutcomeNoOp)
	}
}

// isDuplicate reports a unique-constraint violation.
// TranslateError covers the registered drivers; the string match catches the rest.
func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value")
}

// notFoundOr maps gorm.ErrRecordNotFound to a NotFound error and wraps anything else.
func notFoundOr(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("%s not found", what)
	}
	return apperr.Wrap(apperr.KindInternal, err, "failed to load "+what)
}

// uniqueIDs drops duplicates while keeping first-seen order.
func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
