package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidRecord marks catalog records that failed boundary validation.
var ErrInvalidRecord = errors.New("invalid catalog record")

// RecordKind names the catalog collection a record came from.
type RecordKind string

const (
	RecordStore   RecordKind = "store"
	RecordProduct RecordKind = "product"
)

// ValidationError describes one problem found in an upstream record.
// Rejected records are left out of the batch; the rest are kept with the
// offending field cleared.
type ValidationError struct {
	Kind     RecordKind
	RecordID string
	Field    string
	Reason   string
	Rejected bool
}

func (e *ValidationError) Error() string {
	id := strings.TrimSpace(e.RecordID)
	if id == "" {
		id = "<no id>"
	}
	action := "flagged"
	if e.Rejected {
		action = "rejected"
	}
	return fmt.Sprintf("%s %s %s: %s %s", e.Kind, id, action, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidRecord
}

// Batch is a validated snapshot of one catalog collection.
type Batch[T any] struct {
	Items  []T
	Issues []*ValidationError
}

// Warnings renders batch issues as user-facing warning lines.
func (b Batch[T]) Warnings() []string {
	warnings := make([]string, 0, len(b.Issues))
	for _, issue := range b.Issues {
		if issue == nil {
			continue
		}
		warnings = append(warnings, issue.Error())
	}
	return warnings
}
