package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrAnonymousReporter = errors.New("authentication is required to report content")
	ErrMissingInfo       = errors.New("please supply some information as the reason for flagging")
)

// InvalidReasonError carries the rejected raw reason value so the caller can
// echo it back in a validation message.
type InvalidReasonError struct {
	Reason string
}

func (e *InvalidReasonError) Error() string {
	return fmt.Sprintf("%q is an invalid reason", e.Reason)
}

// DuplicateReportError is the benign "already reported" outcome, produced
// from the unique-constraint collision on (flag_id, reporter_id).
type DuplicateReportError struct {
	Reporter uuid.UUID
}

func (e *DuplicateReportError) Error() string {
	return fmt.Sprintf("this content has already been reported by the user (%s)", e.Reporter)
}

// NoSuchReportError is returned when a withdrawal finds no active report for
// the user on that content.
type NoSuchReportError struct {
	Reporter uuid.UUID
}

func (e *NoSuchReportError) Error() string {
	return fmt.Sprintf("this content has not been reported by the user (%s)", e.Reporter)
}

// isUniqueViolation reports whether err is a unique-constraint collision.
// Checks the translated GORM sentinel first, then falls back to driver
// messages (Postgres and SQLite) for connections opened without
// TranslateError.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
