// Package service holds the use cases behind the HTTP handlers. Services
// combine the repositories, the static catalog and the pure calculators.
package service

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"maeum-toegeun/backend/internal/repository"
	apperrors "maeum-toegeun/backend/pkg/errors"
)

// Clock returns the current time. Tests pin it.
type Clock func() time.Time

func orNow(c Clock) Clock {
	if c == nil {
		return time.Now
	}
	return c
}

// notFound maps a repository miss to a 404 and passes other errors through
func notFound(err error, message string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFoundError(apperrors.CodeNotFound, message).Wrap(err)
	}
	return err
}

// missing is the 404 for a delete that removed nothing
func missing(message string) error {
	return apperrors.NewNotFoundError(apperrors.CodeNotFound, message).Wrap(repository.ErrNotFound)
}

func invalid(field, message string) error {
	return apperrors.NewValidationError(message, map[string]string{field: message})
}

// newNoteID is assigned before storage because the id seals the content
func newNoteID() string { return uuid.NewString() }

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func anyShared(have, want []string) bool {
	for _, w := range want {
		if containsString(have, w) {
			return true
		}
	}
	return false
}
