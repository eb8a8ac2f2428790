// Package store defines the persistence contracts shared by the project and
// analysis stores.
package store

import (
	"errors"
	"fmt"

	"github.com/panbanda/triage/pkg/models"
)

var (
	// ErrNotFound is returned when a project or report does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidTransition is returned for a status change the project
	// lifecycle does not allow.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// CheckTransition returns ErrInvalidTransition when a project cannot move
// from current to next. An unknown project is treated as pending.
func CheckTransition(current, next models.ProjectStatus) error {
	if current == "" {
		current = models.ProjectPending
	}
	if !current.CanTransition(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, next)
	}
	return nil
}
