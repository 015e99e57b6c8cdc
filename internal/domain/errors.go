// Package domain holds the sentinel errors shared by every onboarding
// package. Adapters map them to transport status codes.
package domain

import "errors"

// ErrNotFound reports that no case, review or event matches the lookup.
var ErrNotFound = errors.New("not found")

// ErrConflict reports a lost optimistic-lock race or a state transition the
// case no longer allows.
var ErrConflict = errors.New("conflict: resource was modified by another request")

// ErrValidation marks rejected caller input. Text wrapped after it is safe
// to show to the applicant or reviewer.
var ErrValidation = errors.New("validation")
