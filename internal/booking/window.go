package booking

import (
	"time"

	pkgerrors "github.com/gearbookhq/gearbook-backend/pkg/errors"
)

// Window is a half-open booking interval [StartAt, EndAt).
type Window struct {
	StartAt time.Time
	EndAt   time.Time
}

// NewWindow builds a validated window.
func NewWindow(startAt, endAt time.Time) (Window, error) {
	w := Window{StartAt: startAt, EndAt: endAt}
	if err := w.Validate(); err != nil {
		return Window{}, err
	}
	return w, nil
}

// Validate rejects zero endpoints and windows where the start does not
// strictly precede the end. Zero-length windows reserve nothing and are
// treated as invalid input.
func (w Window) Validate() error {
	if w.StartAt.IsZero() || w.EndAt.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "window start and end are required")
	}
	if !w.StartAt.Before(w.EndAt) {
		return pkgerrors.New(pkgerrors.CodeValidation, "window start must be before end")
	}
	return nil
}

// Overlaps reports whether two half-open intervals share any instant.
// Back-to-back windows (a.EndAt == b.StartAt) do not overlap.
func (w Window) Overlaps(other Window) bool {
	return w.StartAt.Before(other.EndAt) && other.StartAt.Before(w.EndAt)
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.StartAt) && t.Before(w.EndAt)
}

// StartsAfter reports whether the window begins strictly after t.
// Cancellation is only allowed while this holds.
func (w Window) StartsAfter(t time.Time) bool {
	return w.StartAt.After(t)
}

// Duration returns the window length.
func (w Window) Duration() time.Duration {
	return w.EndAt.Sub(w.StartAt)
}
