package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCoordinates is returned for points outside the lat/lng bounds.
	ErrInvalidCoordinates = errors.New("invalid coordinates")

	// ErrNoMatch is returned by a geocoder when a query has no result.
	ErrNoMatch = errors.New("geocode: no match")

	// ErrOriginUnavailable is the sentinel matched by every OriginUnavailableError.
	ErrOriginUnavailable = errors.New("origin unavailable")

	// ErrInsufficientDestinations means no report carried usable coordinates.
	ErrInsufficientDestinations = errors.New("no reports with usable coordinates")

	ErrReportNotFound = errors.New("report not found")

	// ErrReportNotApproved is returned when collecting a report that is pending or already collected.
	ErrReportNotApproved = errors.New("report is not approved for collection")
)

// Why the collector's starting point could not be acquired.
type OriginFailureReason string

const (
	OriginPermissionDenied OriginFailureReason = "permission_denied"
	OriginTimeout          OriginFailureReason = "timeout"
	OriginUnsupported      OriginFailureReason = "unsupported"

	// Any other sensor failure, or a reading outside the valid range.
	OriginPositionUnavailable OriginFailureReason = "position_unavailable"
)

// ParseOriginFailureReason maps the short codes reported by a device
// ("denied", "timeout", "unsupported", "unavailable") to a reason.
func ParseOriginFailureReason(s string) (OriginFailureReason, error) {
	switch s {
	case "denied", string(OriginPermissionDenied):
		return OriginPermissionDenied, nil
	case string(OriginTimeout):
		return OriginTimeout, nil
	case string(OriginUnsupported):
		return OriginUnsupported, nil
	case "unavailable", string(OriginPositionUnavailable):
		return OriginPositionUnavailable, nil
	}
	return "", fmt.Errorf("unknown origin failure reason %q", s)
}

// Message returns the text shown to the collector for this reason.
func (r OriginFailureReason) Message() string {
	switch r {
	case OriginPermissionDenied:
		return "Location denied. Allow location to calculate route from your position."
	case OriginTimeout:
		return "Could not get your location in time."
	case OriginUnsupported:
		return "Geolocation not supported."
	}
	return "Could not get your location."
}

// OriginUnavailableError is fatal to a planning session.
type OriginUnavailableError struct {
	Reason OriginFailureReason
	Err    error
}

func (e *OriginUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("origin unavailable (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("origin unavailable (%s)", e.Reason)
}

func (e *OriginUnavailableError) Unwrap() error { return e.Err }

func (e *OriginUnavailableError) Is(target error) bool { return target == ErrOriginUnavailable }

// NewOriginUnavailable wraps an optional cause with a failure reason.
func NewOriginUnavailable(reason OriginFailureReason, err error) *OriginUnavailableError {
	return &OriginUnavailableError{Reason: reason, Err: err}
}
