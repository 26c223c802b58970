// Package filter turns a partially specified search request into a listing
// predicate. The visibility cohort gate is always part of the result.
package filter

import (
	"errors"
	"fmt"

	"github.com/capstone-maru/maru/internal/listing"
)

// ErrValidation is the sentinel every ValidationError matches with errors.Is.
var ErrValidation = errors.New("validation error")

// ValidationError reports a malformed search input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation error: " + e.Reason
	}
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Reason)
}

// Is makes errors.Is(err, ErrValidation) true for any *ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError builds a *ValidationError.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// IntRange is an inclusive range. A nil bound leaves that side open.
type IntRange struct {
	Min *int64 `json:"min,omitempty"`
	Max *int64 `json:"max,omitempty"`
}

// IsZero reports whether neither bound is set.
func (r IntRange) IsZero() bool {
	return r.Min == nil && r.Max == nil
}

// SearchFilterRequest holds optional structural constraints. A nil field
// means "no constraint" and never becomes a clause.
type SearchFilterRequest struct {
	RentalType             *listing.RentalType `json:"rental_type,omitempty"`
	FloorType              *listing.FloorType  `json:"floor_type,omitempty"`
	RoomType               *listing.RoomType   `json:"room_type,omitempty"`
	Size                   IntRange            `json:"size"`
	NumberOfRoom           *int64              `json:"number_of_room,omitempty"`
	NumberOfBathRoom       *int64              `json:"number_of_bathroom,omitempty"`
	HasLivingRoom          *bool               `json:"has_living_room,omitempty"`
	RecruitmentCapacityMin *int64              `json:"recruitment_capacity_min,omitempty"`
	ExpectedPayment        IntRange            `json:"expected_payment"`
	Location               *string             `json:"location,omitempty"` // "city district" prefix
	Geohash                *string             `json:"geohash,omitempty"`  // coarse cell prefix
}

// Validate checks enum membership, non-negative counts and range ordering.
func (r SearchFilterRequest) Validate() error {
	if r.RentalType != nil && !r.RentalType.Valid() {
		return NewValidationError("rental_type", fmt.Sprintf("unknown rental type %q", *r.RentalType))
	}
	if r.FloorType != nil && !r.FloorType.Valid() {
		return NewValidationError("floor_type", fmt.Sprintf("unknown floor type %q", *r.FloorType))
	}
	if r.RoomType != nil && !r.RoomType.Valid() {
		return NewValidationError("room_type", fmt.Sprintf("unknown room type %q", *r.RoomType))
	}
	if err := validateRange("size", r.Size); err != nil {
		return err
	}
	if err := validateRange("expected_payment", r.ExpectedPayment); err != nil {
		return err
	}
	for _, c := range []struct {
		field string
		value *int64
	}{
		{"number_of_room", r.NumberOfRoom},
		{"number_of_bathroom", r.NumberOfBathRoom},
		{"recruitment_capacity_min", r.RecruitmentCapacityMin},
	} {
		if c.value != nil && *c.value < 0 {
			return NewValidationError(c.field, "must not be negative")
		}
	}
	return nil
}

// validateRange rejects min > max. Bounds are never swapped.
func validateRange(field string, r IntRange) error {
	if r.Min != nil && *r.Min < 0 {
		return NewValidationError(field, "min must not be negative")
	}
	if r.Max != nil && *r.Max < 0 {
		return NewValidationError(field, "max must not be negative")
	}
	if r.Min != nil && r.Max != nil && *r.Min > *r.Max {
		return NewValidationError(field, fmt.Sprintf("min %d is greater than max %d", *r.Min, *r.Max))
	}
	return nil
}
