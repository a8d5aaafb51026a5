/*
errors.go - Sentinel errors shared by the ingestion and API layers

USAGE:
  Callers wrap these with context and match with errors.Is:

    if errors.Is(err, core.ErrAccountNotFound) {
        // 404
    }

  Line-level parse failures are NOT errors at this level; they are
  collected by the parse package and reported alongside the batch.
*/
package core

import "errors"

var (
	// ErrInvalidSnapshot is returned when a JSON import lacks the accounts array.
	ErrInvalidSnapshot = errors.New("invalid snapshot: missing accounts array")

	ErrAccountNotFound = errors.New("account not found")
	ErrHotelNotFound   = errors.New("hotel not found")
	ErrBookingNotFound = errors.New("booking not found")
	ErrSaleNotFound    = errors.New("sale not found")

	// ErrInvalidEmail is returned for manual entries without a usable email.
	ErrInvalidEmail = errors.New("invalid email")

	// ErrInvalidAmount is returned for manual entries with a non-positive amount.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrDuplicateHotel is returned when adding a hotel whose ID already exists.
	ErrDuplicateHotel = errors.New("hotel already exists")

	// ErrInvalidHotel is returned when a hotel has neither a name nor an ID.
	ErrInvalidHotel = errors.New("hotel name or id required")
)

// IsNotFound returns true if the error indicates a missing entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrHotelNotFound) ||
		errors.Is(err, ErrBookingNotFound) ||
		errors.Is(err, ErrSaleNotFound)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidSnapshot) ||
		errors.Is(err, ErrInvalidEmail) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrDuplicateHotel) ||
		errors.Is(err, ErrInvalidHotel)
}
