package core

import "github.com/google/uuid"

// NewID returns a fresh opaque identifier for bookings, sales, promo
// rewards and audit entries.
func NewID() string {
	return uuid.NewString()
}
