package shared

import "github.com/google/uuid"

// Caller is the already-authenticated principal acting on behalf of one business
type Caller struct {
	BusinessID  uuid.UUID
	PrincipalID uuid.UUID
}

// Owns reports whether the caller acts for businessID
func (c Caller) Owns(businessID uuid.UUID) bool {
	return c.BusinessID != uuid.Nil && c.BusinessID == businessID
}
