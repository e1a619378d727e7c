package types

import (
	"github.com/google/uuid"
)

// NewMappingID generates a UUIDv7 mapping identifier.
// Panics on clock regression (uuid.Must); acceptable for ID generation.
func NewMappingID() MappingID {
	return MappingID(uuid.Must(uuid.NewV7()).String())
}

// ParseMappingID validates and converts a string to MappingID.
func ParseMappingID(s string) (MappingID, error) {
	if _, err := uuid.Parse(s); err != nil {
		return "", err
	}
	return MappingID(s), nil
}
