// Package uuid issues time-ordered identifiers for audit records so that ID
// order follows insertion order.
package uuid

import (
	googleuuid "github.com/google/uuid"
)

// New generates a new UUIDv7 (48-bit millisecond timestamp prefix, RFC 9562).
// It falls back to a random UUIDv4 if the entropy source fails.
func New() string {
	id, err := googleuuid.NewV7()
	if err != nil {
		return googleuuid.New().String()
	}
	return id.String()
}

// IsValid checks if a string is a valid UUID
func IsValid(s string) bool {
	_, err := googleuuid.Parse(s)
	return err == nil
}
