package core

import "github.com/google/uuid"

// NewID returns a random opaque identifier assigned before insert.
func NewID() string {
	return uuid.NewString()
}
