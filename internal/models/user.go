package models

import (
	"time"

	"github.com/google/uuid"
)

// User mirrors the identity provider's view of an account. Credentials never
// reach this service; the middleware hands us a verified subject.
type User struct {
	ID          uuid.UUID `json:"id"`
	ExternalUID string    `json:"-"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	CreatedAt   time.Time `json:"created_at"`
}
