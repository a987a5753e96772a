package user

import (
	"time"

	"github.com/google/uuid"
)

// Record is the identity principal that owns expense types, expenses and
// aggregates.
type Record struct {
	ID        uuid.UUID
	Email     string
	UserName  string
	CreatedAt time.Time
}
