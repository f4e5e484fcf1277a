package domain

import (
	"time"

	"github.com/google/uuid"
)

// Actor is the principal that owns recipes and holds a token quota.
// Actors are created on first identity exchange and never change afterwards.
type Actor struct {
	ID        uuid.UUID
	Subject   string
	Email     string
	Name      string
	Picture   *string
	CreatedAt time.Time
}

// Quota is the token balance of a single actor.
//
// LastRefill is always a past refill boundary. A zero LastRefill means the
// stored value could not be parsed.
type Quota struct {
	ActorID    uuid.UUID
	Balance    int
	LastRefill time.Time
}
