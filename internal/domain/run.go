package domain

import (
	"time"

	"github.com/google/uuid"
)

// RunKind names the ingestion entry point that produced a run.
type RunKind string

const (
	RunKindCategory RunKind = "category"
	RunKindRecipe   RunKind = "recipe"
)

func (k RunKind) String() string { return string(k) }

func (k RunKind) IsValid() bool {
	switch k {
	case RunKindCategory, RunKindRecipe:
		return true
	}
	return false
}

// IngestRun is the journal record of one ingestion call that changed an
// actor's stock. Target is the category id or the recipe id.
type IngestRun struct {
	ID             string
	ActorID        uuid.UUID
	Kind           RunKind
	Target         string
	Fetched        int
	Added          int
	Skipped        int
	QuotaExhausted bool
	CreatedAt      time.Time
}
