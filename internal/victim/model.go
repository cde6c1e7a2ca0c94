package victim

import (
	"time"

	"github.com/google/uuid"
)

// DefaultDeathType is the cause assigned when none is supplied at creation.
const DefaultDeathType = "Heart Attack"

// Victim represents a row in the victims table. Images holds the URLs of the
// attached images, owned by the victim and cascade-deleted with it.
type Victim struct {
	ID        uuid.UUID
	Name      string
	LastName  string
	DeathType string
	Details   *string
	IsAlive   bool
	Version   int
	CreatedAt time.Time
	EditedAt  *time.Time
	Images    []string
}

// HasDetails reports whether death details have been provided.
func (v *Victim) HasDetails() bool {
	return v.Details != nil && *v.Details != ""
}

// ReferenceTime returns the timestamp deadline evaluation measures from:
// the last edit, or creation when the victim was never edited.
func (v *Victim) ReferenceTime() time.Time {
	if v.EditedAt != nil {
		return *v.EditedAt
	}
	return v.CreatedAt
}

// Patch holds mutable victim fields for a conditional update.
// Nil fields are not updated.
type Patch struct {
	DeathType *string
	Details   *string
	IsAlive   *bool
}

// ListFilter holds pagination for listing victims.
type ListFilter struct {
	Limit  int // default 20, max 100
	Offset int
}

// ListResult holds the result of a paginated list query.
type ListResult struct {
	Victims []Victim
	Total   int
	Limit   int
	Offset  int
}
