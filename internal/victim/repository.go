package victim

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no victim matches the given id or name.
var ErrNotFound = errors.New("victim not found")

// ErrConflict is returned when a conditional update finds the victim was
// modified after it was read.
var ErrConflict = errors.New("victim was modified concurrently")

// ErrResurrect is returned when an update attempts to set a dead victim
// back to alive.
var ErrResurrect = errors.New("a dead victim cannot be revived")

// Repository provides storage operations on victims and their images.
type Repository interface {
	Create(ctx context.Context, v *Victim) error
	GetByID(ctx context.Context, id uuid.UUID) (*Victim, error)
	GetByName(ctx context.Context, name string) (*Victim, error)
	List(ctx context.Context, filter ListFilter) (*ListResult, error)
	ListAlive(ctx context.Context, limit, offset int) ([]Victim, error)
	CompareAndUpdate(ctx context.Context, id uuid.UUID, expectedVersion int, p Patch) (*Victim, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteAll(ctx context.Context) (int64, error)
}
