package victim

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// Service provides the victim lifecycle operations consumed by the HTTP layer.
type Service struct {
	repo Repository
}

// NewService creates a new victim Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateInput holds the fields accepted at victim creation.
type CreateInput struct {
	Name      string
	LastName  string
	DeathType string
	Images    []string
}

// Create normalizes the input and inserts a new victim. Names are trimmed and
// uppercased; an empty death type resolves to the default cause.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Victim, error) {
	deathType := strings.TrimSpace(in.DeathType)
	if deathType == "" {
		deathType = DefaultDeathType
	}

	v := &Victim{
		Name:      strings.ToUpper(strings.TrimSpace(in.Name)),
		LastName:  strings.ToUpper(strings.TrimSpace(in.LastName)),
		DeathType: deathType,
		Images:    in.Images,
	}
	if v.Images == nil {
		v.Images = []string{}
	}

	if err := s.repo.Create(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// UpdateDeathType changes a victim's cause of death, stamping edited_at.
// Returns ErrConflict if the victim was modified between read and write.
func (s *Service) UpdateDeathType(ctx context.Context, id uuid.UUID, deathType string) (*Victim, error) {
	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.repo.CompareAndUpdate(ctx, id, v.Version, Patch{DeathType: &deathType})
}

// UpdateDetails sets a victim's death details, stamping edited_at.
// Returns ErrConflict if the victim was modified between read and write.
func (s *Service) UpdateDetails(ctx context.Context, id uuid.UUID, details string) (*Victim, error) {
	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.repo.CompareAndUpdate(ctx, id, v.Version, Patch{Details: &details})
}

// Find looks a victim up by UUID, or by case-insensitive first/last name
// when the term is not a valid UUID.
func (s *Service) Find(ctx context.Context, term string) (*Victim, error) {
	if id, err := uuid.Parse(term); err == nil {
		return s.repo.GetByID(ctx, id)
	}
	return s.repo.GetByName(ctx, term)
}

// List returns a page of victims with their image URLs.
func (s *Service) List(ctx context.Context, filter ListFilter) (*ListResult, error) {
	return s.repo.List(ctx, filter)
}

// Delete removes a victim and its images.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// DeleteAll removes every victim, returning how many were deleted.
func (s *Service) DeleteAll(ctx context.Context) (int64, error) {
	return s.repo.DeleteAll(ctx)
}
