package service

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"actilog/internal/errors"
	"actilog/internal/model"
	"actilog/internal/repository"
)

// CourtierService manages the broker referential entries are attributed to.
type CourtierService interface {
	List(ctx context.Context, includeInactive bool) ([]model.Courtier, error)
	Create(ctx context.Context, name string, odooID *int) (*model.Courtier, error)
	Toggle(ctx context.Context, id uint) (*model.Courtier, error)
	Delete(ctx context.Context, id uint) error
}

type courtierService struct {
	courtierRepo repository.CourtierRepository
	entryRepo    repository.EntryRepository
}

// NewCourtierService creates a new courtier service.
func NewCourtierService(courtierRepo repository.CourtierRepository, entryRepo repository.EntryRepository) CourtierService {
	return &courtierService{courtierRepo: courtierRepo, entryRepo: entryRepo}
}

func (s *courtierService) List(ctx context.Context, includeInactive bool) ([]model.Courtier, error) {
	if includeInactive {
		return s.courtierRepo.List(ctx)
	}
	return s.courtierRepo.ListActive(ctx)
}

// Create adds a courtier. Any authenticated user may add one so the entry
// form never dead-ends on a missing broker; names are unique.
func (s *courtierService) Create(ctx context.Context, name string, odooID *int) (*model.Courtier, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &errors.MissingFieldError{Field: "name"}
	}

	_, err := s.courtierRepo.FindByName(ctx, name)
	switch {
	case err == nil:
		return nil, errors.ErrCourtierExists
	case err != gorm.ErrRecordNotFound:
		return nil, fmt.Errorf("lookup courtier: %w", err)
	}

	courtier := &model.Courtier{
		Name:     name,
		OdooID:   odooID,
		IsActive: true,
	}
	if err := s.courtierRepo.Create(ctx, courtier); err != nil {
		return nil, fmt.Errorf("create courtier: %w", err)
	}
	return courtier, nil
}

// Toggle flips a courtier between active and inactive. Inactive courtiers
// stay attached to their past entries but reject new ones.
func (s *courtierService) Toggle(ctx context.Context, id uint) (*model.Courtier, error) {
	courtier, err := s.courtierRepo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrCourtierNotFound
		}
		return nil, fmt.Errorf("load courtier: %w", err)
	}

	courtier.IsActive = !courtier.IsActive
	if err := s.courtierRepo.Update(ctx, courtier); err != nil {
		return nil, fmt.Errorf("update courtier: %w", err)
	}
	return courtier, nil
}

// Delete removes a courtier that has no entries. Courtiers with history
// must be deactivated instead so old entries keep their attribution.
func (s *courtierService) Delete(ctx context.Context, id uint) error {
	if _, err := s.courtierRepo.FindByID(ctx, id); err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.ErrCourtierNotFound
		}
		return fmt.Errorf("load courtier: %w", err)
	}

	n, err := s.entryRepo.CountForCourtier(ctx, id)
	if err != nil {
		return fmt.Errorf("count courtier entries: %w", err)
	}
	if n > 0 {
		return errors.ErrCourtierHasEntries
	}

	if err := s.courtierRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete courtier: %w", err)
	}
	return nil
}
