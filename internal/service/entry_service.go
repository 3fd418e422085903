package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"actilog/internal/cache"
	"actilog/internal/errors"
	"actilog/internal/model"
	"actilog/internal/realtime"
	"actilog/internal/repository"
)

// Actor identifies the authenticated caller of a service operation.
type Actor struct {
	ID    uint
	Admin bool
}

// EntryDraft is one candidate entry before validation. Online submissions
// and offline sync drafts share this shape; TempID is only set on drafts
// replayed from a client queue.
type EntryDraft struct {
	TempID      string
	Date        string
	Time        string
	CourtierID  uint
	Minutes     int
	ActeType    string
	ActeGestion string
	Dossier     string
	ClientName  string
	Description string
}

// EntryList is one page of entries plus paging metadata.
type EntryList struct {
	Entries     []model.EntryView `json:"entries"`
	Total       int64             `json:"total"`
	Pages       int               `json:"pages"`
	CurrentPage int               `json:"current_page"`
	PerPage     int               `json:"per_page"`
}

// EntryService handles entry submission, listing and deletion.
type EntryService interface {
	Create(ctx context.Context, userID uint, draft EntryDraft) (*model.Entry, error)
	List(ctx context.Context, actor Actor, filter repository.EntryFilter) (*EntryList, error)
	Delete(ctx context.Context, actor Actor, entryID uint) error
}

type entryService struct {
	entryRepo    repository.EntryRepository
	userRepo     repository.UserRepository
	courtierRepo repository.CourtierRepository
	cache        *cache.Client
	broadcaster  realtime.Broadcaster
}

// NewEntryService creates a new entry service.
func NewEntryService(
	entryRepo repository.EntryRepository,
	userRepo repository.UserRepository,
	courtierRepo repository.CourtierRepository,
	cache *cache.Client,
	broadcaster realtime.Broadcaster,
) EntryService {
	return &entryService{
		entryRepo:    entryRepo,
		userRepo:     userRepo,
		courtierRepo: courtierRepo,
		cache:        cache,
		broadcaster:  broadcaster,
	}
}

// Create validates and persists one entry, then pushes entry_added to
// connected clients. Both the online path and each sync draft go through
// here so the two paths can never produce different records.
func (s *entryService) Create(ctx context.Context, userID uint, draft EntryDraft) (*model.Entry, error) {
	entry, err := s.validate(ctx, userID, draft)
	if err != nil {
		return nil, err
	}

	// One draft, one transaction: a failing draft can never take a
	// sibling draft's insert down with it.
	err = s.entryRepo.WithTransaction(ctx, func(ctx context.Context, txRepo repository.EntryRepository) error {
		return txRepo.Create(ctx, entry)
	})
	if err != nil {
		return nil, fmt.Errorf("create entry: %w", err)
	}

	s.invalidateStats(ctx, userID)
	if s.broadcaster != nil {
		s.broadcaster.EntryAdded(entry.View(), userID)
	}

	return entry, nil
}

// validate checks the draft against the referential and field rules and
// materializes the entry with its relations resolved. Date and time
// default to the server clock when absent, matching the entry form.
func (s *entryService) validate(ctx context.Context, userID uint, draft EntryDraft) (*model.Entry, error) {
	if draft.CourtierID == 0 {
		return nil, &errors.MissingFieldError{Field: "courtier_id"}
	}
	if draft.ActeType == "" {
		return nil, &errors.MissingFieldError{Field: "acte_type"}
	}
	acteType := model.ActeType(draft.ActeType)
	if !acteType.Valid() {
		return nil, errors.ErrInvalidActeType
	}
	if draft.Minutes <= 0 {
		return nil, errors.ErrInvalidDuration
	}

	now := time.Now()
	day := startOfDay(now)
	if draft.Date != "" {
		parsed, err := time.Parse(model.DateLayout, draft.Date)
		if err != nil {
			return nil, errors.ErrInvalidDate
		}
		day = parsed
	}
	clock := now.Format(model.TimeLayout)
	if draft.Time != "" {
		if _, err := time.Parse(model.TimeLayout, draft.Time); err != nil {
			return nil, errors.ErrInvalidTime
		}
		clock = draft.Time
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !user.IsActive {
		return nil, errors.ErrUserInactive
	}

	courtier, err := s.courtierRepo.FindByID(ctx, draft.CourtierID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrCourtierNotFound
		}
		return nil, fmt.Errorf("load courtier: %w", err)
	}
	if !courtier.IsActive {
		return nil, errors.ErrCourtierInactive
	}

	return &model.Entry{
		Date:        day,
		Time:        clock,
		UserID:      user.ID,
		CourtierID:  courtier.ID,
		Minutes:     draft.Minutes,
		ActeType:    acteType,
		ActeGestion: strings.TrimSpace(draft.ActeGestion),
		Dossier:     strings.TrimSpace(draft.Dossier),
		ClientName:  strings.TrimSpace(draft.ClientName),
		Description: strings.TrimSpace(draft.Description),
		User:        *user,
		Courtier:    *courtier,
	}, nil
}

// List returns a page of entries. Non-admins always see their own entries;
// the user_id filter only takes effect for admins.
func (s *entryService) List(ctx context.Context, actor Actor, filter repository.EntryFilter) (*EntryList, error) {
	if !actor.Admin || filter.UserID == 0 {
		filter.UserID = actor.ID
	}

	entries, total, err := s.entryRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}

	views := make([]model.EntryView, 0, len(entries))
	for i := range entries {
		views = append(views, entries[i].View())
	}

	perPage := filter.PerPage
	if perPage < 1 {
		perPage = repository.DefaultPerPage
	}
	if perPage > repository.MaxPerPage {
		perPage = repository.MaxPerPage
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pages := int((total + int64(perPage) - 1) / int64(perPage))

	return &EntryList{
		Entries:     views,
		Total:       total,
		Pages:       pages,
		CurrentPage: page,
		PerPage:     perPage,
	}, nil
}

// Delete removes an entry. Owners delete their own; admins delete any.
func (s *entryService) Delete(ctx context.Context, actor Actor, entryID uint) error {
	entry, err := s.entryRepo.FindByID(ctx, entryID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.ErrEntryNotFound
		}
		return fmt.Errorf("load entry: %w", err)
	}

	if entry.UserID != actor.ID && !actor.Admin {
		return errors.ErrForbidden
	}

	if err := s.entryRepo.Delete(ctx, entryID); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}

	s.invalidateStats(ctx, entry.UserID)
	return nil
}

// invalidateStats drops the owner's cached counters after a write.
func (s *entryService) invalidateStats(ctx context.Context, userID uint) {
	_ = s.cache.Delete(ctx, statsCacheKey(userID), dashboardCacheKey(userID))
}
