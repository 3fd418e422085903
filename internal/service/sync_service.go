package service

import (
	"context"
	"log/slog"

	"actilog/internal/model"
)

// SyncedEntry pairs a client temp id with the entry the server created for it.
type SyncedEntry struct {
	TempID string          `json:"temp_id"`
	Entry  model.EntryView `json:"entry"`
}

// SyncError describes why one draft was rejected.
type SyncError struct {
	TempID string `json:"temp_id"`
	Reason string `json:"reason"`
}

// SyncManifest is the outcome of one sync batch. Clients remove exactly
// the drafts listed in SyncedEntries from their queue and keep the rest.
type SyncManifest struct {
	Synced        int           `json:"synced"`
	Errors        int           `json:"errors"`
	SyncedEntries []SyncedEntry `json:"synced_entries"`
	ErrorDetails  []SyncError   `json:"error_details"`
}

// SyncService replays offline drafts into real entries.
type SyncService interface {
	Process(ctx context.Context, userID uint, drafts []EntryDraft) (*SyncManifest, error)
}

type syncService struct {
	entries EntryService
	logger  *slog.Logger
}

// NewSyncService creates a new sync service.
func NewSyncService(entries EntryService, logger *slog.Logger) SyncService {
	return &syncService{entries: entries, logger: logger}
}

// Process runs each draft through the regular entry creation path and
// reports per-draft outcomes. Drafts are independent: one bad draft never
// blocks its siblings, and the batch as a whole never fails.
func (s *syncService) Process(ctx context.Context, userID uint, drafts []EntryDraft) (*SyncManifest, error) {
	manifest := &SyncManifest{
		SyncedEntries: make([]SyncedEntry, 0, len(drafts)),
		ErrorDetails:  make([]SyncError, 0),
	}

	for _, draft := range drafts {
		entry, err := s.entries.Create(ctx, userID, draft)
		if err != nil {
			manifest.Errors++
			manifest.ErrorDetails = append(manifest.ErrorDetails, SyncError{
				TempID: draft.TempID,
				Reason: err.Error(),
			})
			s.logger.Warn("sync draft rejected",
				"user_id", userID,
				"temp_id", draft.TempID,
				"reason", err.Error(),
			)
			continue
		}

		manifest.Synced++
		manifest.SyncedEntries = append(manifest.SyncedEntries, SyncedEntry{
			TempID: draft.TempID,
			Entry:  entry.View(),
		})
	}

	if len(drafts) > 0 {
		s.logger.Info("sync batch processed",
			"user_id", userID,
			"synced", manifest.Synced,
			"errors", manifest.Errors,
		)
	}

	return manifest, nil
}
