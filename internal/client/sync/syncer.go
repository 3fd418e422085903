// Package sync flushes the offline queue to the server. Only temp ids the
// server acknowledges leave the queue; failed drafts stay for the next pass.
package sync

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"actilog/internal/client/api"
	"actilog/internal/client/store"
)

// ErrFlushInFlight is returned when a flush is already running; the caller
// should not retry immediately.
var ErrFlushInFlight = errors.New("flush already in flight")

// Queue is the draft storage the syncer drains.
type Queue interface {
	Pending(ctx context.Context) ([]store.Draft, error)
	Remove(ctx context.Context, tempIDs []string) error
}

// Uploader replays a batch of drafts against the server.
type Uploader interface {
	Sync(ctx context.Context, items []api.SyncItem) (*api.SyncManifest, error)
}

// Failure names a draft the server rejected and why.
type Failure struct {
	TempID string
	Reason string
}

// Report summarizes one flush for the UI.
type Report struct {
	Synced   int
	Failed   int
	Failures []Failure
}

// Syncer coordinates queue flushes. At most one flush runs at a time.
type Syncer struct {
	queue    Queue
	uploader Uploader
	inFlight atomic.Bool
}

// New builds a Syncer over the given queue and uploader.
func New(queue Queue, uploader Uploader) *Syncer {
	return &Syncer{queue: queue, uploader: uploader}
}

// Flush submits all pending drafts as one batch and removes exactly the
// acknowledged ones. An empty queue returns an empty report without any
// network call. Concurrent calls fail fast with ErrFlushInFlight.
func (s *Syncer) Flush(ctx context.Context) (*Report, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return nil, ErrFlushInFlight
	}
	defer s.inFlight.Store(false)

	pending, err := s.queue.Pending(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending drafts: %w", err)
	}
	if len(pending) == 0 {
		return &Report{}, nil
	}

	items := make([]api.SyncItem, len(pending))
	for i, draft := range pending {
		items[i] = draft.SyncItem
	}

	manifest, err := s.uploader.Sync(ctx, items)
	if err != nil {
		return nil, err
	}

	acked := make([]string, 0, len(manifest.SyncedEntries))
	for _, synced := range manifest.SyncedEntries {
		acked = append(acked, synced.TempID)
	}
	if err := s.queue.Remove(ctx, acked); err != nil {
		return nil, fmt.Errorf("server acknowledged %d drafts but removing them failed: %w", len(acked), err)
	}

	report := &Report{Synced: manifest.Synced, Failed: manifest.Errors}
	for _, detail := range manifest.ErrorDetails {
		report.Failures = append(report.Failures, Failure{TempID: detail.TempID, Reason: detail.Reason})
	}
	return report, nil
}
