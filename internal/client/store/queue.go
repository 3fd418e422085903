package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"actilog/internal/client/api"
)

// ErrQueueFull is returned when the offline queue is at capacity; the draft
// is not stored and the caller must surface the overflow.
var ErrQueueFull = errors.New("offline queue full")

// Draft is a queued entry awaiting sync.
type Draft struct {
	api.SyncItem
	EnqueuedAt time.Time
}

// Enqueue stamps the payload with a temp id and the local time and commits
// it immediately. Fails with ErrQueueFull instead of evicting older drafts.
func (s *Store) Enqueue(ctx context.Context, payload api.EntryPayload) (*Draft, error) {
	draft := &Draft{
		SyncItem:   api.SyncItem{TempID: uuid.NewString(), EntryPayload: payload},
		EnqueuedAt: time.Now(),
	}

	// The capacity check and the insert run as one statement so concurrent
	// enqueues cannot overshoot the bound.
	query := `INSERT INTO queue
		(temp_id, date, time, courtier_id, minutes, acte_type, acte_de_gestion, dossier, client_name, description, enqueued_at)
		SELECT ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
		WHERE (SELECT COUNT(*) FROM queue) < ?`
	res, err := s.db.ExecContext(ctx, query,
		draft.TempID, payload.Date, payload.Time, payload.CourtierID, payload.Minutes,
		payload.ActeType, payload.ActeGestion, payload.Dossier, payload.ClientName,
		payload.Description, draft.EnqueuedAt, s.limit)
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue draft: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return nil, ErrQueueFull
	}
	return draft, nil
}

// Pending returns all queued drafts in insertion order.
func (s *Store) Pending(ctx context.Context) ([]Draft, error) {
	query := `SELECT temp_id, date, time, courtier_id, minutes, acte_type, acte_de_gestion, dossier, client_name, description, enqueued_at
		FROM queue ORDER BY rowid`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select drafts: %w", err)
	}
	defer rows.Close()

	var drafts []Draft
	for rows.Next() {
		var d Draft
		if err := rows.Scan(&d.TempID, &d.Date, &d.Time, &d.CourtierID, &d.Minutes,
			&d.ActeType, &d.ActeGestion, &d.Dossier, &d.ClientName, &d.Description, &d.EnqueuedAt); err != nil {
			return nil, err
		}
		drafts = append(drafts, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return drafts, nil
}

// Remove deletes exactly the given temp ids; unknown ids are ignored.
func (s *Store) Remove(ctx context.Context, tempIDs []string) error {
	if len(tempIDs) == 0 {
		return nil
	}

	placeholders := strings.Repeat("?,", len(tempIDs))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(tempIDs))
	for i, id := range tempIDs {
		args[i] = id
	}

	query := fmt.Sprintf(`DELETE FROM queue WHERE temp_id IN (%s)`, placeholders)
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to remove drafts: %w", err)
	}
	return nil
}

// Len reports the current backlog size.
func (s *Store) Len(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM queue`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count drafts: %w", err)
	}
	return n, nil
}
