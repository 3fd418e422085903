package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"actilog/internal/client/api"
	"actilog/internal/client/store"
	clientsync "actilog/internal/client/sync"
)

// acteTypes mirrors the server's accepted kinds, in display order.
var acteTypes = []string{"Gestion sinistre", "Production", "Bloc retour"}

// Login authenticates, subscribes to live events and drains any backlog
// left over from earlier offline sessions.
func (a *App) Login(ctx context.Context) error {
	username, err := promptLine(a.scanner, a.out, "Username")
	if err != nil {
		return err
	}
	password, err := promptPassword(a.out)
	if err != nil {
		return err
	}

	result, err := a.api.Login(ctx, username, password)
	if err != nil {
		fmt.Fprintf(a.out, "login failed: %v\n", err)
		return err
	}
	a.setUser(&result.User)
	a.setMode(ModeOnline)
	fmt.Fprintf(a.out, "Logged in as %s\n", result.User.FullName)

	a.startListener(ctx)
	a.autoFlush(ctx)
	return nil
}

// Add walks the entry form, submits directly when online and queues the
// draft otherwise. A transient submit failure also falls back to the queue.
func (a *App) Add(ctx context.Context) error {
	if !a.isLoggedIn() {
		fmt.Fprintln(a.out, "login first")
		return nil
	}

	payload, err := a.entryForm(ctx)
	if err != nil {
		return err
	}
	if payload == nil {
		return nil
	}

	if a.currentMode() == ModeOnline {
		entry, err := a.api.SubmitEntry(ctx, *payload)
		if err == nil {
			fmt.Fprintf(a.out, "entry #%d recorded (%d min on %s)\n", entry.ID, entry.Minutes, entry.Date)
			return nil
		}
		if !errors.Is(err, api.ErrUnavailable) {
			fmt.Fprintf(a.out, "entry rejected: %v\n", err)
			return err
		}
		a.setMode(ModeOffline)
	}

	draft, err := a.store.Enqueue(ctx, *payload)
	if err != nil {
		if errors.Is(err, store.ErrQueueFull) {
			fmt.Fprintf(a.out, "offline queue is full (%d drafts); flush before adding more\n", a.cfg.QueueLimit)
			return err
		}
		fmt.Fprintf(a.out, "failed to queue draft: %v\n", err)
		return err
	}

	position, err := a.store.Len(ctx)
	if err != nil {
		position = 0
	}
	fmt.Fprintf(a.out, "queued offline as %s (position %d)\n", shortID(draft.TempID), position)
	return nil
}

// entryForm collects a complete entry payload. Returns nil when the user
// aborts. Date and time are pinned at capture so drafts synced later keep
// the day they were logged on.
func (a *App) entryForm(ctx context.Context) (*api.EntryPayload, error) {
	courtierID, err := a.pickCourtier(ctx)
	if err != nil {
		return nil, err
	}
	if courtierID == 0 {
		fmt.Fprintln(a.out, "aborted")
		return nil, nil
	}

	acteType, err := a.pickActeType()
	if err != nil {
		return nil, err
	}
	minutes, err := promptMinutes(a.scanner, a.out)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	date, err := promptDefault(a.scanner, a.out, "Date (YYYY-MM-DD)", now.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	clock, err := promptDefault(a.scanner, a.out, "Time (HH:MM)", now.Format("15:04"))
	if err != nil {
		return nil, err
	}

	clientName, err := promptLine(a.scanner, a.out, "Client name (optional)")
	if err != nil {
		return nil, err
	}
	acteGestion, err := promptLine(a.scanner, a.out, "Acte de gestion (optional)")
	if err != nil {
		return nil, err
	}
	dossier, err := promptLine(a.scanner, a.out, "Dossier (optional)")
	if err != nil {
		return nil, err
	}
	description, err := promptLine(a.scanner, a.out, "Description (optional)")
	if err != nil {
		return nil, err
	}

	_ = a.store.SetPref(ctx, prefLastCourtier, strconv.FormatUint(uint64(courtierID), 10))

	return &api.EntryPayload{
		Date:        date,
		Time:        clock,
		CourtierID:  courtierID,
		Minutes:     minutes,
		ActeType:    acteType,
		ActeGestion: acteGestion,
		Dossier:     dossier,
		ClientName:  clientName,
		Description: description,
	}, nil
}

// pickCourtier shows the referential when reachable and asks for an id,
// defaulting to the last one used. Returns 0 when the user aborts.
func (a *App) pickCourtier(ctx context.Context) (uint, error) {
	if a.currentMode() == ModeOnline {
		courtiers, err := a.api.Courtiers(ctx)
		if err == nil {
			for _, courtier := range courtiers {
				fmt.Fprintf(a.out, "  %3d  %s\n", courtier.ID, courtier.Name)
			}
		}
	}

	def, _ := a.store.GetPref(ctx, prefLastCourtier)
	text, err := promptDefault(a.scanner, a.out, "Courtier id", def)
	if err != nil {
		return 0, err
	}
	if text == "" {
		return 0, nil
	}
	id, err := strconv.ParseUint(text, 10, 32)
	if err != nil || id == 0 {
		fmt.Fprintln(a.out, "invalid courtier id")
		return 0, nil
	}
	return uint(id), nil
}

func (a *App) pickActeType() (string, error) {
	for i, t := range acteTypes {
		fmt.Fprintf(a.out, "  %d. %s\n", i+1, t)
	}
	for {
		text, err := promptLine(a.scanner, a.out, "Acte type (1-3)")
		if err != nil {
			return "", err
		}
		if n, convErr := strconv.Atoi(text); convErr == nil && n >= 1 && n <= len(acteTypes) {
			return acteTypes[n-1], nil
		}
		for _, t := range acteTypes {
			if strings.EqualFold(text, t) {
				return t, nil
			}
		}
		fmt.Fprintln(a.out, "pick 1, 2 or 3")
	}
}

// List shows the latest page of the user's entries.
func (a *App) List(ctx context.Context) error {
	if a.currentMode() != ModeOnline {
		fmt.Fprintln(a.out, "offline: use 'queue' to inspect pending drafts")
		return nil
	}

	page, err := a.api.Entries(ctx, 1, 10)
	if err != nil {
		fmt.Fprintf(a.out, "failed to list entries: %v\n", err)
		return err
	}
	if len(page.Entries) == 0 {
		fmt.Fprintln(a.out, "no entries yet")
		return nil
	}
	for _, entry := range page.Entries {
		fmt.Fprintf(a.out, "#%-5d %s %s  %3d min  %-16s %s\n",
			entry.ID, entry.Date, entry.Time, entry.Minutes, entry.ActeType, entry.CourtierName)
	}
	fmt.Fprintf(a.out, "%d entries total\n", page.Total)
	return nil
}

// Queue lists the pending offline drafts in submit order.
func (a *App) Queue(ctx context.Context) error {
	drafts, err := a.store.Pending(ctx)
	if err != nil {
		fmt.Fprintf(a.out, "failed to read queue: %v\n", err)
		return err
	}
	if len(drafts) == 0 {
		fmt.Fprintln(a.out, "queue empty")
		return nil
	}
	for i, draft := range drafts {
		fmt.Fprintf(a.out, "%3d. %s  %s %s  %3d min  courtier %d  %s\n",
			i+1, shortID(draft.TempID), draft.Date, draft.Time, draft.Minutes, draft.CourtierID, draft.ActeType)
	}
	fmt.Fprintf(a.out, "%d of %d slots used\n", len(drafts), a.cfg.QueueLimit)
	return nil
}

// Flush manually replays the queue.
func (a *App) Flush(ctx context.Context) error {
	if !a.isLoggedIn() {
		fmt.Fprintln(a.out, "login first")
		return nil
	}

	report, err := a.syncer.Flush(ctx)
	if err != nil {
		if errors.Is(err, clientsync.ErrFlushInFlight) {
			fmt.Fprintln(a.out, "a sync is already running")
			return nil
		}
		fmt.Fprintf(a.out, "sync failed: %v\n", err)
		return err
	}
	a.printReport(report)
	return nil
}

// Stats shows today's counters.
func (a *App) Stats(ctx context.Context) error {
	if !a.isLoggedIn() {
		fmt.Fprintln(a.out, "login first")
		return nil
	}

	stats, err := a.api.Stats(ctx)
	if err != nil {
		fmt.Fprintf(a.out, "failed to fetch stats: %v\n", err)
		return err
	}
	fmt.Fprintf(a.out, "Today: %d min across %d acte(s)\n", stats.TodayMinutes, stats.TodayCalls)
	if stats.LastEntry != nil {
		fmt.Fprintf(a.out, "Last: #%d at %s (%d min, %s)\n",
			stats.LastEntry.ID, stats.LastEntry.Time, stats.LastEntry.Minutes, stats.LastEntry.CourtierName)
	}
	return nil
}

// Courtiers lists the active referential.
func (a *App) Courtiers(ctx context.Context) error {
	courtiers, err := a.api.Courtiers(ctx)
	if err != nil {
		fmt.Fprintf(a.out, "failed to fetch courtiers: %v\n", err)
		return err
	}
	for _, courtier := range courtiers {
		fmt.Fprintf(a.out, "%3d  %s\n", courtier.ID, courtier.Name)
	}
	return nil
}

// Status summarizes connectivity, session and backlog.
func (a *App) Status(ctx context.Context) error {
	backlog, _ := a.store.Len(ctx)

	fmt.Fprintf(a.out, "server  %s\n", a.cfg.ServerURL)
	fmt.Fprintf(a.out, "mode    %s (checked every %s)\n", a.currentMode(), a.cfg.OnlineCheckInterval)
	if user := a.currentUser(); user != nil {
		fmt.Fprintf(a.out, "user    %s (%s)\n", user.FullName, user.Role)
	} else {
		fmt.Fprintln(a.out, "user    not logged in")
	}
	fmt.Fprintf(a.out, "queue   %d of %d\n", backlog, a.cfg.QueueLimit)
	return nil
}

// Theme shows or stores the UI theme preference.
func (a *App) Theme(ctx context.Context, args []string) error {
	if len(args) == 0 {
		current, err := a.store.GetPref(ctx, prefTheme)
		if err != nil {
			return err
		}
		if current == "" {
			current = "light"
		}
		fmt.Fprintf(a.out, "theme: %s\n", current)
		return nil
	}

	value := strings.ToLower(args[0])
	if value != "light" && value != "dark" {
		fmt.Fprintln(a.out, "usage: theme [light|dark]")
		return nil
	}
	if err := a.store.SetPref(ctx, prefTheme, value); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "theme set to %s\n", value)
	return nil
}
