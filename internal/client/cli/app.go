// Package cli implements the interactive terminal client: a prompt loop over
// the API client, the offline queue and the live event channel.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"actilog/internal/client/api"
	"actilog/internal/client/config"
	"actilog/internal/client/events"
	"actilog/internal/client/store"
	clientsync "actilog/internal/client/sync"
)

// Mode is the client's view of server reachability.
type Mode string

const (
	ModeOnline  Mode = "online"
	ModeOffline Mode = "offline"
)

// Pref keys for local UI state.
const (
	prefTheme        = "theme"
	prefLastCourtier = "last_courtier"
)

// App wires the terminal client together. The REPL runs on the main
// goroutine; the watcher and the event listener report through out.
type App struct {
	cfg      *config.Config
	store    *store.Store
	api      *api.Client
	syncer   *clientsync.Syncer
	listener *events.Listener

	mu   sync.Mutex
	mode Mode
	user *api.User

	scanner *bufio.Scanner
	out     io.Writer
}

// NewApp opens the local store and probes the server once so the first
// prompt already shows the right mode.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	st, err := store.Open(ctx, cfg.DatabasePath, cfg.QueueLimit)
	if err != nil {
		return nil, err
	}

	client := api.New(cfg.ServerURL)
	app := &App{
		cfg:     cfg,
		store:   st,
		api:     client,
		syncer:  clientsync.New(st, client),
		mode:    ModeOffline,
		scanner: bufio.NewScanner(os.Stdin),
		out:     os.Stdout,
	}
	if client.Ping(ctx) == nil {
		app.mode = ModeOnline
	}
	return app, nil
}

// Close releases the listener and the local store.
func (a *App) Close() error {
	if a.listener != nil {
		_ = a.listener.Close()
	}
	return a.store.Close()
}

func (a *App) currentMode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

// setMode flips the mode and reports whether it changed.
func (a *App) setMode(mode Mode) bool {
	a.mu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.mu.Unlock()
	if changed {
		fmt.Fprintf(a.out, "\nswitched to %s mode\n", mode)
	}
	return changed
}

func (a *App) currentUser() *api.User {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.user
}

func (a *App) setUser(user *api.User) {
	a.mu.Lock()
	a.user = user
	a.mu.Unlock()
}

func (a *App) isLoggedIn() bool {
	return a.currentUser() != nil
}

// StartWatcher probes connectivity on a fixed cadence. Regaining the server
// triggers a queue flush.
func (a *App) StartWatcher(ctx context.Context) {
	ticker := time.NewTicker(a.cfg.OnlineCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if a.api.Ping(ctx) == nil {
				if a.setMode(ModeOnline) {
					a.autoFlush(ctx)
				}
			} else {
				a.setMode(ModeOffline)
			}
		case <-ctx.Done():
			return
		}
	}
}

// autoFlush drains the backlog once connectivity and a session are both
// available. Anonymous drafts stay queued until login.
func (a *App) autoFlush(ctx context.Context) {
	if !a.isLoggedIn() {
		return
	}
	backlog, err := a.store.Len(ctx)
	if err != nil || backlog == 0 {
		return
	}

	report, err := a.syncer.Flush(ctx)
	if err != nil {
		if errors.Is(err, clientsync.ErrFlushInFlight) {
			return
		}
		fmt.Fprintf(a.out, "\nsync failed, %d draft(s) kept: %v\n", backlog, err)
		return
	}
	a.printReport(report)
}

func (a *App) printReport(report *clientsync.Report) {
	if report.Synced == 0 && report.Failed == 0 {
		fmt.Fprintln(a.out, "queue empty, nothing to sync")
		return
	}
	fmt.Fprintf(a.out, "synced %d draft(s), %d failed\n", report.Synced, report.Failed)
	for _, failure := range report.Failures {
		fmt.Fprintf(a.out, "  %s: %s\n", shortID(failure.TempID), failure.Reason)
	}
}

// startListener (re)subscribes to the live channel with the current token.
func (a *App) startListener(ctx context.Context) {
	if a.listener != nil {
		_ = a.listener.Close()
	}

	listener := events.New(a.cfg.ServerURL, a.api.Token())
	listener.OnEntryAdded(func(ev events.EntryAdded) {
		user := a.currentUser()
		if user != nil && ev.UserID == user.ID {
			return
		}
		fmt.Fprintf(a.out, "\n[live] %s logged %d min for %s\n", ev.Entry.UserName, ev.Entry.Minutes, ev.Entry.CourtierName)
	})
	listener.OnPresence(func(p events.Presence, joined bool) {
		user := a.currentUser()
		if user != nil && p.UserID == user.ID {
			return
		}
		state := "joined"
		if !joined {
			state = "left"
		}
		fmt.Fprintf(a.out, "\n[live] %s %s\n", p.Username, state)
	})
	listener.OnSystemMessage(func(msg events.SystemMessage) {
		fmt.Fprintf(a.out, "\n[notice:%s] %s\n", msg.Level, msg.Message)
	})
	listener.OnDisconnected(func(err error) {
		fmt.Fprintf(a.out, "\nlive updates disconnected: %v\n", err)
	})

	if err := listener.Start(ctx); err != nil {
		fmt.Fprintf(a.out, "live updates unavailable: %v\n", err)
		return
	}
	a.listener = listener
}

// shortID abbreviates a temp id for display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
