package cli

import (
	"context"
	"fmt"
	"strings"
)

// Run starts the prompt loop. It returns when the user exits or stdin
// closes. Command handlers print their own errors; the loop never aborts
// on one.
func (a *App) Run(ctx context.Context) {
	fmt.Fprintln(a.out, "actilog terminal client (type 'help' for commands)")

	for {
		fmt.Fprintf(a.out, "actilog %s> ", a.promptStatus())
		if !a.scanner.Scan() {
			return
		}
		parts := strings.Fields(a.scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			a.printHelp()
		case "login":
			_ = a.Login(ctx)
		case "add":
			_ = a.Add(ctx)
		case "l", "list":
			_ = a.List(ctx)
		case "q", "queue":
			_ = a.Queue(ctx)
		case "flush", "sync":
			_ = a.Flush(ctx)
		case "stats":
			_ = a.Stats(ctx)
		case "courtiers":
			_ = a.Courtiers(ctx)
		case "status":
			_ = a.Status(ctx)
		case "theme":
			_ = a.Theme(ctx, args)
		case "exit", "quit":
			fmt.Fprintln(a.out, "Bye!")
			return
		default:
			fmt.Fprintf(a.out, "Unknown command: %s\n", cmd)
		}
	}
}

func (a *App) promptStatus() string {
	user := a.currentUser()
	if user == nil {
		return string(a.currentMode())
	}
	return fmt.Sprintf("%s %s", user.Username, a.currentMode())
}

func (a *App) printHelp() {
	if a.isLoggedIn() {
		fmt.Fprintln(a.out, "Available commands: add, list, queue, flush, stats, courtiers, status, theme, exit")
	} else {
		fmt.Fprintln(a.out, "Available commands: login, queue, status, theme, exit")
	}
}
