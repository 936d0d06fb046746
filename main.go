package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/timerhub/internal/store"
	"github.com/sadopc/timerhub/internal/timer"
	"github.com/sadopc/timerhub/internal/tui"
)

func main() {
	dbPath, err := store.DefaultDBPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	s, err := store.New(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening database: %v\n", err)
		os.Exit(1)
	}
	defer s.Close()

	relay := tui.NewRelay()
	hub := timer.New(s, relay)
	defer hub.Close()

	app := tui.NewApp(hub)
	p := tea.NewProgram(app, tea.WithAltScreen())
	relay.Attach(p)

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
