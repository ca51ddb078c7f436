package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ZeruiLi/FocusOrb/internal/engine"
	"github.com/ZeruiLi/FocusOrb/internal/store"
	"github.com/ZeruiLi/FocusOrb/internal/tui"
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

	cfg := engine.LoadConfig(s)
	machine := engine.New(s, cfg)
	defer machine.Close()

	if err := machine.Restore(); err != nil {
		// An unreadable log starts a fresh idle machine; keep going.
		fmt.Fprintf(os.Stderr, "warning: could not restore session state: %v\n", err)
	}

	app := tui.NewApp(s, machine, cfg)
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
