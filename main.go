package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"tempo/internal/config"
	"tempo/internal/engine"
	"tempo/internal/store"
	"tempo/internal/tui"
)

func main() {
	cfg, err := config.Load(os.Getenv("TEMPO_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading config: %v\n", err)
		os.Exit(1)
	}

	s, err := store.New(cfg.DBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening database: %v\n", err)
		os.Exit(1)
	}
	defer s.Close()

	eng := engine.New(s, nil)
	if err := eng.Recover(); err != nil {
		fmt.Fprintf(os.Stderr, "error recovering tracking state: %v\n", err)
		os.Exit(1)
	}

	app := tui.NewApp(eng, s, cfg.ExportDir, cfg.WeekStartDay())
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
