package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"intelstack/internal/adapters/browser"
	"intelstack/internal/adapters/tui"
	"intelstack/internal/adapters/tui/views"
	"intelstack/internal/bootstrap"
	"intelstack/internal/config"
)

func main() {
	configFlag := flag.String("config", config.DefaultPath(), "path to the config file")
	verbose := flag.Bool("verbose", false, "log debug output")
	flag.Parse()

	// The alt screen owns the terminal, so logs go next to the config
	logPath := filepath.Join(filepath.Dir(*configFlag), "intelstack.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		fail(err)
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fail(err)
	}
	defer logFile.Close()

	logger := bootstrap.NewLogger(logFile, *verbose)
	e, err := bootstrap.New(bootstrap.Options{ConfigPath: *configFlag, Logger: logger})
	if err != nil {
		fail(err)
	}
	defer e.Close()

	app := tui.NewApp(views.Services{
		Catalog:   e.Catalog,
		Storage:   e.Storage,
		Folder:    e.Folder,
		Settings:  e.Settings,
		Installer: e.Installer,
		Community: e.Community,
		Updater:   e.Updater,
		Metrics:   e.Metrics,
		Browser:   browser.NewOpener(),
		Logger:    logger,
	}, e.Editor)

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		e.Close()
		fail(err)
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
