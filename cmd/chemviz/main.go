package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/satyamaryan14/ChemicalApp/internal/api"
	"github.com/satyamaryan14/ChemicalApp/internal/config"
	"github.com/satyamaryan14/ChemicalApp/internal/history"
	"github.com/satyamaryan14/ChemicalApp/internal/logging"
	"github.com/satyamaryan14/ChemicalApp/internal/session"
	"github.com/satyamaryan14/ChemicalApp/internal/tui"
	"github.com/satyamaryan14/ChemicalApp/internal/upload"
)

func main() {
	debug := flag.Bool("debug", false, "show the debug panel")
	configPath := flag.String("config", config.Path(), "path to the config file")
	apiURL := flag.String("api", "", "backend base URL (overrides config)")
	flag.Parse()

	cfg, err := config.LoadFrom(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *apiURL != "" {
		cfg.APIBaseURL = *apiURL
	}

	// The TUI owns the terminal, so logs go to a file
	logger, closer, err := logging.Open(cfg.LogPath(), cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening log file: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	gw := api.NewClient(cfg.APIBaseURL,
		api.WithTimeout(cfg.RequestTimeout),
		api.WithAuthScheme(cfg.AuthScheme),
		api.WithLogger(logger),
	)

	state := session.NewState()
	sessions := session.NewStore(state, session.NewFileTokenStore(cfg.TokenPath()), logger)
	hist := history.NewSynchronizer(gw, state, sessions, logger)
	uploads := upload.NewOrchestrator(gw, state, hist, sessions, logger)

	if sessions.Restore().Present() {
		logger.Info("resuming saved session")
	}

	svc := tui.Services{
		Gateway:   gw,
		Sessions:  sessions,
		History:   hist,
		Uploads:   uploads,
		State:     state,
		ReportDir: cfg.ReportDir,
		// upload plus the follow-up history refresh
		Timeout: 2 * cfg.RequestTimeout,
		Logger:  logger,
	}

	logger.Info("chemviz starting", "api", cfg.APIBaseURL, "auth_scheme", cfg.AuthScheme)

	p := tea.NewProgram(
		tui.NewRootModel(svc, *debug),
		tea.WithAltScreen(),
	)

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}
