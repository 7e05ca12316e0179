package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/TiredEspressoBean/AmbacQualityManagementService-sub005/cmd/tracker/ui"
	"github.com/TiredEspressoBean/AmbacQualityManagementService-sub005/internal/api"
	"github.com/TiredEspressoBean/AmbacQualityManagementService-sub005/internal/config"
	"github.com/TiredEspressoBean/AmbacQualityManagementService-sub005/internal/logging"
)

var (
	// Global flags
	cfgPath   string
	serverURL string
	token     string
	pageSize  int
	logFile   string
	verbose   bool

	// Resolved per invocation in PersistentPreRunE
	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd launches the interactive browser when run without a subcommand.
// It is assigned in init rather than in the declaration because the
// PersistentPreRunE closure refers back to rootCmd.
var rootCmd *cobra.Command

func init() {
	rootCmd = &cobra.Command{
		Use:   "tracker",
		Short: "Terminal client for the Ambac production tracker",
		Long: `tracker browses the production tracker's collections — work orders,
parts, quality reports, CAPAs, calibrations, training records and
approvals — from the terminal.

Run without arguments to open the interactive browser. The one-shot
subcommands cover scripted listing, export and import; "tracker demo"
starts a self-contained local backend seeded with fixture data.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			// Flags beat config and environment.
			if cmd.Flags().Changed("server") {
				loaded.ServerURL = serverURL
			}
			if cmd.Flags().Changed("token") {
				loaded.Token = token
			}
			if cmd.Flags().Changed("page-size") {
				loaded.PageSize = pageSize
			}
			if cmd.Flags().Changed("log-file") {
				loaded.LogFile = logFile
			}
			cfg = loaded

			// The interactive browser owns the terminal, so its logs go to a
			// file. One-shot commands log to stderr.
			file := ""
			if cmd.Name() == rootCmd.Name() {
				file = cfg.LogFile
				if file == "" {
					file = logging.DefaultLogPath()
				}
			}
			logger, err = logging.New(logging.Options{Verbose: verbose, File: file})
			if err != nil {
				return err
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
		RunE: runBrowse,
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Config file (default: $XDG_CONFIG_HOME/tracker/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "Tracker backend URL (or set TRACKER_SERVER_URL)")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "API token (or set TRACKER_TOKEN)")
	rootCmd.PersistentFlags().IntVar(&pageSize, "page-size", 0, "List page size (or set TRACKER_PAGE_SIZE)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Log file for the interactive browser")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(resourcesCmd)
	rootCmd.AddCommand(demoCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// newAPIClient builds the REST client from the resolved configuration.
func newAPIClient() (*api.Client, error) {
	return api.New(api.Config{
		BaseURL:    cfg.ServerURL,
		Token:      cfg.Token,
		Timeout:    cfg.RequestTimeout,
		MaxRetries: uint64(cfg.MaxRetries),
		Logger:     logger,
	})
}

func runBrowse(cmd *cobra.Command, args []string) error {
	client, err := newAPIClient()
	if err != nil {
		return err
	}
	logger.Info("starting interactive browser",
		zap.String("server", cfg.ServerURL),
		zap.Int("page_size", cfg.PageSize))

	styles := ui.NewStyles(ui.ThemeByName(cfg.Theme))
	app := ui.NewApp(client, styles, logger, ui.AppOptions{PageSize: cfg.PageSize})
	if _, err := tea.NewProgram(app, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("run interface: %w", err)
	}
	return nil
}
