package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/TiredEspressoBean/AmbacQualityManagementService-sub005/internal/demo"
)

var (
	demoAddr     string
	demoDB       string
	demoFixtures string
)

// demoCmd runs the local backend so the client works without a real server.
var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a local demo backend",
	Long: `Starts a self-contained tracker backend seeded with fixture data.
It serves every registry collection plus the process-flow demo, so

  tracker demo &
  tracker

gives a fully working browser with no real server. With --fixtures the
file is watched and reloaded on change; records live in memory unless
--db points at a SQLite file.`,
	RunE: runDemo,
}

func init() {
	demoCmd.Flags().StringVar(&demoAddr, "addr", ":8547", "Listen address")
	demoCmd.Flags().StringVar(&demoDB, "db", "", "SQLite file for the record store (default: in-memory)")
	demoCmd.Flags().StringVar(&demoFixtures, "fixtures", "", "Fixture YAML overriding the embedded corpus")
}

func runDemo(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv, err := demo.NewServer(demo.Options{
		Addr:         demoAddr,
		DBPath:       demoDB,
		FixturesPath: demoFixtures,
		Logger:       logger,
	})
	if err != nil {
		return fmt.Errorf("start demo backend: %w", err)
	}
	defer srv.Close()

	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("demo backend: %w", err)
	}
	return nil
}
