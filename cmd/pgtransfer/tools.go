package main

import (
	"context"
	"fmt"

	"github.com/fgeck/pgtransfer/internal/models"
	"github.com/fgeck/pgtransfer/internal/services/runner"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Show which PostgreSQL client tools are installed",
	RunE:  runTools,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List exports on disk, newest first",
	RunE:  runList,
}

func runTools(cmd *cobra.Command, args []string) error {
	runnerSvc, err := newRunner(cmd.Context())
	if err != nil {
		return err
	}

	inv := runnerSvc.Tools(cmd.Context())
	if jsonOutput {
		return printJSON(inv)
	}

	for _, kind := range models.AllToolKinds {
		d := inv.Get(kind)
		if !d.Available {
			fmt.Printf("%-11s not found\n", d.Name)
			continue
		}
		fmt.Printf("%-11s %s (%s)\n", d.Name, d.Path, d.Version)
	}
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	runnerSvc, err := newRunner(cmd.Context())
	if err != nil {
		return err
	}

	entries := runnerSvc.List(cmd.Context())
	if jsonOutput {
		return printJSON(entries)
	}

	for _, e := range entries {
		fmt.Printf("%s  %10d  %s\n", e.CreatedAt.Format("2006-01-02 15:04:05"), e.SizeBytes, e.FileName)
	}
	return nil
}

func newRunner(ctx context.Context) (*runner.Impl, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	runnerSvc, err := runner.New(ctx, log.Logger, cfg)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize services")
		return nil, err
	}
	return runnerSvc, nil
}
