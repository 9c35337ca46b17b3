package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"freightlens/internal/config"
	"freightlens/internal/llm"
	"freightlens/internal/logging"
	"freightlens/internal/narrative"
	"freightlens/internal/pipeline"
	"freightlens/internal/planner"
	"freightlens/internal/store"
	"freightlens/internal/translator"
	"freightlens/internal/validator"
)

var version = "dev"

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "freightlens",
		Short:         "Ask questions about shipment bookings in plain language",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "freightlens.yaml", "path to the config file")

	root.AddCommand(
		newAskCmd(&configPath),
		newChatCmd(&configPath),
		newSeedCmd(&configPath),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "freightlens "+version)
		},
	}
}

// app bundles the wired components a command needs.
type app struct {
	cfg   config.Config
	log   *zap.Logger
	store *store.SQLiteStore
	pipe  *pipeline.Pipeline
}

func (a *app) close() {
	if a.store != nil {
		a.store.Close()
	}
	_ = a.log.Sync()
}

// buildApp loads config and assembles the full pipeline.
func buildApp(ctx context.Context, configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	log, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(cfg.Store.Path, log.Named("store"))
	if err != nil {
		log.Sync()
		return nil, err
	}

	client, err := llm.New(ctx, cfg.LLM)
	if err != nil {
		st.Close()
		log.Sync()
		return nil, err
	}
	client = llm.WithRetry(client, 0, log.Named("llm"))

	pipe := pipeline.New(
		translator.New(client, log.Named("translator")),
		planner.New(st, cfg.Limits.MaxRows, log.Named("planner")),
		narrative.New(client, log.Named("narrative")),
		validator.New(client, log.Named("validator")),
		log.Named("pipeline"),
	)
	return &app{cfg: cfg, log: log, store: st, pipe: pipe}, nil
}
