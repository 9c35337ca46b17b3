package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"freightlens/internal/config"
	"freightlens/internal/logging"
	"freightlens/internal/store"
)

func newSeedCmd(configPath *string) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Fill the store with deterministic demo bookings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			log, err := logging.New(cfg.Logging)
			if err != nil {
				return err
			}
			defer log.Sync()

			st, err := store.Open(cfg.Store.Path, log.Named("store"))
			if err != nil {
				return err
			}
			defer st.Close()

			// Seed also rebuilds the precomputed summary tables.
			if err := st.Seed(cmd.Context(), count); err != nil {
				return err
			}

			log.Info("store seeded",
				zap.String("path", cfg.Store.Path),
				zap.Int("bookings", count))
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d bookings into %s\n", count, cfg.Store.Path)
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "count", 500, "number of bookings to generate")
	return cmd
}
