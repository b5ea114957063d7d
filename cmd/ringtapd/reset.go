package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yanet-platform/shmring/pkg/shm"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset an idle ring's head, tail and counters",
	Long:  "Reset zeros the ring's head, tail, drop-coalescer state and counters. Only safe when no producer or consumer is active.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runReset(cmd.Context())
	},
}

func runReset(ctx context.Context) error {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return err
	}

	region, r, err := shm.OpenWithRetry(ctx, cfg.MemoryPath)
	if err != nil {
		return fmt.Errorf("failed to attach to %s: %w", cfg.MemoryPath, err)
	}
	defer region.Close()
	defer r.Close()

	r.Reset()
	fmt.Printf("ring at %s reset\n", cfg.MemoryPath)
	return nil
}
