package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yanet-platform/shmring/pkg/shm"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print the ring's current configuration and counters",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runStats(cmd.Context())
	},
}

func runStats(ctx context.Context) error {
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

	conf := r.GetConfig()
	stats := r.GetStats()

	fmt.Printf("path:       %s\n", cfg.MemoryPath)
	fmt.Printf("size:       %d bytes\n", conf.Size)
	fmt.Printf("watermarks: hi=%d%% lo=%d%%\n", conf.HiPct, conf.LoPct)
	fmt.Printf("head:       %d\n", stats.Head)
	fmt.Printf("tail:       %d\n", stats.Tail)
	fmt.Printf("used:       %d bytes\n", stats.Head-stats.Tail)
	fmt.Printf("written:    %d bytes (cumulative)\n", stats.Bytes)
	fmt.Printf("records:    %d\n", stats.Records)
	fmt.Printf("drops:      %d\n", stats.Drops)
	return nil
}
