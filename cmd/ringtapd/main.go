// Command ringtapd is a demo producer/consumer over the shared-memory ring
// transport in pkg/ring and pkg/shm. It is not part of the transport itself;
// it exists to drive the ring with real traffic-shaped data the way the
// teacher's coordinator and bird-adapter commands drive their own daemons,
// one cobra subcommand per operation.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "ringtapd",
	Short: "Drive and inspect a shared-memory SPSC ring buffer",
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to the YAML configuration file (optional, defaults apply)")
	rootCmd.AddCommand(produceCmd, consumeCmd, statsCmd, resetCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Printf("ERROR: %v\n", err)
		os.Exit(1)
	}
}

func newLogger() (*zap.SugaredLogger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.Development = false
	cfg.Level.SetLevel(zap.InfoLevel)

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger.Sugar(), nil
}

type interrupted struct {
	os.Signal
}

func (m interrupted) Error() string {
	return m.String()
}

// waitInterrupted blocks until SIGINT/SIGTERM or ctx is canceled, mirroring
// the teacher's coordinator command's signal handling.
func waitInterrupted(ctx context.Context) error {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(ch)

	select {
	case v := <-ch:
		return interrupted{Signal: v}
	case <-ctx.Done():
		return ctx.Err()
	}
}

func isInterrupted(err error) bool {
	var i interrupted
	return errors.As(err, &i)
}
