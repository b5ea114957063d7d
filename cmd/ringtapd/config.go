package main

import (
	"fmt"
	"os"

	"github.com/c2h5oh/datasize"
	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration for ringtapd, loaded from a YAML file
// the same way the rest of this codebase's daemons do (see coordinator/cfg.go
// and modules/dscp/controlplane/cfg.go in the teacher repo).
type Config struct {
	// MemoryPath is the path to the shared-memory file backing the ring.
	MemoryPath string `yaml:"memory_path"`
	// RingSize is the data region size in bytes. Must be a power of two.
	RingSize datasize.ByteSize `yaml:"ring_size"`
	// HiWatermarkPct and LoWatermarkPct configure the hysteresis of the
	// consumer wake-up signal.
	HiWatermarkPct uint32 `yaml:"hi_watermark_pct"`
	LoWatermarkPct uint32 `yaml:"lo_watermark_pct"`
}

// DefaultConfig matches spec.md's suggested defaults (50%/30% watermarks, a
// 4 MiB ring) and the teacher's convention of shipping a DefaultConfig next
// to every LoadConfig.
func DefaultConfig() *Config {
	return &Config{
		MemoryPath:     "/dev/shm/ringtapd.ring",
		RingSize:       4 * datasize.MB,
		HiWatermarkPct: 50,
		LoWatermarkPct: 30,
	}
}

// LoadConfig loads and merges a YAML file over DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML configuration: %w", err)
	}
	return cfg, nil
}
