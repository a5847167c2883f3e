// Package config loads the TOML configuration of the hashledger command.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Log    Log    `toml:"log"`
	Ledger Ledger `toml:"ledger"`
	Demo   Demo   `toml:"demo"`
}

type Log struct {
	Level string `toml:"level"`
}

type Ledger struct {
	// StrictIndex rejects appended blocks whose index does not follow the latest block.
	StrictIndex     bool   `toml:"strict_index"`
	TimestampLayout string `toml:"timestamp_layout"`
}

// Demo lists the blocks appended by the demonstration run, in order.
type Demo struct {
	Blocks []DemoBlock `toml:"blocks"`
}

type DemoBlock struct {
	// Timestamp defaults to the time of the append.
	Timestamp string `toml:"timestamp"`
	// Payload is a JSON document.
	Payload string `toml:"payload"`
}

// Default returns the configuration used when no file is given: two blocks moving
// amounts of 100 and 50.
func Default() Config {
	return Config{
		Log: Log{Level: "info"},
		Ledger: Ledger{
			StrictIndex:     false,
			TimestampLayout: time.RFC3339Nano,
		},
		Demo: Demo{Blocks: []DemoBlock{
			{Payload: `{"amount":100}`},
			{Payload: `{"amount":50}`},
		}},
	}
}

// Load reads a TOML file on top of the defaults. Unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()
	// Decoded arrays are merged element-wise into existing ones, so start empty.
	cfg.Demo.Blocks = nil
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	if !md.IsDefined("demo", "blocks") {
		cfg.Demo.Blocks = Default().Demo.Blocks
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%w: unknown keys in %s: %s", ErrInvalidConfig, path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the log level, the timestamp layout and every demo payload.
func (c Config) Validate() error {
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	if c.Ledger.TimestampLayout == "" {
		return fmt.Errorf("%w: empty ledger.timestamp_layout", ErrInvalidConfig)
	}
	for i, b := range c.Demo.Blocks {
		if !json.Valid([]byte(b.Payload)) {
			return fmt.Errorf("%w: demo block %d: payload is not valid JSON: %q", ErrInvalidConfig, i, b.Payload)
		}
	}
	return nil
}

// SlogLevel parses Log.Level.
func (c Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("%w: log.level: %w", ErrInvalidConfig, err)
	}
	return level, nil
}
