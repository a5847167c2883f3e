package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/pterm/pterm"

	"github.com/luca-patrignani/hashledger/config"
	"github.com/luca-patrignani/hashledger/ledger"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run builds the demonstration chain described by the configuration, prints it and
// verifies it. With -tamper it also verifies an altered copy, which must fail. It
// returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("hashledger", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to a TOML configuration file")
	tamper := fs.Int("tamper", -1, "position of a block whose payload is altered in a copy of the chain")
	asJSON := fs.Bool("json", false, "print the chain as JSON instead of a table")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(stderr, "hashledger: %v\n", err)
			return 1
		}
	}
	level, err := cfg.SlogLevel()
	if err != nil {
		fmt.Fprintf(stderr, "hashledger: %v\n", err)
		return 1
	}
	logger := newLogger(stderr, level)

	opts := []ledger.Option{
		ledger.WithLogger(logger),
		ledger.WithStrictIndex(cfg.Ledger.StrictIndex),
		ledger.WithTimestampLayout(cfg.Ledger.TimestampLayout),
	}
	bc, err := buildChain(cfg, time.Now, opts...)
	if err != nil {
		logger.Error("failed to build blockchain", "error", err)
		return 1
	}

	if err := printChain(stdout, bc.Blocks(), *asJSON); err != nil {
		logger.Error("failed to render blockchain", "error", err)
		return 1
	}
	verifyErr := bc.Verify()
	panels := []pterm.Panel{getVerdictPanel("BLOCKCHAIN", verifyErr)}
	ok := verifyErr == nil

	if *tamper >= 0 {
		blocks := bc.Blocks()
		if *tamper >= len(blocks) {
			logger.Error("tamper position out of range", "position", *tamper, "blocks", len(blocks))
			return 1
		}
		altered := tamperedPayload(blocks[*tamper].Payload)
		blocks[*tamper].Payload = altered
		logger.Info("altered block payload", "position", *tamper, "payload", string(altered))
		tamperErr := ledger.FromBlocks(blocks, opts...).Verify()
		panels = append(panels, getVerdictPanel("TAMPERED COPY", tamperErr))
		if tamperErr == nil {
			logger.Error("tampering went undetected", "position", *tamper)
			ok = false
		}
	}

	if !*asJSON {
		out, err := renderPanels(panels...)
		if err != nil {
			logger.Error("failed to render verdict", "error", err)
			return 1
		}
		fmt.Fprintln(stdout, out)
	}
	if !ok {
		return 1
	}
	return 0
}

// buildChain creates a blockchain and appends the configured demo blocks with indices
// 1, 2, ... Blocks without a timestamp are stamped with the current time.
func buildChain(cfg config.Config, clock func() time.Time, opts ...ledger.Option) (*ledger.Blockchain, error) {
	bc, err := ledger.NewBlockchain(append([]ledger.Option{ledger.WithClock(clock)}, opts...)...)
	if err != nil {
		return nil, err
	}
	for i, b := range cfg.Demo.Blocks {
		timestamp := b.Timestamp
		if timestamp == "" {
			timestamp = clock().Format(cfg.Ledger.TimestampLayout)
		}
		if _, err := bc.Append(i+1, timestamp, json.RawMessage(b.Payload)); err != nil {
			return nil, fmt.Errorf("demo block %d: %w", i, err)
		}
	}
	return bc, nil
}

// tamperedPayload wraps the original payload, so the result always differs from it.
func tamperedPayload(orig json.RawMessage) json.RawMessage {
	out := append(json.RawMessage(`{"tampered":`), orig...)
	return append(out, '}')
}

func printChain(w io.Writer, blocks []ledger.Block, asJSON bool) error {
	if asJSON {
		data, err := json.MarshalIndent(blocks, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}
	table, err := renderChain(blocks)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, table)
	return err
}

// newLogger returns a slog logger backed by the pterm logger.
func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	handler := pterm.NewSlogHandler(pterm.DefaultLogger.WithWriter(w).WithLevel(ptermLevel(level)))
	return slog.New(handler)
}

func ptermLevel(level slog.Level) pterm.LogLevel {
	switch {
	case level <= slog.LevelDebug:
		return pterm.LogLevelDebug
	case level <= slog.LevelInfo:
		return pterm.LogLevelInfo
	case level <= slog.LevelWarn:
		return pterm.LogLevelWarn
	default:
		return pterm.LogLevelError
	}
}
