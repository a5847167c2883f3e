package ledger

import (
	"io"
	"log/slog"
	"time"
)

type options struct {
	clock           func() time.Time
	timestampLayout string
	strictIndex     bool
	logger          *slog.Logger
	hashFactory     HashFactory
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// Option configures a Blockchain.
type Option func(options) options

func defaultOptions() options {
	return options{
		clock:           time.Now,
		timestampLayout: time.RFC3339Nano,
		logger:          discardLogger,
		hashFactory:     defaultHashFactory,
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		o = opt(o)
	}
	return o.withDefaults()
}

// withDefaults fills in every unset field, keeping the ones that are set.
func (o options) withDefaults() options {
	d := defaultOptions()
	if o.clock == nil {
		o.clock = d.clock
	}
	if o.timestampLayout == "" {
		o.timestampLayout = d.timestampLayout
	}
	if o.logger == nil {
		o.logger = d.logger
	}
	if o.hashFactory == nil {
		o.hashFactory = d.hashFactory
	}
	return o
}

// WithClock sets the time source used for the genesis timestamp. A nil clock is ignored.
func WithClock(clock func() time.Time) Option {
	return func(o options) options {
		if clock != nil {
			o.clock = clock
		}
		return o
	}
}

// WithTimestampLayout sets the layout used to format the genesis timestamp. An empty
// layout is ignored.
func WithTimestampLayout(layout string) Option {
	return func(o options) options {
		if layout != "" {
			o.timestampLayout = layout
		}
		return o
	}
}

// WithStrictIndex makes Append reject blocks whose index does not follow the latest
// block and makes Verify check index continuity.
func WithStrictIndex(strict bool) Option {
	return func(o options) options {
		o.strictIndex = strict
		return o
	}
}

// WithLogger sets the logger for appends (debug) and failed verifications (warn).
// Logs are discarded by default; a nil logger is ignored.
func WithLogger(logger *slog.Logger) Option {
	return func(o options) options {
		if logger != nil {
			o.logger = logger
		}
		return o
	}
}

// WithHashFactory replaces the SHA-256 hash used for digests. A nil factory is ignored.
func WithHashFactory(hf HashFactory) Option {
	return func(o options) options {
		if hf != nil {
			o.hashFactory = hf
		}
		return o
	}
}
