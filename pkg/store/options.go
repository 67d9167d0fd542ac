package store

import (
	"log/slog"

	"github.com/mitchellh/mapstructure"
)

// DefaultMaxItems is the capacity ceiling used when none is configured.
const DefaultMaxItems = 10000

// Option configures a Store.
type Option func(*options)

type options struct {
	name     string
	keyField string
	maxItems int
	indexes  []string
	hooks    []mapstructure.DecodeHookFunc
	logger   *slog.Logger
}

func defaultOptions() options {
	return options{
		name:     "store",
		keyField: "id",
		maxItems: DefaultMaxItems,
		logger:   slog.Default().With("module", "store"),
	}
}

// WithName sets the store name reported in logs and errors.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithKeyField sets the json name of the primary key field. Patches never
// write to it.
func WithKeyField(field string) Option {
	return func(o *options) {
		o.keyField = field
	}
}

// WithMaxItems sets the capacity ceiling.
func WithMaxItems(n int) Option {
	return func(o *options) {
		if n < 0 {
			n = 0
		}
		o.maxItems = n
	}
}

// WithIndexes declares secondary indices at construction.
func WithIndexes(fields ...string) Option {
	return func(o *options) {
		o.indexes = append(o.indexes, fields...)
	}
}

// WithDecodeHooks adds mapstructure hooks used when applying patches.
func WithDecodeHooks(hooks ...mapstructure.DecodeHookFunc) Option {
	return func(o *options) {
		o.hooks = append(o.hooks, hooks...)
	}
}

// WithLogger overrides the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}
