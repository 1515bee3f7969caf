package glitchreveal

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the deployment configuration, read from REVEAL_* variables.
type Config struct {
	// UnlockDate is RFC 3339. Unset means local midnight of defaultUnlockDay.
	UnlockDate time.Time `env:"REVEAL_UNLOCK_DATE"`
	StorageKey string    `env:"REVEAL_STORAGE_KEY" envDefault:"nfc_valentine_state"`

	// Store selects the session backend: memory, sqlite, postgres or memcached.
	Store            string        `env:"REVEAL_STORE"             envDefault:"memory"`
	StoreDSN         string        `env:"REVEAL_STORE_DSN"         envDefault:"reveal.db"`
	MemcachedServers []string      `env:"REVEAL_MEMCACHED_SERVERS" envSeparator:","`
	MemcachedTTL     time.Duration `env:"REVEAL_MEMCACHED_TTL"`
	MaxRecordBytes   int           `env:"REVEAL_MAX_RECORD_BYTES"  envDefault:"4096"`

	RemoteEndpoint string        `env:"REVEAL_REMOTE_ENDPOINT"`
	RemoteTimeout  time.Duration `env:"REVEAL_REMOTE_TIMEOUT" envDefault:"4s"`

	WebhookURL   string `env:"REVEAL_WEBHOOK_URL"`
	WebhookTopic string `env:"REVEAL_WEBHOOK_TOPIC" envDefault:"valentine_tracker"`

	CopyFile string `env:"REVEAL_COPY_FILE"`

	// Zero keeps the default typing speed; a negative variance disables jitter.
	TypingBase     time.Duration `env:"REVEAL_TYPING_BASE"     envDefault:"50ms"`
	TypingVariance time.Duration `env:"REVEAL_TYPING_VARIANCE" envDefault:"20ms"`
}

// defaultUnlockDay is the calendar day the experience opens when
// REVEAL_UNLOCK_DATE is unset.
const defaultUnlockDay = "2026-02-14"

// LoadConfigFromEnv parses the environment into a Config.
func LoadConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.UnlockDate.IsZero() {
		day, err := time.ParseInLocation(time.DateOnly, defaultUnlockDay, time.Local)
		if err != nil {
			return Config{}, fmt.Errorf("parse default unlock day: %w", err)
		}
		cfg.UnlockDate = day
	}
	return cfg, nil
}

// OpenStore opens the configured session backend. The memory backend never fails.
func (c Config) OpenStore() (Store, error) {
	switch c.Store {
	case "", "memory":
		s := NewMemoryStore()
		s.maxRecordBytes = c.MaxRecordBytes
		return s, nil
	case "sqlite":
		s, err := NewSQLiteStoreWithConfig(SQLiteConfig{
			DSN:            c.StoreDSN,
			MaxOpenConns:   4,
			MaxIdleConns:   4,
			MaxRecordBytes: c.MaxRecordBytes,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	case "postgres":
		s, err := NewPostgreSQLStoreWithConfig(PostgreSQLConfig{
			DSN:             c.StoreDSN,
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
			MaxRecordBytes:  c.MaxRecordBytes,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	case "memcached":
		if len(c.MemcachedServers) == 0 {
			return nil, errors.New("memcached store needs REVEAL_MEMCACHED_SERVERS")
		}
		return NewMemcachedStoreWithConfig(MemcachedConfig{
			Servers:        c.MemcachedServers,
			TTL:            c.MemcachedTTL,
			MaxRecordBytes: c.MaxRecordBytes,
			Timeout:        500 * time.Millisecond,
		}), nil
	default:
		return nil, fmt.Errorf("unknown store %q", c.Store)
	}
}

// LoadCopy returns the copy dictionary, overlaid with CopyFile when set.
func (c Config) LoadCopy() (*Copy, error) {
	if c.CopyFile == "" {
		return DefaultCopy(), nil
	}
	return LoadCopyFile(c.CopyFile)
}

// Remote returns the remote content client, or nil when no endpoint is set.
func (c Config) Remote(logger *slog.Logger) RemoteClient {
	h := NewHTTPRemote(HTTPRemoteConfig{
		Endpoint: c.RemoteEndpoint,
		Timeout:  c.RemoteTimeout,
		Logger:   logger,
	})
	if h == nil {
		return nil
	}
	return h
}

// Notifier returns the unlock ping sender.
func (c Config) Notifier(logger *slog.Logger) Notifier {
	return NewHTTPNotifier(HTTPNotifierConfig{URL: c.WebhookURL, Logger: logger})
}

// Typing returns the typewriter timing.
func (c Config) Typing() Typing {
	t := defaultTyping
	if c.TypingBase > 0 {
		t.Base = c.TypingBase
	}
	switch {
	case c.TypingVariance > 0:
		t.Variance = c.TypingVariance
	case c.TypingVariance < 0:
		t.Variance = 0
	}
	return t
}
