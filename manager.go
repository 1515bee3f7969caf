package glitchreveal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Manager owns the visitor's session record. It loads it once per page
// load, lends out copies, and persists every mutation synchronously.
//
// A Manager is driven by a single goroutine and is not safe for concurrent use.
type Manager struct {
	store    Store
	key      string
	logger   *slog.Logger
	record   Record
	inMemory bool
}

type ManagerConfig struct {
	Store  Store  // nil keeps the record in memory only
	Key    string // defaults to DefaultStorageKey
	Logger *slog.Logger
}

func NewManager(cfg ManagerConfig) *Manager {
	if cfg.Key == "" {
		cfg.Key = DefaultStorageKey
	}
	if cfg.Logger == nil {
		cfg.Logger = discardLogger()
	}
	return &Manager{
		store:    cfg.Store,
		key:      cfg.Key,
		logger:   cfg.Logger,
		inMemory: cfg.Store == nil,
	}
}

// Load applies the reset and new-code rules, counts the visit, persists the
// result and returns a copy of it. It never fails: storage problems leave the
// Manager running on an in-memory record.
func (m *Manager) Load(ctx context.Context, v Visit) Record {
	if v.Reset && !m.inMemory {
		m.logger.Debug("reset requested, clearing session record")
		if err := m.store.Delete(ctx, m.key); err != nil {
			m.degrade(err)
		}
	}

	rec := m.read(ctx)

	// A different code is a different visitor.
	if v.Code != "" && rec.LastCode != "" && v.Code != rec.LastCode {
		m.logger.Debug("personalization code changed, starting fresh session",
			"previous", rec.LastCode, "code", v.Code)
		rec = Record{}
	}
	if v.Code != "" {
		rec.LastCode = v.Code
	}

	if rec.VisitCount < 0 {
		rec.VisitCount = 0
	}
	rec.VisitCount++
	rec.ClickCount = 0

	m.record = rec
	m.persist(ctx)
	return m.record
}

func (m *Manager) read(ctx context.Context) Record {
	if m.inMemory {
		return Record{}
	}
	stored, err := m.store.Get(ctx, m.key)
	switch {
	case errors.Is(err, ErrMalformedRecord), errors.Is(err, ErrRecordTooLarge):
		m.logger.Warn("discarding unreadable session record", "error", err)
		return Record{}
	case err != nil:
		m.degrade(err)
		return Record{}
	case stored == nil:
		return Record{}
	}
	return *stored
}

// Record returns a copy of the current record.
func (m *Manager) Record() Record {
	return m.record
}

// Update applies fn to the owned record and persists the result.
func (m *Manager) Update(ctx context.Context, fn func(r *Record)) Record {
	fn(&m.record)
	m.persist(ctx)
	return m.record
}

// Save persists the current record unconditionally.
func (m *Manager) Save(ctx context.Context) {
	m.persist(ctx)
}

// InMemory reports whether the Manager has given up on durable storage.
func (m *Manager) InMemory() bool {
	return m.inMemory
}

func (m *Manager) persist(ctx context.Context) {
	if m.inMemory {
		return
	}
	rec := m.record
	if err := m.store.Save(ctx, m.key, &rec); err != nil {
		m.degrade(err)
	}
}

func (m *Manager) degrade(err error) {
	m.inMemory = true
	m.logger.Warn("session storage failed, continuing in memory",
		"error", fmt.Errorf("%w: %v", ErrStorageUnavailable, err))
}
