package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"

	app "photozone/src/app"
)

type (
	// PinConfig describes where the admin PIN is kept. An empty Path keeps
	// it in memory only.
	PinConfig struct {
		Path       string
		Key        string
		Default    string
		GCInterval time.Duration
		Logger     *slog.Logger
	}

	MemoryPinStore struct {
		mu  sync.RWMutex
		pin string
	}

	// BadgerPinStore writes the PIN through to badger and serves reads from
	// the value loaded at open.
	BadgerPinStore struct {
		mu         sync.RWMutex
		db         *badger.DB
		key        []byte
		pin        string
		gcInterval time.Duration
	}

	badgerLogger struct {
		logger *slog.Logger
	}
)

const gcDiscardRatio = 0.5

func checkPin(pin string) error {
	if len(pin) != app.PinLength || strings.Trim(pin, "0123456789") != "" {
		return fmt.Errorf("pin must have %d digits", app.PinLength)
	}
	return nil
}

func NewMemoryPinStore(pin string) *MemoryPinStore {
	if pin == "" {
		pin = app.DefaultPin
	}
	return &MemoryPinStore{pin: pin}
}

func (m *MemoryPinStore) Get() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pin, nil
}

func (m *MemoryPinStore) Set(pin string) error {
	if err := checkPin(pin); err != nil {
		return err
	}
	m.mu.Lock()
	m.pin = pin
	m.mu.Unlock()
	return nil
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// OpenBadgerPinStore opens the store and loads the PIN. When the key is
// missing the default PIN is written back so later starts see it.
func OpenBadgerPinStore(cfg PinConfig) (*BadgerPinStore, error) {
	if cfg.Key == "" {
		cfg.Key = "admin_pin"
	}
	if cfg.Default == "" {
		cfg.Default = app.DefaultPin
	}
	if err := checkPin(cfg.Default); err != nil {
		return nil, fmt.Errorf("default %w", err)
	}

	var opts badger.Options
	if cfg.Path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create pin store directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path).WithSyncWrites(true)
	}
	opts = opts.WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open pin store: %w", err)
	}
	store := &BadgerPinStore{db: db, key: []byte(cfg.Key), gcInterval: cfg.GCInterval}
	if cfg.Path == "" {
		store.gcInterval = 0
	}

	pin, err := store.load()
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		if err := store.write(cfg.Default); err != nil {
			db.Close()
			return nil, err
		}
		pin = cfg.Default
		slog.Info("admin pin initialised with default", "key", cfg.Key)
	case err != nil:
		db.Close()
		return nil, err
	}
	store.pin = pin
	return store, nil
}

func (b *BadgerPinStore) load() (string, error) {
	var pin string
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(b.key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			pin = string(val)
			return nil
		})
	})
	if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
		return "", fmt.Errorf("read %s: %w", b.key, err)
	}
	return pin, err
}

func (b *BadgerPinStore) write(pin string) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(b.key, []byte(pin))
	})
	if err != nil {
		return fmt.Errorf("write %s: %w", b.key, err)
	}
	return nil
}

func (b *BadgerPinStore) Get() (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.pin, nil
}

// Set persists pin before it becomes visible to readers.
func (b *BadgerPinStore) Set(pin string) error {
	if err := checkPin(pin); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.write(pin); err != nil {
		return err
	}
	b.pin = pin
	return nil
}

// RunGC reclaims value log space until ctx is done. It returns immediately
// for in-memory stores.
func (b *BadgerPinStore) RunGC(ctx context.Context) error {
	if b.gcInterval <= 0 {
		return nil
	}
	ticker := time.NewTicker(b.gcInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			err := b.db.RunValueLogGC(gcDiscardRatio)
			if err != nil && !errors.Is(err, badger.ErrNoRewrite) {
				slog.Warn("pin store value log gc failed", "error", err)
			}
		}
	}
}

func (b *BadgerPinStore) Close() error {
	return b.db.Close()
}
