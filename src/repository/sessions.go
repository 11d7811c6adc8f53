package repository

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	app "photozone/src/app"
	cfg "photozone/src/configuration"
)

type (
	// SessionDB keeps one Viewer per browser session.
	SessionDB interface {
		Connect() bool
		Create() (*app.Viewer, error)
		Get(token string) (*app.Viewer, bool)
		Range(fn func(v *app.Viewer))
		Sweep(now time.Time) int
		Len() int
	}

	InMemorySessions struct {
		mu     sync.RWMutex
		table  map[string]*app.Viewer
		newPad func() *app.PinPad
		idle   time.Duration
		now    func() time.Time
	}
)

func NewSessionStore(config *cfg.Properties, newPad func() *app.PinPad) (*InMemorySessions, error) {
	if config == nil {
		return nil, fmt.Errorf("config is not valid")
	}
	if newPad == nil {
		return nil, fmt.Errorf("pin pad factory is required")
	}
	return &InMemorySessions{
		newPad: newPad,
		idle:   config.Server.SessionIdle,
		now:    time.Now,
	}, nil
}

func (s *InMemorySessions) Connect() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.table == nil {
		s.table = make(map[string]*app.Viewer)
	}
	return true
}

func (s *InMemorySessions) Create() (*app.Viewer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.table == nil {
		return nil, fmt.Errorf("can not create session, connection is off")
	}
	v := app.NewViewer(uuid.NewString(), s.newPad(), s.now())
	s.table[v.Token] = v
	slog.Debug("viewer session created", "sessions", len(s.table))
	return v, nil
}

// Get returns the viewer for token and marks it as active.
func (s *InMemorySessions) Get(token string) (*app.Viewer, bool) {
	s.mu.RLock()
	v, ok := s.table[token]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	v.Touch(s.now())
	return v, true
}

// Range calls fn for every live viewer. fn must not call back into the store.
func (s *InMemorySessions) Range(fn func(v *app.Viewer)) {
	s.mu.RLock()
	viewers := make([]*app.Viewer, 0, len(s.table))
	for _, v := range s.table {
		viewers = append(viewers, v)
	}
	s.mu.RUnlock()
	for _, v := range viewers {
		fn(v)
	}
}

// Sweep drops sessions idle for longer than the configured window.
func (s *InMemorySessions) Sweep(now time.Time) int {
	if s.idle <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for token, v := range s.table {
		if v.IdleSince(now) > s.idle {
			delete(s.table, token)
			removed++
		}
	}
	return removed
}

func (s *InMemorySessions) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.table)
}

// RunSweeper sweeps idle sessions every interval until ctx is done.
func RunSweeper(ctx context.Context, sessions SessionDB, interval time.Duration) error {
	if interval <= 0 {
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			if n := sessions.Sweep(now); n > 0 {
				slog.Info("expired idle sessions", "count", n)
			}
		}
	}
}
