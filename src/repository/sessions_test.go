package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	app "photozone/src/app"
	cfg "photozone/src/configuration"
)

func newTestSessions(t *testing.T, idle time.Duration) *InMemorySessions {
	t.Helper()
	config := &cfg.Properties{}
	config.Server.SessionIdle = idle
	store, err := NewSessionStore(config, func() *app.PinPad {
		return app.NewPinPad(NewMemoryPinStore(""))
	})
	require.NoError(t, err)
	return store
}

func TestInMemorySessions(t *testing.T) {
	store := newTestSessions(t, time.Hour)

	t.Run("Create before Connect", func(t *testing.T) {
		_, err := store.Create()
		assert.Error(t, err)
	})

	t.Run("Connect", func(t *testing.T) {
		assert.True(t, store.Connect())
	})

	t.Run("Create and Get", func(t *testing.T) {
		v, err := store.Create()
		require.NoError(t, err)
		assert.NotEmpty(t, v.Token)
		assert.NotNil(t, v.Pad)

		got, ok := store.Get(v.Token)
		require.True(t, ok)
		assert.Same(t, v, got)

		_, ok = store.Get("unknown")
		assert.False(t, ok)
	})

	t.Run("Range", func(t *testing.T) {
		_, err := store.Create()
		require.NoError(t, err)
		count := 0
		store.Range(func(*app.Viewer) { count++ })
		assert.Equal(t, 2, count)
		assert.Equal(t, 2, store.Len())
	})
}

func TestSessionSweep(t *testing.T) {
	store := newTestSessions(t, time.Minute)
	start := time.Date(2024, 5, 22, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return start }
	store.Connect()

	stale, err := store.Create()
	require.NoError(t, err)
	store.now = func() time.Time { return start.Add(50 * time.Second) }
	fresh, err := store.Create()
	require.NoError(t, err)

	removed := store.Sweep(start.Add(90 * time.Second))
	assert.Equal(t, 1, removed)
	_, ok := store.Get(stale.Token)
	assert.False(t, ok)
	_, ok = store.Get(fresh.Token)
	assert.True(t, ok)
}

func TestNewSessionStoreValidation(t *testing.T) {
	_, err := NewSessionStore(nil, func() *app.PinPad { return nil })
	assert.Error(t, err)
	_, err = NewSessionStore(&cfg.Properties{}, nil)
	assert.Error(t, err)
}
