package pause

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freedom_case_2/opsync/internal/clock"
)

var testNow = time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

func newFileGate(t *testing.T) (*Gate, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state", "system_state.json")
	return NewGate(NewFileStore(path), clock.Fake(testNow), zerolog.Nop()), path
}

func TestGateDefaultsToActive(t *testing.T) {
	gate, _ := newFileGate(t)
	ctx := context.Background()

	assert.False(t, gate.IsPaused(ctx))
	status := gate.Status(ctx)
	assert.Equal(t, StatusActive, status.Status)
	assert.Nil(t, status.PausedAt)
}

func TestPauseResumeRoundTrip(t *testing.T) {
	gate, path := newFileGate(t)
	ctx := context.Background()

	state, err := gate.Pause(ctx, "maintenance", "ops")
	require.NoError(t, err)
	assert.True(t, state.Paused)
	assert.Equal(t, "maintenance", *state.Reason)
	assert.True(t, gate.IsPaused(ctx))

	status := gate.Status(ctx)
	assert.Equal(t, StatusPaused, status.Status)
	require.NotNil(t, status.PausedAt)
	assert.True(t, testNow.Equal(*status.PausedAt))
	assert.Equal(t, "ops", *status.PausedBy)

	_, err = gate.Resume(ctx, "ops")
	require.NoError(t, err)
	assert.False(t, gate.IsPaused(ctx))

	status = gate.Status(ctx)
	assert.Equal(t, StatusActive, status.Status)
	assert.Nil(t, status.Reason)
	assert.Nil(t, status.PausedAt)
	require.NotNil(t, status.ResumedBy)
	assert.Equal(t, "ops", *status.ResumedBy)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestPauseDefaults(t *testing.T) {
	gate, _ := newFileGate(t)
	state, err := gate.Pause(context.Background(), "  ", "")
	require.NoError(t, err)
	assert.Equal(t, defaultReason, *state.Reason)
	assert.Equal(t, defaultActor, *state.PausedBy)
}

func TestCorruptFileFailsOpen(t *testing.T) {
	gate, path := newFileGate(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	assert.False(t, gate.IsPaused(context.Background()))
	assert.Equal(t, StatusActive, gate.Status(context.Background()).Status)
}

func TestPauseSurfacesPersistenceFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	// parent of the state file is a regular file, so MkdirAll fails
	gate := NewGate(NewFileStore(filepath.Join(blocker, "state.json")), clock.Fake(testNow), zerolog.Nop())
	_, err := gate.Pause(context.Background(), "x", "y")
	assert.Error(t, err)
	assert.False(t, gate.IsPaused(context.Background()))
}

func TestRedisStoreRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	gate := NewGate(NewRedisStore(client, "opsync:test_state"), clock.Fake(testNow), zerolog.Nop())
	ctx := context.Background()

	assert.False(t, gate.IsPaused(ctx))

	_, err := gate.Pause(ctx, "incident", "oncall")
	require.NoError(t, err)
	assert.True(t, gate.IsPaused(ctx))
	assert.True(t, mr.Exists("opsync:test_state"))

	_, err = gate.Resume(ctx, "oncall")
	require.NoError(t, err)
	assert.False(t, gate.IsPaused(ctx))
}

func TestRedisStoreCorruptValueFailsOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	require.NoError(t, mr.Set("opsync:test_state", "garbage"))
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	gate := NewGate(NewRedisStore(client, "opsync:test_state"), clock.Fake(testNow), zerolog.Nop())
	assert.False(t, gate.IsPaused(context.Background()))
}

func TestRedisUnreachableFailsOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	gate := NewGate(NewRedisStore(client, "opsync:test_state"), clock.Fake(testNow), zerolog.Nop())
	_, err := gate.Pause(context.Background(), "incident", "oncall")
	require.NoError(t, err)

	mr.Close()
	assert.False(t, gate.IsPaused(context.Background()))
}
