package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClosedStatusListTrimsAndSkipsEmpty(t *testing.T) {
	cfg := Config{ClosedStatuses: " closed, resolved ,,done "}
	assert.Equal(t, []string{"closed", "resolved", "done"}, cfg.ClosedStatusList())
}

func TestAssignableOperatorIDs(t *testing.T) {
	cfg := Config{AssignableOps: "10, 27,37"}
	ids, err := cfg.AssignableOperatorIDs()
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 27, 37}, ids)

	cfg.AssignableOps = "10,abc"
	_, err = cfg.AssignableOperatorIDs()
	assert.Error(t, err)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("SYNC_INTERVAL", "5m")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "file", cfg.PauseBackend)
	assert.Equal(t, "5m0s", cfg.SyncInterval.String())
	assert.Equal(t, []string{"closed", "success", "resolved", "done"}, cfg.ClosedStatusList())
}

func TestLoadRejectsUnknownTimezone(t *testing.T) {
	t.Setenv("TIMEZONE", "Mars/Olympus_Mons")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsNonPositiveSyncInterval(t *testing.T) {
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("SYNC_ENABLED", "true")

	for _, interval := range []string{"0s", "-1m"} {
		t.Setenv("SYNC_INTERVAL", interval)
		_, err := Load()
		assert.Error(t, err, interval)
	}

	t.Setenv("SYNC_ENABLED", "false")
	t.Setenv("SYNC_INTERVAL", "0s")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.SyncEnabled)
}
