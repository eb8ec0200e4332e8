package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freedom_case_2/opsync/internal/config"
	"github.com/freedom_case_2/opsync/internal/pause"
	"github.com/freedom_case_2/opsync/internal/ticketapi"
)

func TestPauseStoreSelection(t *testing.T) {
	ctx := context.Background()

	a := &App{Config: config.Config{PauseBackend: "file", PauseStateFile: filepath.Join(t.TempDir(), "s.json")}, Logger: zerolog.Nop()}
	store, err := a.pauseStore(ctx)
	require.NoError(t, err)
	assert.IsType(t, &pause.FileStore{}, store)

	mr := miniredis.RunT(t)
	a = &App{Config: config.Config{PauseBackend: "Redis", RedisAddr: mr.Addr(), PauseRedisKey: "k"}, Logger: zerolog.Nop()}
	store, err = a.pauseStore(ctx)
	require.NoError(t, err)
	assert.IsType(t, &pause.RedisStore{}, store)
	require.NotNil(t, a.Redis)
	a.Close()

	a = &App{Config: config.Config{PauseBackend: "etcd"}, Logger: zerolog.Nop()}
	_, err = a.pauseStore(ctx)
	assert.Error(t, err)
}

func TestTicketClientSelection(t *testing.T) {
	a := &App{Logger: zerolog.Nop()}
	client := a.ticketClient(nil)
	mock, ok := client.(ticketapi.MockClient)
	require.True(t, ok)
	assert.Equal(t, mockOperators, mock.Operators)

	a.Config.TicketAPIURL = "http://tickets.local"
	_, ok = a.ticketClient(nil).(*ticketapi.HTTPClient)
	assert.True(t, ok)
}
