package main

import (
	"context"
	"net"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komekarch/site/backend/internal/logger"
	"github.com/komekarch/site/backend/internal/repository/transcript"
)

func quietRun(t *testing.T) context.Context {
	t.Helper()
	prev, prevLevel := logger.L, zerolog.GlobalLevel()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		logger.L = prev
		zerolog.SetGlobalLevel(prevLevel)
	})
	t.Setenv("LOG_LEVEL", "off")
	return ctx
}

func TestRunReturnsServeErrorAndClosesArchive(t *testing.T) {
	ctx := quietRun(t)

	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()

	dbPath := filepath.Join(t.TempDir(), "transcripts.db")
	t.Setenv("PORT", busy.Addr().String())
	t.Setenv("TRANSCRIPT_DB_PATH", dbPath)

	err = run(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "serve http")

	archive, err := transcript.Open(context.Background(), dbPath)
	require.NoError(t, err)
	assert.NoError(t, archive.Close())
}

func TestRunReturnsConfigError(t *testing.T) {
	ctx := quietRun(t)
	t.Setenv("ASSISTANT_REPLY_MODE", "parallel")

	err := run(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load configuration")
}
