package transcript

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/komekarch/site/backend/internal/model/chat"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "transcript.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordAndList(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	at := time.Date(2026, 10, 1, 12, 0, 0, 123, time.UTC)

	msgs := []chat.Message{
		{ID: "m1", Role: chat.RoleAssistant, Text: chat.Greeting, CreatedAt: at},
		{ID: "m2", Role: chat.RoleUser, Text: "кэш", CreatedAt: at.Add(time.Second)},
		{ID: "m3", Role: chat.RoleAssistant, Text: "ответ", CreatedAt: at.Add(2 * time.Second)},
	}
	for _, m := range msgs {
		require.NoError(t, store.Record(ctx, "s1", m))
	}
	require.NoError(t, store.Record(ctx, "s2", chat.Message{ID: "x", Role: chat.RoleUser, Text: "other", CreatedAt: at}))

	entries, err := store.List(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for i, entry := range entries {
		assert.Equal(t, "s1", entry.SessionID)
		assert.Equal(t, msgs[i].ID, entry.MessageID)
		assert.Equal(t, msgs[i].Role, entry.Role)
		assert.Equal(t, msgs[i].Text, entry.Text)
		assert.True(t, msgs[i].CreatedAt.Equal(entry.CreatedAt))
	}
	assert.Less(t, entries[0].Seq, entries[1].Seq)
}

func TestListUnknownSession(t *testing.T) {
	store := openStore(t)
	entries, err := store.List(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.db")
	ctx := context.Background()

	store, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, store.Record(ctx, "s", chat.Message{ID: "1", Role: chat.RoleUser, Text: "hi", CreatedAt: time.Now()}))
	require.NoError(t, store.Close())

	store, err = Open(ctx, path)
	require.NoError(t, err)
	defer store.Close()
	entries, err := store.List(ctx, "s")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(context.Background(), "")
	assert.Error(t, err)
}
