package course

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedCatalog(t *testing.T) {
	store := NewMemoryStore(Seed())
	modules := store.List()
	require.Len(t, modules, 4)

	ids := make([]string, 0, len(modules))
	for _, m := range modules {
		ids = append(ids, m.ID)
		assert.True(t, m.Level.Valid(), m.ID)
		assert.Len(t, m.Topics, 4, m.ID)
	}
	assert.Equal(t, []string{"cpu-arch", "memory", "cache", "pipelining"}, ids)

	cache, ok := store.FindByID("cache")
	require.True(t, ok)
	assert.Equal(t, LevelIntermediate, cache.Level)

	_, ok = store.FindByID("gpu")
	assert.False(t, ok)
}

func TestMemoryStoreListIsACopy(t *testing.T) {
	store := NewMemoryStore(Seed())
	list := store.List()
	list[0].Title = "changed"

	got, _ := store.FindByID(list[0].ID)
	assert.NotEqual(t, "changed", got.Title)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
modules:
  - id: isa
    title: Набор команд
    level: Базовый
    duration: 2 часа
    focus: Контракт между программой и процессором.
    topics: [RISC-V, x86-64]
`), 0o600))

	modules, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, modules, 1)
	assert.Equal(t, "isa", modules[0].ID)
	assert.Equal(t, []string{"RISC-V", "x86-64"}, modules[0].Topics)
}

func TestParseRejectsBadCatalogs(t *testing.T) {
	cases := map[string]string{
		"empty":     `modules: []`,
		"no id":     "modules:\n  - title: x\n    level: Базовый\n",
		"bad level": "modules:\n  - id: a\n    title: x\n    level: Expert\n",
		"duplicate": "modules:\n  - {id: a, title: x, level: Базовый}\n  - {id: a, title: y, level: Средний}\n",
		"not yaml":  "modules: [",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(raw))
			assert.Error(t, err)
		})
	}
}
