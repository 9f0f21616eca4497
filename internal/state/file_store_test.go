package state

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/rosterwatch/internal/foundation/errors"
	"git.home.luguber.info/inful/rosterwatch/internal/roster"
)

func TestFileStore_SaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clanmembers.json")
	store := NewFileStore(path)

	ts := time.Date(2024, 3, 2, 12, 30, 0, 0, time.UTC)
	want := []roster.Record{{Name: "Iron_Man", LastEvent: &ts}, {Name: "Zezima"}}
	require.NoError(t, store.Save(want))

	got, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, want, got)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.JSONEq(t, `[{"name":"Iron_Man","lastEvent":"2024-03-02T12:30:00Z"},{"name":"Zezima","lastEvent":null}]`, string(data))
}

func TestFileStore_SaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(filepath.Join(dir, "state.json"))
	for range 3 {
		require.NoError(t, store.Save([]roster.Record{{Name: "A"}}))
	}
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "state.json", entries[0].Name())
}

func TestFileStore_LoadMissing(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "absent.json"))
	_, err := store.Load()
	require.ErrorIs(t, err, ErrNotFound)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryNotFound))
}

func TestFileStore_LoadCorrupt(t *testing.T) {
	for name, body := range map[string]string{
		"truncated json": `[{"name":"A","lastEv`,
		"wrong shape":    `{"name":"A"}`,
		"bad timestamp":  `[{"name":"A","lastEvent":"yesterday"}]`,
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "state.json")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
			_, err := NewFileStore(path).Load()
			require.ErrorIs(t, err, ErrCorrupt)
			require.True(t, ferrors.HasCategory(err, ferrors.CategoryState))
		})
	}
}

func TestFileStore_LoadLegacyDateFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clanmembers.json")
	legacy := `[
  {"name":"Iron_Man","lastEvent":"Sat Mar 02 2024 12:30:00 GMT+0100 (Central European Standard Time)"},
  {"name":"Zezima","lastEvent":null}
]`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o600))

	got, err := NewFileStore(path).Load()
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.NotNil(t, got[0].LastEvent)
	require.Equal(t, time.Date(2024, 3, 2, 11, 30, 0, 0, time.UTC), *got[0].LastEvent)
	require.Nil(t, got[1].LastEvent)
}

func TestFileStore_EnsureCreatesEmptyDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	store := NewFileStore(path)

	records, err := store.Ensure()
	require.NoError(t, err)
	require.Empty(t, records)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.JSONEq(t, `[]`, string(data))
}

func TestFileStore_EnsureMovesCorruptFileAside(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))

	records, err := NewFileStore(path).Ensure()
	require.NoError(t, err)
	require.Empty(t, records)

	aside, err := os.ReadFile(path + ".corrupt")
	require.NoError(t, err)
	require.Equal(t, "not json", string(aside))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.JSONEq(t, `[]`, string(data))
}

func TestFileStore_EnsureKeepsValidState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	store := NewFileStore(path)
	require.NoError(t, store.Save([]roster.Record{{Name: "A"}}))

	records, err := store.Ensure()
	require.NoError(t, err)
	require.Equal(t, []roster.Record{{Name: "A"}}, records)
}

func TestFileStore_SaveFailsWhenDirectoryIsAFile(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))

	err := NewFileStore(filepath.Join(blocker, "state.json")).Save(nil)
	require.Error(t, err)
	var ce *ferrors.ClassifiedError
	require.True(t, errors.As(err, &ce))
	require.Equal(t, ferrors.CategoryState, ce.Category())
}

func TestFileStore_EnsureRefusesUnreadableState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clanmembers.json")
	require.NoError(t, os.Mkdir(path, 0o755))

	_, err := NewFileStore(path).Ensure()
	require.Error(t, err)
	require.True(t, ferrors.HasCategory(err, ferrors.CategoryState))
	require.False(t, errors.Is(err, ErrNotFound))

	info, statErr := os.Stat(path)
	require.NoError(t, statErr)
	require.True(t, info.IsDir(), "unreadable state must be left in place")
}
