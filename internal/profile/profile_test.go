package profile

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thyrook/chesseye/internal/config"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "nested", "profiles.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := openTestStore(t)

	want := config.ImgProcConfig{
		Margin:                7,
		PieceThreshold:        0.08,
		ExtractPieceThreshold: 130,
		BoardThreshold:        95,
		DifferenceLevel:       420,
	}
	require.NoError(t, store.Save("lichess-dark", want))

	got, err := store.Load("lichess-dark")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSaveOverwrites(t *testing.T) {
	store := openTestStore(t)

	first := config.Default().ImgProc
	require.NoError(t, store.Save("site", first))

	second := first
	second.Margin = 9
	require.NoError(t, store.Save("site", second))

	got, err := store.Load("site")
	require.NoError(t, err)
	assert.Equal(t, 9, got.Margin)
}

func TestLoadMissingProfile(t *testing.T) {
	store := openTestStore(t)

	_, err := store.Load("absent")
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestSaveEmptyNameFails(t *testing.T) {
	store := openTestStore(t)
	assert.Error(t, store.Save("", config.Default().ImgProc))
}

func TestListAndDelete(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Save("b-site", config.Default().ImgProc))
	require.NoError(t, store.Save("a-site", config.Default().ImgProc))

	names, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"a-site", "b-site"}, names)

	require.NoError(t, store.Delete("a-site"))
	require.NoError(t, store.Delete("never-existed"))

	names, err = store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"b-site"}, names)
}
