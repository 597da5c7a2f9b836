package frecency

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupConfigFolder(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", "")
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	require.NoError(t, os.Mkdir(filepath.Join(home, ".roletest"), 0700))
}

func TestUpsertOrdersByFrecency(t *testing.T) {
	setupConfigFolder(t)

	store, err := Load("test_frecency")
	require.NoError(t, err)

	require.NoError(t, store.Upsert("alpha"))
	require.NoError(t, store.Upsert("alpha"))
	require.NoError(t, store.Upsert("alpha"))
	require.NoError(t, store.Upsert("beta"))

	assert.Equal(t, []string{"alpha", "beta"}, store.Roles())

	// the ordering survives a reload from disk
	reloaded, err := Load("test_frecency")
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, reloaded.Roles())
}

func TestSingleFreshEntryScoresFinite(t *testing.T) {
	setupConfigFolder(t)

	store, err := Load("test_frecency")
	require.NoError(t, err)
	require.NoError(t, store.Upsert("alpha"))

	require.Len(t, store.Entries, 1)
	e := store.Entries[0]
	// the sole entry shares its LastUsed with OldestDate, which must not
	// produce an Inf or NaN score
	assert.False(t, math.IsInf(e.LastUsedScore, 0) || math.IsNaN(e.LastUsedScore))
	assert.False(t, math.IsInf(e.FrecencySortingScore, 0) || math.IsNaN(e.FrecencySortingScore))
}

func TestLoadMissingFileStartsFresh(t *testing.T) {
	setupConfigFolder(t)

	store, err := Load("test_frecency")
	require.NoError(t, err)
	assert.Empty(t, store.Roles())
}

func TestDelete(t *testing.T) {
	setupConfigFolder(t)

	store, err := Load("test_frecency")
	require.NoError(t, err)
	require.NoError(t, store.Upsert("alpha"))
	require.NoError(t, store.Upsert("beta"))

	require.NoError(t, store.Delete("alpha"))
	assert.Equal(t, []string{"beta"}, store.Roles())
}

func TestForRolesOrdersFrecentFirst(t *testing.T) {
	setupConfigFolder(t)

	store, err := Load(roleStoreKey)
	require.NoError(t, err)
	require.NoError(t, store.Upsert("TestRole"))

	_, ordered := ForRoles([]string{"Admin", "TestRole", "Zeta"})
	assert.Equal(t, []string{"TestRole", "Admin", "Zeta"}, ordered)
}

func TestForRolesDropsStaleEntriesOnUpdate(t *testing.T) {
	setupConfigFolder(t)

	store, err := Load(roleStoreKey)
	require.NoError(t, err)
	require.NoError(t, store.Upsert("Gone"))

	fr, ordered := ForRoles([]string{"Admin"})
	assert.Equal(t, []string{"Admin"}, ordered)

	fr.Update("Admin")

	reloaded, err := Load(roleStoreKey)
	require.NoError(t, err)
	assert.Equal(t, []string{"Admin"}, reloaded.Roles())
}
