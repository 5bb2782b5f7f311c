package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funny-falcon/slabpool/config"
)

func TestLoad_default(t *testing.T) {
	var c config.Config
	require.NoError(t, config.Load("", &c))
	assert.Equal(t, config.Default, c)
}

func TestLoad_precedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slabpool.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
slab_size = 4
count = 12
provider = "mmap"
log_level = "debug"
`), 0644))

	var c config.Config
	require.NoError(t, config.Load(path, &c))
	assert.Equal(t, 4, c.SlabSize)
	assert.Equal(t, 12, c.Count)
	assert.Equal(t, "mmap", c.Provider)
	assert.Equal(t, "debug", c.LogLevel)

	t.Setenv("SLABPOOL_SLAB_SIZE", "32")
	t.Setenv("SLABPOOL_JSON", "true")
	require.NoError(t, config.Load(path, &c))
	assert.Equal(t, 32, c.SlabSize)
	assert.Equal(t, 12, c.Count)
	assert.True(t, c.JSON)
}

func TestLoad_errors(t *testing.T) {
	var c config.Config
	assert.Error(t, config.Load(filepath.Join(t.TempDir(), "missing.toml"), &c))

	t.Setenv("SLABPOOL_PROVIDER", "tcmalloc")
	require.NoError(t, config.Load("", &c))
	assert.ErrorIs(t, c.Validate(), config.ErrInvalid)

	t.Setenv("SLABPOOL_PROVIDER", "heap")
	t.Setenv("SLABPOOL_COUNT", "notanumber")
	assert.Error(t, config.Load("", &c))
}

func TestLoad_overriddenLater(t *testing.T) {
	t.Setenv("SLABPOOL_COUNT", "50")
	var c config.Config
	require.NoError(t, config.Load("", &c))
	assert.Equal(t, 50, c.Count)
	assert.ErrorIs(t, c.Validate(), config.ErrInvalid)

	c.Count = 5
	assert.NoError(t, c.Validate())
}

func TestValidate(t *testing.T) {
	for _, c := range []config.Config{
		{SlabSize: 0, Count: 1, Provider: "heap", LogLevel: "info"},
		{SlabSize: 1, Count: 21, Provider: "heap", LogLevel: "info"},
		{SlabSize: 1, Count: 1, Provider: "", LogLevel: "info"},
		{SlabSize: 1, Count: 1, Provider: "heap", LogLevel: "loud"},
	} {
		assert.ErrorIs(t, c.Validate(), config.ErrInvalid, "%+v", c)
	}
	ok := config.Default
	assert.NoError(t, ok.Validate())
}
