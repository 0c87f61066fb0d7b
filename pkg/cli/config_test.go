package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserConfig_RoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg := emptyUserConfig()
	cfg.CurrentContext = "dev"
	cfg.Contexts["dev"] = DBContext{
		Host:     "127.0.0.1",
		Port:     3306,
		User:     "root",
		Password: "secret",
		Database: "mydb",
	}

	require.NoError(t, SaveUserConfig(cfg))

	loaded, err := LoadUserConfig()
	require.NoError(t, err)
	assert.Equal(t, "dev", loaded.CurrentContext)
	assert.Equal(t, cfg.Contexts["dev"], loaded.Contexts["dev"])
}

func TestUserConfig_ActiveContext(t *testing.T) {
	cfg := &UserConfig{
		CurrentContext: "dev",
		Contexts: map[string]DBContext{
			"dev":  {Database: "devdb"},
			"prod": {Database: "proddb"},
		},
	}

	name, ctx, ok := cfg.ActiveContext("")
	require.True(t, ok)
	assert.Equal(t, "dev", name)
	assert.Equal(t, "devdb", ctx.Database)

	name, ctx, ok = cfg.ActiveContext("prod")
	require.True(t, ok)
	assert.Equal(t, "prod", name)
	assert.Equal(t, "proddb", ctx.Database)

	_, _, ok = cfg.ActiveContext("nope")
	assert.False(t, ok)
}

func TestLoadUserConfig_Missing(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	_, err := LoadUserConfig()
	assert.Error(t, err)
}
