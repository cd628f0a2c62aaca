package confkit_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricebot/pkg/confkit"
)

func TestResolvePath(t *testing.T) {
	t.Setenv("CONFKIT_DIR", "sub")

	tests := []struct {
		name string
		base string
		file string
		want string
	}{
		{name: "absolute", base: "/base/dir", file: "/abs/market.yaml", want: "/abs/market.yaml"},
		{name: "relative", base: "/base/dir", file: "market.yaml", want: "/base/dir/market.yaml"},
		{name: "env var", base: "/base/dir", file: "${CONFKIT_DIR}/market.yaml", want: "/base/dir/sub/market.yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, confkit.ResolvePath(tt.base, tt.file))
		})
	}
}

func TestBaseDir(t *testing.T) {
	assert.Equal(t, "/etc/pricebot", confkit.BaseDir("/etc/pricebot/pricebot.yaml"))
	assert.Equal(t, "etc", confkit.BaseDir("etc/pricebot.yaml"))
}

func TestSectionHydrate(t *testing.T) {
	t.Run("empty file", func(t *testing.T) {
		var section confkit.Section[string]
		err := section.Hydrate("/base", func(string) (*string, error) {
			t.Fatal("loader should not be called for empty file")
			return nil, nil
		})
		require.NoError(t, err)
		assert.Nil(t, section.Value)
		assert.EqualError(t, section.Require("Market"), "Market: file not configured")
	})

	t.Run("loaded", func(t *testing.T) {
		section := confkit.Section[string]{File: "market.yaml"}
		value := "loaded"
		err := section.Hydrate("/base", func(p string) (*string, error) {
			assert.Equal(t, "/base/market.yaml", p)
			return &value, nil
		})
		require.NoError(t, err)
		assert.Equal(t, "/base/market.yaml", section.File)
		require.NotNil(t, section.Value)
		assert.Equal(t, "loaded", *section.Value)
		assert.NoError(t, section.Require("Market"))
	})
}

func TestLoadFile(t *testing.T) {
	t.Setenv("CONFKIT_NAME", "from-env")
	path := filepath.Join(t.TempDir(), "app.yaml")
	require.NoError(t, os.WriteFile(path, []byte("Name: ${CONFKIT_NAME}\nPort: 8080\n"), 0o600))

	type appConf struct {
		Name string
		Port int
	}
	cfg, err := confkit.LoadFile[appConf](path, true)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Name)
	assert.Equal(t, 8080, cfg.Port)

	_, err = confkit.LoadFile[appConf](filepath.Join(t.TempDir(), "missing.yaml"), true)
	assert.Error(t, err)
}

func TestProjectPath(t *testing.T) {
	p, err := confkit.ProjectPath("etc/market.yaml")
	require.NoError(t, err)
	root := filepath.Dir(filepath.Dir(p))
	_, statErr := os.Stat(filepath.Join(root, "go.mod"))
	assert.NoError(t, statErr)
}
