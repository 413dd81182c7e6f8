package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dashkit/dashbuild/pkg/config"
)

func TestDefaults(t *testing.T) {
	cfg := config.DefaultConfiguration()

	require.Equal(t, "src", cfg.SrcDir)
	require.Equal(t, "build", cfg.BuildDir)
	require.Equal(t, "builtin", cfg.StyleCompiler)
	require.Contains(t, cfg.Entries, "app")
	require.Contains(t, cfg.Entries, "bootstrap")
	require.Len(t, cfg.RTLPairs, 2)
	require.Equal(t, 8100, cfg.ServeConfig.Port)
	require.False(t, cfg.RTLConfig.RenameSuffixes)
	require.False(t, cfg.RTLConfig.Clean)
}

func TestInitMissingFileKeepsDefaults(t *testing.T) {
	config.Config = config.DefaultConfiguration()

	err := config.Init(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	require.Equal(t, "build", config.Config.BuildDir)
}

func TestInitOverlaysFile(t *testing.T) {
	config.Config = config.DefaultConfiguration()
	defer func() { config.Config = config.DefaultConfiguration() }()

	path := filepath.Join(t.TempDir(), "dashbuild.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"build_directory": "dist",
		"entries": {"admin": "scss/admin.scss"},
		"rtl_pairs": [{"source": "css/admin.min.css", "target": "css/admin-rtl.min.css"}],
		"serve_config": {"port": 9000, "redirect_404": "index.html"}
	}`), 0644))

	require.NoError(t, config.Init(path))

	require.Equal(t, "dist", config.Config.BuildDir)
	require.Equal(t, "src", config.Config.SrcDir)
	require.Equal(t, map[string]string{"admin": "scss/admin.scss"}, config.Config.Entries)
	require.Equal(t, []config.RTLPair{{Source: "css/admin.min.css", Target: "css/admin-rtl.min.css"}}, config.Config.RTLPairs)
	require.Equal(t, 9000, config.Config.ServeConfig.Port)
	require.Equal(t, "index.html", config.Config.ServeConfig.Redirect404)
}

func TestInitMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dashbuild.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0644))

	require.Error(t, config.Init(path))
}
