package builder_test

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/require"

	"github.com/dashkit/dashbuild/internal/builder"
	"github.com/dashkit/dashbuild/pkg/config"
)

func writeSrc(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		full := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0644))
	}
	return dir
}

func readTree(t *testing.T, dir string) map[string]string {
	t.Helper()
	out := map[string]string{}
	err := filepath.Walk(dir, func(path string, info fs.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		out[filepath.ToSlash(rel)] = string(b)
		return nil
	})
	require.NoError(t, err)
	return out
}

func testConfig() *config.Configuration {
	return &config.Configuration{
		Entries: map[string]string{
			"app":       "scss/app.scss",
			"bootstrap": "scss/bootstrap.scss",
		},
		RTLPairs: []config.RTLPair{
			{Source: "css/app.min.css", Target: "css/app-rtl.min.css"},
			{Source: "css/bootstrap.min.css", Target: "css/bootstrap-rtl.min.css"},
		},
		StaticDirs: []string{"images", "js", "vendor"},
	}
}

func srcFiles() map[string]string {
	return map[string]string{
		"scss/app.scss":       "$gutter: 10px;\n.sidebar { margin-left: $gutter; .title { float: left; } }\n",
		"scss/bootstrap.scss": ".btn { padding: 1px 2px 3px 4px; color: red; }\n",
		"images/logo.svg":     "<svg></svg>",
		"js/app.js":           "document.body.dataset.ready = '1';\n",
	}
}

func runBuild(t *testing.T, src string, cfg *config.Configuration) (*builder.Builder, *builder.Result) {
	t.Helper()
	b := builder.NewBuilder(src, filepath.Join(t.TempDir(), "build"), ".")
	b.Config = cfg
	res, err := b.Build()
	require.NoError(t, err)
	return b, res
}

func TestBuildProducesOneOutputPerEntry(t *testing.T) {
	b, res := runBuild(t, writeSrc(t, srcFiles()), testConfig())

	tree := readTree(t, b.BuildDir)
	for _, name := range []string{
		"css/app.min.css",
		"css/app-rtl.min.css",
		"css/bootstrap.min.css",
		"css/bootstrap-rtl.min.css",
		"images/logo.svg",
		"js/app.js",
	} {
		require.Contains(t, tree, name, spew.Sdump(tree))
	}

	require.Equal(t, []string{
		"css/app-rtl.min.css",
		"css/app.min.css",
		"css/bootstrap-rtl.min.css",
		"css/bootstrap.min.css",
		"images/logo.svg",
		"js/app.js",
	}, res.Written)
	require.Empty(t, res.SkippedPairs)
}

func TestRTLOutputsAreFlipped(t *testing.T) {
	b, _ := runBuild(t, writeSrc(t, srcFiles()), testConfig())
	tree := readTree(t, b.BuildDir)

	require.Contains(t, tree["css/app.min.css"], "margin-left:10px")
	require.Contains(t, tree["css/app.min.css"], "float:left")
	require.Contains(t, tree["css/app-rtl.min.css"], "margin-right:10px")
	require.Contains(t, tree["css/app-rtl.min.css"], "float:right")

	require.Contains(t, tree["css/bootstrap.min.css"], "padding:1px 2px 3px 4px")
	require.Contains(t, tree["css/bootstrap-rtl.min.css"], "padding:1px 4px 3px 2px")

	// the flip never reaches back into the LTR asset
	require.Contains(t, tree["css/bootstrap-rtl.min.css"], "color:red")
	require.NotContains(t, tree["css/bootstrap.min.css"], "padding:1px 4px")
}

func TestMinifiedShorthandsSurviveFlip(t *testing.T) {
	// the minifier glues !important to the last value and collapses
	// keyword positions to 0 before the rtl stage sees the buffer
	files := srcFiles()
	files["scss/app.scss"] = ".a { padding: 1px 2px 3px 4px !important; background-position: left top; color: red; }\n"

	b, _ := runBuild(t, writeSrc(t, files), testConfig())
	tree := readTree(t, b.BuildDir)

	require.Contains(t, tree["css/app.min.css"], "padding:1px 2px 3px 4px!important")
	require.Contains(t, tree["css/app.min.css"], "background-position:0 0")

	require.Contains(t, tree["css/app-rtl.min.css"], "padding:1px 4px 3px 2px !important")
	require.Contains(t, tree["css/app-rtl.min.css"], "background-position:100% 0")
	require.Contains(t, tree["css/app-rtl.min.css"], "color:red")
}

func TestMissingRTLSourceIsSkipped(t *testing.T) {
	cfg := testConfig()
	cfg.RTLPairs = append(cfg.RTLPairs, config.RTLPair{
		Source: "css/missing.min.css",
		Target: "css/missing-rtl.min.css",
	})

	b, res := runBuild(t, writeSrc(t, srcFiles()), cfg)

	tree := readTree(t, b.BuildDir)
	require.NotContains(t, tree, "css/missing-rtl.min.css")
	require.Contains(t, tree, "css/app-rtl.min.css")

	require.Equal(t, []config.RTLPair{{
		Source: "css/missing.min.css",
		Target: "css/missing-rtl.min.css",
	}}, res.SkippedPairs)
}

func TestMissingStaticDirIsSkipped(t *testing.T) {
	// "vendor" is configured but never created in srcFiles
	b, res := runBuild(t, writeSrc(t, srcFiles()), testConfig())

	for _, w := range res.Written {
		require.NotContains(t, w, "vendor")
	}
	tree := readTree(t, b.BuildDir)
	require.Contains(t, tree, "images/logo.svg")
}

func TestBuildIsIdempotent(t *testing.T) {
	src := writeSrc(t, srcFiles())
	cfg := testConfig()

	b := builder.NewBuilder(src, filepath.Join(t.TempDir(), "build"), ".")
	b.Config = cfg

	res1, err := b.Build()
	require.NoError(t, err)
	first := readTree(t, b.BuildDir)

	res2, err := b.Build()
	require.NoError(t, err)
	second := readTree(t, b.BuildDir)

	require.Equal(t, first, second)
	require.Equal(t, res1.Written, res2.Written)
}

func TestCompileFailureNamesEntryPoint(t *testing.T) {
	files := srcFiles()
	files["scss/app.scss"] = ".broken { color: $undefined; }\n"

	b := builder.NewBuilder(writeSrc(t, files), filepath.Join(t.TempDir(), "build"), ".")
	b.Config = testConfig()

	_, err := b.Build()
	require.Error(t, err)
	require.Contains(t, err.Error(), `entry point "app"`)
	require.Contains(t, err.Error(), "undefined variable")
}

func TestMissingSrcDirFails(t *testing.T) {
	b := builder.NewBuilder(filepath.Join(t.TempDir(), "nope"), filepath.Join(t.TempDir(), "build"), ".")
	b.Config = testConfig()

	_, err := b.Build()
	require.Error(t, err)
}
