package builder

import (
	"github.com/dashkit/dashbuild/internal/scss"
	"github.com/dashkit/dashbuild/pkg/config"
)

// Builder runs one batch build: compile style entry points, copy static
// asset directories, synthesize RTL CSS variants, emit everything under
// the build directory.
type Builder struct {
	RootFolder string
	ConfigFile string
	BuildDir   string
	SrcDir     string

	Config *config.Configuration

	compiler scss.Compiler
	minifier Minifier

	// pipeline-scoped output asset collection, name -> finalized bytes,
	// recreated on every Build call
	assets map[string][]byte
}

// Result reports what one build invocation produced.
type Result struct {
	// Written holds slash-separated output paths relative to BuildDir,
	// sorted.
	Written []string
	// SkippedPairs lists RTL pairs whose source asset never materialized.
	SkippedPairs []config.RTLPair
}

func NewBuilder(srcDir, buildDir, rootFolder string) *Builder {
	return &Builder{
		SrcDir:     srcDir,
		BuildDir:   buildDir,
		RootFolder: rootFolder,
	}
}
