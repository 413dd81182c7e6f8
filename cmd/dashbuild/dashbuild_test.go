package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dashkit/dashbuild/pkg/config"
)

func TestBuildCommandReportsInitFailure(t *testing.T) {
	config.Config = config.DefaultConfiguration()

	r := &CommandBuild{
		SrcDir:   filepath.Join(t.TempDir(), "nope"),
		BuildDir: filepath.Join(t.TempDir(), "build"),
	}

	// a failed Init must surface as an error so main exits non-zero
	require.Error(t, r.Run(nil))
}
