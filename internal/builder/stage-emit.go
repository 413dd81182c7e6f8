package builder

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/dashkit/dashbuild/internal/dlogger"
)

// runEmitStage writes every finalized asset under the build directory.
// Names are written in sorted order so two builds of the same inputs touch
// the filesystem identically.
func (b *Builder) runEmitStage(res *Result) error {
	names := make([]string, 0, len(b.assets))
	for name := range b.assets {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		dst := filepath.Join(b.BuildDir, filepath.FromSlash(name))

		err := os.MkdirAll(filepath.Dir(dst), 0755)
		if err != nil {
			dlogger.Error("stage", "emit", "msg", "output folder creation", "asset", name, "err", err)
			return err
		}

		err = os.WriteFile(dst, b.assets[name], 0644)
		if err != nil {
			dlogger.Error("stage", "emit", "msg", "output file write", "asset", name, "err", err)
			return err
		}

		res.Written = append(res.Written, name)
	}
	return nil
}
