package builder

import (
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/dashkit/dashbuild/internal/dlogger"
)

// AssetName is the deterministic output name template for a compiled
// entry point.
func AssetName(entry string) string {
	return "css/" + entry + ".min.css"
}

// runCompileStage compiles every entry point into a minified CSS buffer.
// Entry points are independent so they compile concurrently; the shared
// asset map is only written after the whole group finishes, one writer per
// asset name. Any failure aborts the build, naming the entry point.
func (b *Builder) runCompileStage() error {
	names := make([]string, 0, len(b.Config.Entries))
	for name := range b.Config.Entries {
		names = append(names, name)
	}
	sort.Strings(names)

	outputs := make([][]byte, len(names))
	var g errgroup.Group

	for i, name := range names {
		i, name := i, name
		src := filepath.Join(b.SrcDir, filepath.FromSlash(b.Config.Entries[name]))

		g.Go(func() error {
			dlogger.Debug("stage", "compile", "msg", "processing", "entry", name, "file", src)

			compiled, err := b.compiler.Compile(src)
			if err != nil {
				return errors.Wrapf(err, "entry point %q", name)
			}

			minified, err := b.minifier.CSS(compiled)
			if err != nil {
				return errors.Wrapf(err, "entry point %q: minify", name)
			}

			outputs[i] = minified
			return nil
		})
	}

	err := g.Wait()
	if err != nil {
		dlogger.Error("stage", "compile", "err", err)
		return err
	}

	for i, name := range names {
		b.assets[AssetName(name)] = outputs[i]
	}
	return nil
}
