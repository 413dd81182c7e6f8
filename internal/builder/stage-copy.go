package builder

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dashkit/dashbuild/internal/dlogger"
)

// runCopyStage copies each configured static directory verbatim into the
// build directory, preserving relative structure. A missing directory is a
// warning, a failed copy is fatal.
func (b *Builder) runCopyStage(res *Result) error {
	for _, dir := range b.Config.StaticDirs {
		src := filepath.Join(b.SrcDir, filepath.FromSlash(dir))

		if f, err := os.Stat(src); err != nil || !f.IsDir() {
			dlogger.Warn("stage", "copy", "msg", "static directory not found, skipping", "path", src)
			continue
		}

		err := filepath.Walk(src, func(absolutepath string, info fs.FileInfo, err error) error {
			if err != nil {
				return err
			}

			rel, err := filepath.Rel(b.SrcDir, absolutepath)
			if err != nil {
				return err
			}
			dst := filepath.Join(b.BuildDir, rel)

			if info.IsDir() {
				return os.MkdirAll(dst, 0755)
			}

			dlogger.Debug("stage", "copy", "msg", "processing", "file", rel)
			_, err = copyFile(absolutepath, dst)
			if err != nil {
				return err
			}

			res.Written = append(res.Written, filepath.ToSlash(rel))
			return nil
		})
		if err != nil {
			dlogger.Error("stage", "copy", "msg", "copy failed", "dir", dir, "err", err)
			return err
		}
	}
	return nil
}
