package builder

import (
	"errors"
	"os"
	"path/filepath"
	"sort"

	"github.com/dashkit/dashbuild/internal/dlogger"
	"github.com/dashkit/dashbuild/internal/scss"
	"github.com/dashkit/dashbuild/pkg/config"
)

func (b *Builder) Init() error {
	if b.RootFolder == "" {
		b.RootFolder = "."
	}
	if b.Config == nil {
		b.Config = config.Config
	}

	if b.BuildDir == "" {
		b.BuildDir = filepath.Join(b.RootFolder, b.Config.BuildDir)
	}
	if b.SrcDir == "" {
		b.SrcDir = filepath.Join(b.RootFolder, b.Config.SrcDir)
	}

	if _, err := os.Stat(b.SrcDir); os.IsNotExist(err) {
		dlogger.Error("msg", "Src folder not found", "path", b.SrcDir, "err", err)
		return errors.New("src folder not found")
	}

	if b.compiler == nil {
		switch b.Config.StyleCompiler {
		case "", "builtin":
			b.compiler = scss.New()
		case "dart-sass":
			b.compiler = &scss.ExternalCompiler{}
		default:
			return errors.New("unknown style_compiler " + b.Config.StyleCompiler)
		}
	}
	if b.minifier == nil {
		b.minifier = defaultMinifier
	}

	return nil
}

// Build runs the whole pipeline in fixed stage order:
// compile -> copy -> rtl -> emit.
func (b *Builder) Build() (*Result, error) {
	err := b.Init()
	if err != nil {
		return nil, err
	}

	err = os.RemoveAll(b.BuildDir)
	if err != nil {
		dlogger.Error("msg", "Failed to remove build folder", "path", b.BuildDir, "err", err)
		return nil, err
	}
	err = os.MkdirAll(b.BuildDir, 0755)
	if err != nil {
		dlogger.Error("msg", "Failed to create build folder", "path", b.BuildDir, "err", err)
		return nil, err
	}

	dlogger.Info("msg", "Building started", "path", b.SrcDir)
	defer dlogger.Info("msg", "Building finished", "path", b.SrcDir)

	b.assets = make(map[string][]byte, len(b.Config.Entries)+len(b.Config.RTLPairs))
	res := &Result{}

	err = b.runCompileStage()
	if err != nil {
		return nil, err
	}
	err = b.runCopyStage(res)
	if err != nil {
		return nil, err
	}
	b.runRTLStage(res)
	err = b.runEmitStage(res)
	if err != nil {
		return nil, err
	}

	sort.Strings(res.Written)
	return res, nil
}
