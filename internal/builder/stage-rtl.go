package builder

import (
	"github.com/dashkit/dashbuild/internal/dlogger"
	"github.com/dashkit/dashbuild/internal/rtl"
)

// runRTLStage runs strictly after all CSS is finalized. Each configured
// pair reads the finished LTR buffer and registers a flipped copy under
// the paired name; the LTR asset is never mutated. A pair whose source is
// absent is skipped with a warning.
func (b *Builder) runRTLStage(res *Result) {
	opts := rtl.Options{
		RenameSuffixes: b.Config.RTLConfig.RenameSuffixes,
		Clean:          b.Config.RTLConfig.Clean,
	}

	for _, pair := range b.Config.RTLPairs {
		src, ok := b.assets[pair.Source]
		if !ok {
			dlogger.Warn("stage", "rtl", "msg", "source asset not found, skipping pair", "source", pair.Source, "target", pair.Target)
			res.SkippedPairs = append(res.SkippedPairs, pair)
			continue
		}

		dlogger.Debug("stage", "rtl", "msg", "processing", "source", pair.Source, "target", pair.Target)

		flipped, err := rtl.Flip(src, opts)
		if err != nil {
			// the source buffer came out of the CSS minifier, a lex error
			// here means the pair is unusable, not the build
			dlogger.Warn("stage", "rtl", "msg", "flip failed, skipping pair", "source", pair.Source, "err", err)
			res.SkippedPairs = append(res.SkippedPairs, pair)
			continue
		}

		b.assets[pair.Target] = flipped
	}
}
