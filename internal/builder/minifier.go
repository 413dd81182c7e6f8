package builder

import (
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
)

// Minifier shrinks a compiled CSS buffer before it enters the asset
// collection.
type Minifier interface {
	CSS([]byte) ([]byte, error)
}

var defaultMinifier Minifier

type TDMinifier struct {
	Minifier *minify.M
}

func (m *TDMinifier) CSS(b []byte) ([]byte, error) {
	return m.Minifier.Bytes("text/css", b)
}

type NOOPMinifier struct {
}

func (m *NOOPMinifier) CSS(b []byte) ([]byte, error) {
	return b, nil
}

func init() {
	minifier := minify.New()
	minifier.AddFunc("text/css", css.Minify)
	defaultMinifier = &TDMinifier{
		Minifier: minifier,
	}
}
