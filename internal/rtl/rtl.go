// Package rtl synthesizes the right-to-left variant of a finished CSS
// buffer. Only direction-sensitive declarations are rewritten, every other
// byte of the input passes through untouched.
package rtl

import (
	"bytes"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

type Options struct {
	// RenameSuffixes swaps left/right words inside selectors so
	// direction-named classes (.pull-left) keep pointing the right way.
	RenameSuffixes bool
	// Clean strips rtl: control comments from the output.
	Clean bool
}

type token struct {
	tt   css.TokenType
	data []byte
}

var propFlip = map[string]string{}

func init() {
	pairs := [][2]string{
		{"left", "right"},
		{"margin-left", "margin-right"},
		{"padding-left", "padding-right"},
		{"border-left", "border-right"},
		{"border-left-color", "border-right-color"},
		{"border-left-style", "border-right-style"},
		{"border-left-width", "border-right-width"},
		{"border-top-left-radius", "border-top-right-radius"},
		{"border-bottom-left-radius", "border-bottom-right-radius"},
	}
	for _, p := range pairs {
		propFlip[p[0]] = p[1]
		propFlip[p[1]] = p[0]
	}
}

// Flip rewrites css into its right-to-left counterpart.
func Flip(src []byte, opts Options) ([]byte, error) {
	l := css.NewLexer(parse.NewInputBytes(src))
	out := &bytes.Buffer{}

	var pending []token
	depth := 0
	ignoreNext := false

	flushStatement := func() {
		if len(pending) == 0 {
			return
		}
		if depth > 0 && isDeclaration(pending) && !ignoreNext {
			out.Write(transformDeclaration(pending))
		} else {
			writeRaw(out, pending)
		}
		ignoreNext = false
		pending = pending[:0]
	}

	for {
		tt, data := l.Next()
		switch tt {
		case css.ErrorToken:
			if err := l.Err(); err != nil && err != io.EOF {
				return nil, err
			}
			flushStatement()
			return out.Bytes(), nil

		case css.LeftBraceToken:
			if opts.RenameSuffixes && isSelector(pending) {
				renameSelector(pending)
			}
			writeRaw(out, pending)
			pending = pending[:0]
			out.Write(data)
			depth++

		case css.RightBraceToken:
			flushStatement()
			out.Write(data)
			if depth > 0 {
				depth--
			}

		case css.SemicolonToken:
			flushStatement()
			out.Write(data)

		case css.CommentToken:
			if directive, ok := controlComment(data); ok {
				if directive == "ignore" {
					ignoreNext = true
				}
				if !opts.Clean {
					pending = append(pending, token{tt, data})
				}
			} else {
				pending = append(pending, token{tt, data})
			}

		default:
			pending = append(pending, token{tt, data})
		}
	}
}

func writeRaw(out *bytes.Buffer, ts []token) {
	for _, t := range ts {
		out.Write(t.data)
	}
}

func controlComment(data []byte) (string, bool) {
	inner := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(string(data), "/*"), "*/"))
	if !strings.HasPrefix(inner, "rtl:") {
		return "", false
	}
	return strings.TrimPrefix(inner, "rtl:"), true
}

// isDeclaration reports whether the buffered tokens are `ident : ...`.
func isDeclaration(ts []token) bool {
	seenIdent := false
	for _, t := range ts {
		switch t.tt {
		case css.WhitespaceToken, css.CommentToken:
			continue
		case css.IdentToken:
			if seenIdent {
				return false
			}
			seenIdent = true
		case css.ColonToken:
			return seenIdent
		default:
			return false
		}
	}
	return false
}

func isSelector(ts []token) bool {
	for _, t := range ts {
		switch t.tt {
		case css.WhitespaceToken, css.CommentToken:
			continue
		case css.AtKeywordToken:
			return false
		default:
			return true
		}
	}
	return false
}

var wordLRregexp = regexp.MustCompile(`(^|[^a-zA-Z])(left|right)([^a-zA-Z]|$)`)

func renameSelector(ts []token) {
	for i, t := range ts {
		switch t.tt {
		case css.IdentToken, css.HashToken:
			ts[i].data = []byte(wordLRregexp.ReplaceAllStringFunc(string(t.data), func(m string) string {
				if strings.Contains(m, "left") {
					return strings.Replace(m, "left", "right", 1)
				}
				return strings.Replace(m, "right", "left", 1)
			}))
		}
	}
}

// transformDeclaration rewrites one buffered declaration, leading trivia
// included, into its mirrored form.
func transformDeclaration(ts []token) []byte {
	out := &bytes.Buffer{}

	i := 0
	for ; i < len(ts); i++ {
		if ts[i].tt != css.WhitespaceToken && ts[i].tt != css.CommentToken {
			break
		}
		out.Write(ts[i].data)
	}

	prop := strings.ToLower(string(ts[i].data))
	if flipped, ok := propFlip[prop]; ok {
		out.WriteString(flipped)
	} else {
		out.Write(ts[i].data)
	}
	i++

	// up to and including the colon
	for ; i < len(ts); i++ {
		out.Write(ts[i].data)
		if ts[i].tt == css.ColonToken {
			i++
			break
		}
	}

	out.Write(flipValue(prop, ts[i:]))
	return out.Bytes()
}

func flipValue(prop string, val []token) []byte {
	switch prop {
	case "float", "clear", "text-align", "background-position-x":
		return swapKeywords(val, "left", "right")
	case "direction":
		return swapKeywords(val, "ltr", "rtl")
	case "margin", "padding", "border-width", "border-style", "border-color", "inset":
		return reorderSides(val)
	case "border-radius":
		return reorderRadius(val)
	case "transform":
		return negateTranslateX(val)
	case "background-position":
		return flipPosition(val)
	case "box-shadow", "text-shadow":
		return negateShadows(val)
	default:
		return rawTokens(val)
	}
}

func rawTokens(ts []token) []byte {
	out := &bytes.Buffer{}
	writeRaw(out, ts)
	return out.Bytes()
}

func swapKeywords(ts []token, a, b string) []byte {
	out := &bytes.Buffer{}
	for _, t := range ts {
		if t.tt == css.IdentToken {
			switch strings.ToLower(string(t.data)) {
			case a:
				out.WriteString(b)
				continue
			case b:
				out.WriteString(a)
				continue
			}
		}
		out.Write(t.data)
	}
	return out.Bytes()
}

// groups splits value tokens on top-level whitespace. Bang groups
// (!important) stay attached as their own trailing group.
func groups(ts []token) [][]token {
	var out [][]token
	var cur []token
	depth := 0

	flush := func() {
		if len(cur) > 0 {
			out = append(out, cur)
			cur = nil
		}
	}

	for _, t := range ts {
		switch t.tt {
		case css.FunctionToken, css.LeftParenthesisToken, css.LeftBracketToken:
			depth++
		case css.RightParenthesisToken, css.RightBracketToken:
			depth--
		case css.WhitespaceToken:
			if depth == 0 {
				flush()
				continue
			}
		case css.DelimToken:
			// minified output drops the space around the border-radius /
			// and before !important, the delimiters still bound a group
			if depth == 0 && len(t.data) == 1 && t.data[0] == '/' {
				flush()
				out = append(out, []token{t})
				continue
			}
			if depth == 0 && len(t.data) == 1 && t.data[0] == '!' {
				flush()
			}
		}
		cur = append(cur, t)
	}
	flush()
	return out
}

func joinGroups(gs [][]token) []byte {
	out := &bytes.Buffer{}
	for i, g := range gs {
		if i > 0 {
			out.WriteByte(' ')
		}
		writeRaw(out, g)
	}
	return out.Bytes()
}

// splitBang peels a trailing !important group off a group list.
func splitBang(gs [][]token) (values, bang [][]token) {
	for i, g := range gs {
		if len(g) > 0 && g[0].tt == css.DelimToken && len(g[0].data) > 0 && g[0].data[0] == '!' {
			return gs[:i], gs[i:]
		}
	}
	return gs, nil
}

// reorderSides mirrors a top/right/bottom/left shorthand. Anything but the
// four-value form is direction-neutral and passes through untouched.
func reorderSides(ts []token) []byte {
	gs, bang := splitBang(groups(ts))
	if len(gs) != 4 {
		return rawTokens(ts)
	}
	gs = [][]token{gs[0], gs[3], gs[2], gs[1]}
	return joinGroups(append(gs, bang...))
}

// reorderRadius mirrors border-radius corners, including the elliptical
// horizontal/vertical form split on /.
func reorderRadius(ts []token) []byte {
	gs, bang := splitBang(groups(ts))

	var sides [][][]token
	var cur [][]token
	for _, g := range gs {
		if len(g) == 1 && g[0].tt == css.DelimToken && string(g[0].data) == "/" {
			sides = append(sides, cur)
			cur = nil
			continue
		}
		cur = append(cur, g)
	}
	sides = append(sides, cur)

	mirrored := false
	for _, side := range sides {
		if len(side) >= 2 && len(side) <= 4 {
			mirrored = true
		}
	}
	if !mirrored {
		return rawTokens(ts)
	}

	out := &bytes.Buffer{}
	for i, side := range sides {
		if i > 0 {
			out.WriteString(" / ")
		}
		out.Write(joinGroups(mirrorCorners(side)))
	}
	if len(bang) > 0 {
		out.WriteByte(' ')
		out.Write(joinGroups(bang))
	}
	return out.Bytes()
}

// mirrorCorners maps top-left/top-right/bottom-right/bottom-left radii to
// their horizontally mirrored positions.
func mirrorCorners(gs [][]token) [][]token {
	switch len(gs) {
	case 2:
		return [][]token{gs[1], gs[0]}
	case 3:
		return [][]token{gs[1], gs[0], gs[1], gs[2]}
	case 4:
		return [][]token{gs[1], gs[0], gs[3], gs[2]}
	default:
		return gs
	}
}

func negated(data []byte) []byte {
	s := string(data)
	f, err := strconv.ParseFloat(strings.TrimRight(s, "%abcdefghijklmnopqrstuvwxyz"), 64)
	if err == nil && f == 0 {
		return data
	}
	if strings.HasPrefix(s, "-") {
		return []byte(s[1:])
	}
	return []byte("-" + s)
}

// negateTranslateX negates the X component of translate functions inside a
// transform list.
func negateTranslateX(ts []token) []byte {
	out := &bytes.Buffer{}
	pendingNegate := false
	for _, t := range ts {
		if pendingNegate {
			switch t.tt {
			case css.WhitespaceToken:
				// keep scanning
			case css.NumberToken, css.DimensionToken, css.PercentageToken:
				out.Write(negated(t.data))
				pendingNegate = false
				continue
			default:
				pendingNegate = false
			}
		}
		if t.tt == css.FunctionToken {
			switch strings.ToLower(strings.TrimSuffix(string(t.data), "(")) {
			case "translatex", "translate", "translate3d":
				pendingNegate = true
			}
		}
		out.Write(t.data)
	}
	return out.Bytes()
}

// flipPosition mirrors the horizontal component of background-position:
// keyword swap, or percentage complement.
func flipPosition(ts []token) []byte {
	gs, bang := splitBang(groups(ts))
	changed := false
	if len(gs) > 0 {
		first := gs[0]
		if len(first) == 1 {
			switch first[0].tt {
			case css.IdentToken:
				switch strings.ToLower(string(first[0].data)) {
				case "left":
					gs[0] = []token{{css.IdentToken, []byte("right")}}
					changed = true
				case "right":
					gs[0] = []token{{css.IdentToken, []byte("left")}}
					changed = true
				}
			case css.PercentageToken:
				gs[0] = []token{{css.PercentageToken, complement(first[0].data)}}
				changed = true
			case css.NumberToken:
				// the minifier collapses a left keyword or 0% to a bare 0;
				// only zero can be complemented without a unit
				if f, err := strconv.ParseFloat(string(first[0].data), 64); err == nil && f == 0 {
					gs[0] = []token{{css.PercentageToken, []byte("100%")}}
					changed = true
				}
			}
		}
	}
	if !changed {
		return rawTokens(ts)
	}
	return joinGroups(append(gs, bang...))
}

func complement(data []byte) []byte {
	f, err := strconv.ParseFloat(strings.TrimSuffix(string(data), "%"), 64)
	if err != nil {
		return data
	}
	return []byte(strconv.FormatFloat(100-f, 'f', -1, 64) + "%")
}

// negateShadows negates the X offset of each comma-separated shadow.
func negateShadows(ts []token) []byte {
	out := &bytes.Buffer{}
	depth := 0
	done := false
	for _, t := range ts {
		switch t.tt {
		case css.FunctionToken, css.LeftParenthesisToken, css.LeftBracketToken:
			depth++
		case css.RightParenthesisToken, css.RightBracketToken:
			depth--
		case css.CommaToken:
			if depth == 0 {
				done = false
			}
		case css.NumberToken, css.DimensionToken:
			if depth == 0 && !done {
				out.Write(negated(t.data))
				done = true
				continue
			}
		}
		out.Write(t.data)
	}
	return out.Bytes()
}
