package scss

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/dashkit/dashbuild/internal/dlogger"
)

// Compiler turns one style source file into plain CSS text.
type Compiler interface {
	Compile(path string) ([]byte, error)
}

// Error is a compile error with file and line context.
type Error struct {
	File string
	Line int
	Msg  string
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.File, e.Msg)
}

const maxImportDepth = 16

// Preprocessor compiles the SCSS subset the dashboard stylesheets use:
// variables, nested rules with &, and @import with partial resolution.
type Preprocessor struct{}

func New() *Preprocessor {
	return &Preprocessor{}
}

func (p *Preprocessor) Compile(path string) ([]byte, error) {
	dlogger.Debug("compiler", "scss", "msg", "compiling", "file", path)

	out := &bytes.Buffer{}
	vars := map[string]string{}

	err := p.compileFile(path, nil, vars, 0, out)
	if err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func (p *Preprocessor) compileFile(path string, parents []string, vars map[string]string, depth int, out *bytes.Buffer) error {
	if depth > maxImportDepth {
		return &Error{File: path, Msg: fmt.Sprintf("reached max import depth of %d, import loop ?", maxImportDepth)}
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return &Error{File: path, Msg: err.Error()}
	}

	b = replaceWindowsCarriageReturn(b)
	b = stripComments(b)

	ps := &parser{
		src:   b,
		line:  1,
		file:  path,
		vars:  vars,
		depth: depth,
		pre:   p,
	}

	err = ps.block(parents, false, out)
	if err != nil {
		return err
	}
	if ps.pos < len(ps.src) {
		return &Error{File: path, Line: ps.line, Msg: "unexpected '}'"}
	}
	return nil
}

type parser struct {
	src   []byte
	pos   int
	line  int
	file  string
	vars  map[string]string
	depth int
	pre   *Preprocessor
}

// block consumes statements until EOF or an unconsumed '}'. Declarations
// are grouped under the parent selector list and emitted before nested
// rules; bare blocks (@font-face bodies) emit declarations without a
// selector wrapper.
func (ps *parser) block(parents []string, bare bool, out *bytes.Buffer) error {
	var decls []string
	children := &bytes.Buffer{}

	flush := func() {
		if len(decls) > 0 {
			if bare {
				for _, d := range decls {
					fmt.Fprintf(out, "  %s;\n", d)
				}
			} else if len(parents) > 0 {
				out.WriteString(strings.Join(parents, ", "))
				out.WriteString(" {\n")
				for _, d := range decls {
					fmt.Fprintf(out, "  %s;\n", d)
				}
				out.WriteString("}\n")
			}
		}
		out.Write(children.Bytes())
	}

	for {
		ps.skipSpace()
		if ps.pos >= len(ps.src) || ps.src[ps.pos] == '}' {
			flush()
			return nil
		}

		startLine := ps.line
		header, term, err := ps.statement()
		if err != nil {
			return err
		}

		switch term {
		case '{':
			ps.pos++
			err = ps.rule(header, parents, startLine, children)
			if err != nil {
				return err
			}
			ps.skipSpace()
			if ps.pos >= len(ps.src) || ps.src[ps.pos] != '}' {
				return &Error{File: ps.file, Line: startLine, Msg: "unclosed block"}
			}
			ps.pos++

		default: // ';' consumed, or statement ran into '}' / EOF
			if header == "" {
				continue
			}
			switch {
			case header[0] == '$':
				err = ps.assign(header, startLine)
			case strings.HasPrefix(header, "@import"):
				err = ps.importStatement(header, parents, startLine, children)
			case header[0] == '@':
				// @charset and friends, pass through
				fmt.Fprintf(children, "%s;\n", header)
			default:
				var d string
				d, err = ps.declaration(header, startLine)
				if err == nil {
					decls = append(decls, d)
				}
			}
			if err != nil {
				return err
			}
		}
	}
}

// rule handles a braced header: a selector group or a block at-rule.
func (ps *parser) rule(header string, parents []string, line int, out *bytes.Buffer) error {
	header, err := ps.substitute(header, line)
	if err != nil {
		return err
	}

	if header != "" && header[0] == '@' {
		name := header[1:]
		for i := 0; i < len(name); i++ {
			if !('a' <= name[i] && name[i] <= 'z') && name[i] != '-' {
				name = name[:i]
				break
			}
		}
		inner := &bytes.Buffer{}
		switch name {
		case "media", "supports":
			// conditional wrapper, nested rules keep the outer selector
			err = ps.block(parents, false, inner)
		case "font-face":
			err = ps.block(nil, true, inner)
		default:
			// @keyframes and the like have their own selector namespace
			err = ps.block(nil, false, inner)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s {\n%s}\n", header, inner.Bytes())
		return nil
	}

	sels := splitTopLevel(header, ',')
	for i := range sels {
		sels[i] = strings.TrimSpace(sels[i])
	}
	return ps.block(combine(parents, sels), false, out)
}

func (ps *parser) assign(stmt string, line int) error {
	i := strings.IndexByte(stmt, ':')
	if i < 0 {
		return &Error{File: ps.file, Line: line, Msg: "malformed variable declaration " + stmt}
	}
	name := strings.TrimSpace(stmt[1:i])
	val, err := ps.substitute(strings.TrimSpace(stmt[i+1:]), line)
	if err != nil {
		return err
	}
	if strings.HasSuffix(val, "!default") {
		val = strings.TrimSpace(strings.TrimSuffix(val, "!default"))
		if _, ok := ps.vars[name]; ok {
			return nil
		}
	}
	ps.vars[name] = val
	return nil
}

func (ps *parser) declaration(stmt string, line int) (string, error) {
	i := strings.IndexByte(stmt, ':')
	if i < 0 {
		return "", &Error{File: ps.file, Line: line, Msg: "expected declaration, got " + stmt}
	}
	d, err := ps.substitute(stmt, line)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(d), nil
}

var importTargetRegexp = regexp.MustCompile(`"([^"]+)"|'([^']+)'`)

func (ps *parser) importStatement(stmt string, parents []string, line int, out *bytes.Buffer) error {
	matches := importTargetRegexp.FindAllStringSubmatch(stmt, -1)
	if len(matches) == 0 {
		return &Error{File: ps.file, Line: line, Msg: "malformed @import " + stmt}
	}

	for _, m := range matches {
		target := m[1]
		if target == "" {
			target = m[2]
		}

		if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") || strings.HasSuffix(target, ".css") {
			fmt.Fprintf(out, "@import %q;\n", target)
			continue
		}

		resolved, ok := resolveImport(ps.file, target)
		if !ok {
			return &Error{File: ps.file, Line: line, Msg: fmt.Sprintf("cannot resolve @import %q", target)}
		}

		err := ps.pre.compileFile(resolved, parents, ps.vars, ps.depth+1, out)
		if err != nil {
			return err
		}
	}
	return nil
}

// statement reads raw text up to the next top-level '{', ';' or '}'. The
// '{' and '}' terminators are left unconsumed by the caller's choice: '{'
// is reported, ';' is consumed, '}' stays for block to see.
func (ps *parser) statement() (string, byte, error) {
	start := ps.pos
	startLine := ps.line
	var quote byte
	parens := 0

	for ps.pos < len(ps.src) {
		c := ps.src[ps.pos]

		if quote != 0 {
			if c == '\\' && ps.pos+1 < len(ps.src) {
				ps.pos++
			} else if c == quote {
				quote = 0
			}
		} else {
			switch c {
			case '"', '\'':
				quote = c
			case '(', '[':
				parens++
			case ')', ']':
				parens--
			case '{', ';', '}':
				if parens == 0 {
					text := strings.TrimSpace(string(ps.src[start:ps.pos]))
					if c == ';' {
						ps.pos++
					}
					return text, c, nil
				}
			}
		}
		if c == '\n' {
			ps.line++
		}
		ps.pos++
	}

	if quote != 0 {
		return "", 0, &Error{File: ps.file, Line: startLine, Msg: "unterminated string"}
	}
	return strings.TrimSpace(string(ps.src[start:ps.pos])), 0, nil
}

func (ps *parser) skipSpace() {
	for ps.pos < len(ps.src) {
		c := ps.src[ps.pos]
		if c == '\n' {
			ps.line++
		} else if c != ' ' && c != '\t' && c != '\r' {
			return
		}
		ps.pos++
	}
}

var (
	interpRegexp = regexp.MustCompile(`#\{\$([A-Za-z0-9_-]+)\}`)
	varRegexp    = regexp.MustCompile(`\$([A-Za-z0-9_-]+)`)
)

// substitute expands #{$name} interpolations and bare $name references.
func (ps *parser) substitute(s string, line int) (string, error) {
	var missing string

	expand := func(match, name string) string {
		if v, ok := ps.vars[name]; ok {
			return v
		}
		if missing == "" {
			missing = name
		}
		return match
	}

	s = interpRegexp.ReplaceAllStringFunc(s, func(m string) string {
		return expand(m, m[3:len(m)-1])
	})
	s = varRegexp.ReplaceAllStringFunc(s, func(m string) string {
		return expand(m, m[1:])
	})

	if missing != "" {
		return "", &Error{File: ps.file, Line: line, Msg: "undefined variable $" + missing}
	}
	return s, nil
}

// combine resolves a nested selector list against its parent list, with &
// standing in for the parent selector.
func combine(parents, sels []string) []string {
	if len(parents) == 0 {
		return sels
	}
	out := make([]string, 0, len(parents)*len(sels))
	for _, s := range sels {
		for _, p := range parents {
			if strings.Contains(s, "&") {
				out = append(out, strings.ReplaceAll(s, "&", p))
			} else {
				out = append(out, p+" "+s)
			}
		}
	}
	return out
}

func splitTopLevel(s string, sep byte) []string {
	var out []string
	var quote byte
	parens := 0
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '(', '[':
			parens++
		case ')', ']':
			parens--
		case sep:
			if parens == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	return append(out, s[start:])
}

// resolveImport tries name.scss, then the _name.scss partial form, relative
// to the importing file.
func resolveImport(fromFile, name string) (string, bool) {
	name = filepath.FromSlash(name)
	dir := filepath.Dir(name)
	base := filepath.Base(name)

	var cands []string
	if filepath.Ext(base) == "" {
		cands = []string{
			filepath.Join(dir, base+".scss"),
			filepath.Join(dir, "_"+base+".scss"),
		}
	} else {
		cands = []string{
			name,
			filepath.Join(dir, "_"+base),
		}
	}

	for _, c := range cands {
		full := filepath.Join(filepath.Dir(fromFile), c)
		if f, err := os.Stat(full); err == nil && !f.IsDir() {
			return full, true
		}
	}
	return "", false
}

var windowCRregexp = regexp.MustCompile(`\r?\n`)

func replaceWindowsCarriageReturn(b []byte) []byte {
	return windowCRregexp.ReplaceAll(b, []byte("\n"))
}

// stripComments removes // line comments and /* */ block comments while
// preserving line numbering. A // inside a string or url(...) is content,
// not a comment.
func stripComments(b []byte) []byte {
	out := make([]byte, 0, len(b))
	var quote byte
	parens := 0

	for i := 0; i < len(b); i++ {
		c := b[i]

		if quote != 0 {
			if c == '\\' && i+1 < len(b) {
				out = append(out, c, b[i+1])
				i++
				continue
			}
			if c == quote {
				quote = 0
			}
			out = append(out, c)
			continue
		}

		switch {
		case c == '"' || c == '\'':
			quote = c
			out = append(out, c)
		case c == '(':
			parens++
			out = append(out, c)
		case c == ')':
			parens--
			out = append(out, c)
		case c == '/' && i+1 < len(b) && b[i+1] == '/' && parens == 0:
			for i < len(b) && b[i] != '\n' {
				i++
			}
			if i < len(b) {
				out = append(out, '\n')
			}
		case c == '/' && i+1 < len(b) && b[i+1] == '*':
			i += 2
			for i+1 < len(b) && !(b[i] == '*' && b[i+1] == '/') {
				if b[i] == '\n' {
					out = append(out, '\n')
				}
				i++
			}
			i++ // past the closing /
		default:
			out = append(out, c)
		}
	}
	return out
}
