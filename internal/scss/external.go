package scss

import (
	"bytes"
	"os/exec"
	"strings"

	"github.com/dashkit/dashbuild/internal/dlogger"
)

// ExternalCompiler shells out to a dart-sass binary for projects that need
// the full SCSS language rather than the built-in subset.
type ExternalCompiler struct {
	Binary string // defaults to "sass" on PATH
}

func (c *ExternalCompiler) Compile(path string) ([]byte, error) {
	bin := c.Binary
	if bin == "" {
		bin = "sass"
	}

	dlogger.Debug("compiler", "dart-sass", "msg", "compiling", "file", path, "binary", bin)

	var stdout, stderr bytes.Buffer
	cmd := exec.Command(bin, "--no-source-map", "--style=expanded", path)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, &Error{File: path, Msg: msg}
	}
	return stdout.Bytes(), nil
}
