// Package diag renders compiler diagnostics and runtime errors for the CLI,
// the ambient presentation layer SPEC_FULL §"Ambient stack" calls for:
// colored when the terminal supports it (github.com/muesli/termenv, named in
// the retrieved corpus's dependency sets), plain otherwise.
package diag

import (
	"fmt"
	"strings"

	"github.com/muesli/termenv"
	"github.com/pkg/errors"

	"github.com/akadjoker/budiv/internal/compiler"
	"github.com/akadjoker/budiv/internal/vm"
)

// Renderer formats diagnostics for one output stream, honoring a color
// profile decided once at startup (respects NO_COLOR / non-tty via termenv's
// own detection, or the CLI's `-color` override).
type Renderer struct {
	profile termenv.Profile
}

func NewRenderer(forceColor *bool) *Renderer {
	p := termenv.ColorProfile()
	if forceColor != nil {
		if *forceColor {
			p = termenv.ANSI256
		} else {
			p = termenv.Ascii
		}
	}
	return &Renderer{profile: p}
}

func (r *Renderer) style(s string) termenv.Style {
	return termenv.String(s).Foreground(r.profile.Color("9"))
}

func (r *Renderer) styleNote(s string) termenv.Style {
	return termenv.String(s).Foreground(r.profile.Color("11"))
}

// Compile renders every compile-time Diagnostic (§7) as one
// "file:N: error: msg" entry per line, the "error:" prefix in red when
// colors are enabled.
func (r *Renderer) Compile(filename string, diags []compiler.Diagnostic) string {
	var b strings.Builder
	for _, d := range diags {
		prefix := r.style("error:").String()
		fmt.Fprintf(&b, "%s:%d: %s %v\n", filename, d.Line, prefix, d.Err)
	}
	return b.String()
}

// Runtime renders one process crash (§7: a RuntimeError carries the process
// id/name and the source line of the failing instruction).
func (r *Renderer) Runtime(err *vm.RuntimeError) string {
	prefix := r.style("runtime error:").String()
	return fmt.Sprintf("%s process %d (%s) line %d: %v\n", prefix, err.ProcessID, err.ProcessName, err.Line, errors.Cause(err.Cause))
}

// Note renders a non-fatal host message (e.g. a config fallback) in yellow.
func (r *Renderer) Note(msg string) string {
	return r.styleNote("note:").String() + " " + msg + "\n"
}
