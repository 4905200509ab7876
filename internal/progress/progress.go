// Package progress renders engine progress events as line-oriented output.
package progress

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/conn-castle/patchup/internal/apply"
	"github.com/conn-castle/patchup/internal/messages"
	"github.com/conn-castle/patchup/internal/pkgfile"
)

// Renderer writes one line per entry as the engine reaches it, plus a byte
// summary for entries large enough to report byte progress. Output stays
// line-oriented so it reads the same in a terminal and in captured logs.
type Renderer struct {
	out      io.Writer
	quiet    bool
	lastPath string
	verb     map[pkgfile.State]string
}

// NewRenderer creates a renderer writing to out. When quiet is set, Handle
// drops everything.
func NewRenderer(out io.Writer, quiet bool) *Renderer {
	return &Renderer{
		out:   out,
		quiet: quiet,
		verb: map[pkgfile.State]string{
			pkgfile.StateNew:      color.GreenString("add"),
			pkgfile.StateModified: color.YellowString("patch"),
			pkgfile.StateDeleted:  color.RedString("delete"),
		},
	}
}

// Handle consumes one engine event.
func (r *Renderer) Handle(event apply.ProgressEvent) {
	if r.quiet {
		return
	}
	if event.Path != r.lastPath {
		r.lastPath = event.Path
		verb := r.verb[event.State]
		if verb == "" {
			verb = string(event.State)
		}
		fmt.Fprintf(r.out, messages.ProgressEntryFmt, event.Index+1, event.Total, verb, event.Path)
	}
	if event.BytesTotal > 0 && event.BytesDone == event.BytesTotal {
		fmt.Fprintf(r.out, messages.ProgressBytesFmt,
			humanize.Bytes(uint64(event.BytesDone)), humanize.Bytes(uint64(event.BytesTotal)))
	}
}
