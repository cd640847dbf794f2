// Package printer writes styled command output.
package printer

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"

	"github.com/colonyops/remarks/internal/core/styles"
)

const defaultWrap = 80

type ctxKey struct{}

// Printer writes lines to an output stream. Styling and markdown rendering
// are enabled only when the stream is a terminal.
type Printer struct {
	w     io.Writer
	color bool
	width int
}

// New creates a Printer for w.
func New(w io.Writer) *Printer {
	p := &Printer{w: w, width: defaultWrap}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.color = true
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			p.width = min(width, 120)
		}
	}
	return p
}

// NewContext stores p in ctx.
func NewContext(ctx context.Context, p *Printer) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// Ctx returns the Printer stored in ctx, or one writing to stdout.
func Ctx(ctx context.Context) *Printer {
	if p, ok := ctx.Value(ctxKey{}).(*Printer); ok {
		return p
	}
	return New(os.Stdout)
}

// IsTerminal reports whether output goes to a terminal.
func (p *Printer) IsTerminal() bool {
	return p.color
}

func (p *Printer) render(style lipgloss.Style, s string) string {
	if !p.color {
		return s
	}
	return style.Render(s)
}

func (p *Printer) line(s string) {
	_, _ = fmt.Fprintln(p.w, s)
}

// Printf writes an unstyled line.
func (p *Printer) Printf(format string, args ...any) {
	p.line(fmt.Sprintf(format, args...))
}

// Successf writes a line prefixed with a check mark.
func (p *Printer) Successf(format string, args ...any) {
	p.line(p.render(styles.SuccessStyle, styles.IconNotifySuccess) + " " + fmt.Sprintf(format, args...))
}

// Infof writes an informational line.
func (p *Printer) Infof(format string, args ...any) {
	p.line(p.render(styles.InfoStyle, styles.IconNotifyInfo) + " " + fmt.Sprintf(format, args...))
}

// Warnf writes a warning line.
func (p *Printer) Warnf(format string, args ...any) {
	p.line(p.render(styles.WarningStyle, styles.IconNotifyWarning) + " " + fmt.Sprintf(format, args...))
}

// Errorf writes an error line.
func (p *Printer) Errorf(format string, args ...any) {
	p.line(p.render(styles.ErrorStyle, styles.IconNotifyError) + " " + fmt.Sprintf(format, args...))
}

// Header writes a bold heading.
func (p *Printer) Header(s string) {
	p.line(p.render(styles.HeaderStyle, s))
}

// Muted writes a dimmed line.
func (p *Printer) Muted(s string) {
	p.line(p.render(styles.MutedStyle, s))
}

// Markdown writes a markdown body, rendered with glamour on a terminal and
// verbatim otherwise.
func (p *Printer) Markdown(md string) {
	if !p.color {
		p.line(strings.TrimRight(md, "\n"))
		return
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStyles(styles.GlamourStyle()),
		glamour.WithWordWrap(p.width),
	)
	if err != nil {
		log.Debug().Err(err).Msg("failed to create markdown renderer, showing raw content")
		p.line(md)
		return
	}

	rendered, err := renderer.Render(md)
	if err != nil {
		log.Debug().Err(err).Msg("failed to render markdown, showing raw content")
		p.line(md)
		return
	}
	p.line(strings.TrimRight(rendered, "\n"))
}
