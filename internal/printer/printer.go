// Package printer writes styled status lines for CLI commands.
package printer

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/colonyops/margin/internal/core/styles"
)

type ctxKey struct{}

// Printer writes human readable output. Status lines go to the configured
// writer, which is stderr by default so stdout stays machine readable.
type Printer struct {
	w io.Writer
}

// New returns a printer writing to w.
func New(w io.Writer) *Printer {
	return &Printer{w: w}
}

// NewContext stores p in ctx.
func NewContext(ctx context.Context, p *Printer) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// Ctx returns the printer stored in ctx, or one writing to stderr.
func Ctx(ctx context.Context) *Printer {
	if p, ok := ctx.Value(ctxKey{}).(*Printer); ok && p != nil {
		return p
	}
	return New(os.Stderr)
}

func (p *Printer) line(s string) {
	_, _ = fmt.Fprintln(p.w, s)
}

// Printf writes an unstyled line.
func (p *Printer) Printf(format string, args ...any) {
	p.line(fmt.Sprintf(format, args...))
}

// Section writes a header line.
func (p *Printer) Section(title string) {
	p.line(styles.HeaderStyle.Render(title))
}

// Success writes a success line with a muted detail.
func (p *Printer) Success(title, detail string) {
	p.line(styles.SuccessStyle.Render(styles.IconSuccess+" "+title) + " " + styles.MutedStyle.Render(detail))
}

// Successf writes a success line.
func (p *Printer) Successf(format string, args ...any) {
	p.line(styles.SuccessStyle.Render(styles.IconSuccess + " " + fmt.Sprintf(format, args...)))
}

// Infof writes an informational line.
func (p *Printer) Infof(format string, args ...any) {
	p.line(styles.InfoStyle.Render(styles.IconInfo + " " + fmt.Sprintf(format, args...)))
}

// Warnf writes a warning line.
func (p *Printer) Warnf(format string, args ...any) {
	p.line(styles.WarningStyle.Render(styles.IconWarning + " " + fmt.Sprintf(format, args...)))
}

// Errorf writes an error line.
func (p *Printer) Errorf(format string, args ...any) {
	p.line(styles.ErrorStyle.Render(styles.IconError + " " + fmt.Sprintf(format, args...)))
}
