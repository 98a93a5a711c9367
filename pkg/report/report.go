// Package report renders diagnostics for the terminal.
package report

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"lockwalk/pkg/analyzer"
)

var (
	badgeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("1")).
			Bold(true).
			Padding(0, 1)
	internalBadgeStyle = badgeStyle.
				Background(lipgloss.Color("5"))
	funcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6"))
	stateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("3"))
)

// Printer writes diagnostics to a stream, one record per line, never
// interleaving fields of different records.
type Printer struct {
	w      io.Writer
	cat    *analyzer.Catalog
	styled bool
}

// NewPrinter returns a printer. With styled set, records are colored
// with lipgloss; otherwise they are plain text.
func NewPrinter(w io.Writer, cat *analyzer.Catalog, styled bool) *Printer {
	return &Printer{w: w, cat: cat, styled: styled}
}

// Print writes one diagnostic.
func (p *Printer) Print(d analyzer.Diagnostic) {
	kind := d.Kind.String()
	fn := fmt.Sprintf("%s()", d.Function)
	state := d.StateString(p.cat)
	if p.styled {
		badge := badgeStyle
		if d.Kind == analyzer.Internal {
			badge = internalBadgeStyle
		}
		kind = badge.Render(kind)
		fn = funcStyle.Render(fn)
		state = stateStyle.Render(state)
	}
	fmt.Fprintf(p.w, "%s:%d: %s %s %s [%s]\n", d.File, d.Line, fn, kind, d.Reason, state)
}

// PrintAll writes a batch of diagnostics in order.
func (p *Printer) PrintAll(diags []analyzer.Diagnostic) {
	for _, d := range diags {
		p.Print(d)
	}
}
