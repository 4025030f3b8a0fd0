// Package report renders the bootstrap's console surface: one progress line
// per stage, warnings, the failure diagnostic, and the final instruction
// block.
package report

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"envboot/internal/pipeline"
)

// Printer writes human-readable progress to a single output stream. It
// implements pipeline.Observer so stage lines appear exactly when stages
// start and finish.
type Printer struct {
	out io.Writer

	ok    lipgloss.Style
	warn  lipgloss.Style
	fail  lipgloss.Style
	skip  lipgloss.Style
	head  lipgloss.Style
	faint lipgloss.Style
}

// NewPrinter creates a Printer. With noColor set the renderer is pinned to
// the ASCII profile, so output stays plain regardless of terminal support.
func NewPrinter(out io.Writer, noColor bool) *Printer {
	r := lipgloss.NewRenderer(out)
	if noColor {
		r.SetColorProfile(termenv.Ascii)
	}
	return &Printer{
		out:   out,
		ok:    r.NewStyle().Foreground(lipgloss.Color("10")),
		warn:  r.NewStyle().Foreground(lipgloss.Color("11")),
		fail:  r.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		skip:  r.NewStyle().Faint(true),
		head:  r.NewStyle().Bold(true),
		faint: r.NewStyle().Faint(true),
	}
}

// Headerf prints a bold leading line.
func (p *Printer) Headerf(format string, args ...any) {
	fmt.Fprintln(p.out, p.head.Render(fmt.Sprintf(format, args...)))
}

// StageStarted implements pipeline.Observer.
func (p *Printer) StageStarted(index, total int, stage pipeline.Stage) {
	fmt.Fprintf(p.out, "[%d/%d] %s...\n", index+1, total, stage.Title)
}

// StageFinished implements pipeline.Observer.
func (p *Printer) StageFinished(index, total int, stage pipeline.Stage, status pipeline.Status, err error) {
	prefix := fmt.Sprintf("[%d/%d]", index+1, total)
	switch status {
	case pipeline.StageCompleted:
		fmt.Fprintf(p.out, "%s %s %s\n", prefix, p.ok.Render("ok"), stage.Title)
	case pipeline.StageWarned:
		fmt.Fprintf(p.out, "%s %s %s: %v\n", prefix, p.warn.Render("warning"), stage.Title, err)
	case pipeline.StageFailed:
		fmt.Fprintf(p.out, "%s %s %s failed: %v\n", prefix, p.fail.Render("error"), stage.Name, err)
	default:
		fmt.Fprintf(p.out, "%s %s %s\n", prefix, p.skip.Render("skipped"), stage.Title)
	}
}

// Warningf prints a standalone warning line outside stage flow.
func (p *Printer) Warningf(format string, args ...any) {
	fmt.Fprintf(p.out, "%s %s\n", p.warn.Render("warning:"), fmt.Sprintf(format, args...))
}

// Instructions prints the fixed follow-up block: how to activate the
// environment manually, how to launch the backend, and how to stop it.
func (p *Printer) Instructions(activate, run, stop string) {
	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, p.head.Render("Environment ready. Next steps:"))
	fmt.Fprintf(p.out, "  1. Activate the environment:  %s\n", activate)
	fmt.Fprintf(p.out, "  2. Start the backend:         %s\n", run)
	fmt.Fprintf(p.out, "  3. Stop it with %s\n", p.faint.Render(stop))
}
