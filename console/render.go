package console

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	infoStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("51"))
)

// Renderer writes answers, notices and errors. On a terminal, markdown is
// rendered with glamour and notices are styled; otherwise text is written
// unchanged.
type Renderer struct {
	w     io.Writer
	md    *glamour.TermRenderer
	style bool
}

// NewRenderer creates a renderer for w.
func NewRenderer(w io.Writer) *Renderer {
	r := &Renderer{w: w}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		r.style = true
		if md, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100)); err == nil {
			r.md = md
		}
	}
	return r
}

// Markdown writes a model answer.
func (r *Renderer) Markdown(text string) {
	if r.md != nil {
		if out, err := r.md.Render(text); err == nil {
			fmt.Fprint(r.w, out)
			return
		}
	}
	fmt.Fprintln(r.w, strings.TrimRight(text, "\n"))
}

// Title writes a heading line.
func (r *Renderer) Title(text string) {
	if r.style {
		text = titleStyle.Render(text)
	}
	fmt.Fprintln(r.w, text)
}

// Info writes a dimmed notice.
func (r *Renderer) Info(format string, args ...any) {
	text := fmt.Sprintf(format, args...)
	if r.style {
		text = infoStyle.Render(text)
	}
	fmt.Fprintln(r.w, text)
}

// Error writes err; the loop is expected to continue.
func (r *Renderer) Error(err error) {
	text := "error: " + err.Error()
	if r.style {
		text = errorStyle.Render(text)
	}
	fmt.Fprintln(r.w, text)
}
