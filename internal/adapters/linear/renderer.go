// Package linear prints compilation reports as plain, line-oriented text.
package linear

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/pico/internal/compiler"
	"go.trai.ch/pico/internal/ui/output"
	"go.trai.ch/pico/internal/ui/style"
)

// Renderer implements ports.Renderer. Diagnostics are grouped by file, followed
// by one summary line.
type Renderer struct {
	mu     sync.Mutex
	out    io.Writer
	styles style.Styles
}

// NewRenderer creates a Renderer writing to w, or stdout when w is nil.
func NewRenderer(w io.Writer) *Renderer {
	if w == nil {
		w = os.Stdout
	}

	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(output.ColorProfileANSI())

	return &Renderer{
		out:    w,
		styles: style.NewStyles(r),
	}
}

// Render prints report.
func (r *Renderer) Render(report compiler.Report, elapsed time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var b strings.Builder
	for _, group := range groupByPath(report.Diagnostics) {
		b.WriteString(r.styles.Path.Render(group[0].Path))
		b.WriteByte('\n')

		width := lineWidth(group)
		for _, d := range group {
			line := "-"
			if d.Line > 0 {
				line = strconv.Itoa(d.Line)
			}
			fmt.Fprintf(&b, "  %s  %s\n", r.styles.Muted.Render(fmt.Sprintf("%*s", width, line)), d.Message)
		}
	}
	if report.HasErrors() {
		b.WriteByte('\n')
	}
	b.WriteString(r.summary(report, elapsed))
	b.WriteByte('\n')

	_, err := io.WriteString(r.out, b.String())
	return err
}

func (r *Renderer) summary(report compiler.Report, elapsed time.Duration) string {
	took := elapsed.Round(time.Millisecond)
	counts := fmt.Sprintf("%s, %s", plural(report.Files, "file"), plural(report.Definitions, "definition"))
	if !report.HasErrors() {
		return r.styles.Success.Render(style.Check) + fmt.Sprintf(" %s, no problems (%s)", counts, took)
	}
	return r.styles.Failure.Render(style.Cross) + fmt.Sprintf(" %s in %s (%s)", plural(len(report.Diagnostics), "problem"), counts, took)
}

// groupByPath splits diagnostics, already sorted by path, into runs per file.
func groupByPath(diags []compiler.Diagnostic) [][]compiler.Diagnostic {
	var groups [][]compiler.Diagnostic
	for i, d := range diags {
		if i == 0 || d.Path != diags[i-1].Path {
			groups = append(groups, nil)
		}
		groups[len(groups)-1] = append(groups[len(groups)-1], d)
	}
	return groups
}

func lineWidth(group []compiler.Diagnostic) int {
	width := 1
	for _, d := range group {
		width = max(width, len(strconv.Itoa(d.Line)))
	}
	return width
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
