// Package style provides the shared palette and icons of pico's terminal output.
package style

import "github.com/charmbracelet/lipgloss"

// Brand Colors.
var (
	Iris   = lipgloss.Color("#8B5CF6")
	Slate  = lipgloss.Color("#667085")
	Green  = lipgloss.Color("#22A06B")
	Red    = lipgloss.Color("#D93025")
	Yellow = lipgloss.Color("#F59E0B")
)

// Icons.
const (
	Check   = "✓"
	Cross   = "✗"
	Warning = "!"
	Dot     = "●"
)

// Styles are the text styles of the report, bound to one renderer so that
// color detection follows the writer they print to.
type Styles struct {
	Path    lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Failure lipgloss.Style
}

// NewStyles builds the text styles on r.
func NewStyles(r *lipgloss.Renderer) Styles {
	return Styles{
		Path:    r.NewStyle().Bold(true),
		Muted:   r.NewStyle().Foreground(Slate),
		Success: r.NewStyle().Foreground(Green),
		Failure: r.NewStyle().Foreground(Red),
	}
}
