package style

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jackadi-io/ssmctl/internal/apierror"
)

var ColorYellow = lipgloss.Color("#e9a015")
var ColorRed = lipgloss.Color("#d0523c")
var ColorGreen = lipgloss.Color("#00aa00")
var ColorDarkRed = lipgloss.Color("#aa0000")
var ColorGray = lipgloss.Color("#888888")
var ColorBlack = lipgloss.Color("#111111")

var H1Style = lipgloss.NewStyle().Background(ColorYellow).Foreground(ColorBlack).Bold(true)
var H2Style = lipgloss.NewStyle().Foreground(ColorYellow).Bold(true)
var BlockStyle = lipgloss.NewStyle().MarginLeft(4)
var EmphStyle = lipgloss.NewStyle().Foreground(ColorRed).Italic(true)
var SubtitleStyle = lipgloss.NewStyle().Foreground(ColorGray).Italic(true)
var SuccessStyle = lipgloss.NewStyle().Foreground(ColorGreen).Bold(true)
var ErrorStyle = lipgloss.NewStyle().Foreground(ColorDarkRed).Bold(true)
var IdStyle = lipgloss.NewStyle().Foreground(ColorYellow).Bold(true)
var ColumnStyle = lipgloss.NewStyle().PaddingRight(2)

func Title(in string) string {
	in = fmt.Sprintf(" %s ", in)
	return fmt.Sprintf("\n%s\n", H1Style.Render(in))
}

func BlockTitle(in string) string {
	in = fmt.Sprintf("→ %s:", in)
	return fmt.Sprintf("\n%s\n", H2Style.Render(in))
}

func InlineBlockTitle(in string) string {
	in = fmt.Sprintf("→ %s:", in)
	return fmt.Sprintf("\n%s ", H2Style.Render(in))
}

func Block(in string) string {
	return BlockStyle.Render(strings.Trim(in, "\n"))
}

func Emph(in string) string {
	return EmphStyle.Render(in)
}

func Item(in string) string {
	return fmt.Sprintf(" • %s\n", in)
}

func Subtitle(in string) string {
	return fmt.Sprintf("\n%s\n", SubtitleStyle.Render(in))
}

func RenderSuccess(in string) string {
	return SuccessStyle.Render(in)
}

func RenderError(in string) string {
	return ErrorStyle.Render(in)
}

func RenderID(in string) string {
	return IdStyle.Render(in)
}

// Status renders a response code and its status label, green when the code
// is zero.
func Status(code int, label string) string {
	line := fmt.Sprintf("%d (%s)", code, label)
	if code != 0 {
		return RenderError(line)
	}
	return RenderSuccess(line)
}

// Columns renders rows with left aligned columns.
func Columns(rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}

	widths := []int{}
	for _, row := range rows {
		for i, cell := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		cells := make([]string, 0, len(row))
		for i, cell := range row {
			if i == len(row)-1 {
				cells = append(cells, cell)
				continue
			}
			cells = append(cells, ColumnStyle.Width(widths[i]+ColumnStyle.GetPaddingRight()).Render(cell))
		}
		lines = append(lines, strings.TrimRight(lipgloss.JoinHorizontal(lipgloss.Top, cells...), " "))
	}
	return strings.Join(lines, "\n") + "\n"
}

func Fprint(w io.Writer, in string) {
	_, _ = fmt.Fprintln(w, strings.TrimRight(in, "\n"))
}

func PrettyPrint(in string) {
	Fprint(os.Stdout, in)
}

// ErrorMessage is the message displayed to the operator for err.
func ErrorMessage(err error) string {
	if errors.Is(err, apierror.ErrNotAuthorized) {
		return "Not authorized"
	}
	return err.Error()
}
