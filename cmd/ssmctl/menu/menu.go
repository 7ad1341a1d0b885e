// Package menu renders a numbered picker on the terminal.
package menu

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jackadi-io/ssmctl/cmd/ssmctl/style"
)

var ErrAborted = errors.New("selection aborted")
var ErrEmptyMenu = errors.New("nothing to select")

type Item struct {
	Label string
	Value string
}

// Section groups items under a title. Items are numbered across sections.
type Section struct {
	Title string
	Items []Item
}

type Menu struct {
	Title    string
	Subtitle string
	Sections []Section
}

func (m *Menu) items() []Item {
	items := []Item{}
	for _, s := range m.Sections {
		items = append(items, s.Items...)
	}
	return items
}

func (m *Menu) Render() string {
	out := style.Title(m.Title)
	if m.Subtitle != "" {
		out += style.Subtitle(m.Subtitle)
	}

	n := 0
	for _, s := range m.Sections {
		if len(s.Items) == 0 {
			continue
		}
		if s.Title != "" {
			out += style.BlockTitle(s.Title)
		}
		for _, item := range s.Items {
			n++
			out += fmt.Sprintf("  %s %s\n", style.RenderID(fmt.Sprintf("%3d", n)), item.Label)
		}
	}
	return out
}

// Select renders the menu on out and reads the choice from in until a valid
// number is entered.
//
// An empty answer, "q" or the end of input aborts with ErrAborted.
func (m *Menu) Select(in io.Reader, out io.Writer) (Item, error) {
	items := m.items()
	if len(items) == 0 {
		return Item{}, ErrEmptyMenu
	}

	style.Fprint(out, m.Render())

	reader := bufio.NewReader(in)
	for {
		_, _ = fmt.Fprintf(out, "\nSelect [1-%d, q to quit]: ", len(items))

		line, err := reader.ReadString('\n')
		answer := strings.TrimSpace(line)
		if answer == "" || strings.EqualFold(answer, "q") {
			if err != nil && !errors.Is(err, io.EOF) {
				return Item{}, fmt.Errorf("failed to read selection: %w", err)
			}
			return Item{}, ErrAborted
		}

		choice, convErr := strconv.Atoi(answer)
		if convErr == nil && choice >= 1 && choice <= len(items) {
			return items[choice-1], nil
		}
		_, _ = fmt.Fprintln(out, style.RenderError(fmt.Sprintf("invalid choice: %q", answer)))

		if err != nil {
			return Item{}, ErrAborted
		}
	}
}
