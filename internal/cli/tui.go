package cli

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// ObjectListModel - Interactive object selection
// =============================================================================

// objectRow is one entry in the inspect list.
type objectRow struct {
	Class    int64
	Type     string
	Fields   int
	Pointers int
	Root     bool
}

// ObjectSelection holds the result of the object selection.
type ObjectSelection struct {
	Row objectRow
}

// ObjectListModel is the bubbletea model for interactive object selection.
type ObjectListModel struct {
	File     int64
	Rows     []objectRow
	Cursor   int
	Selected *ObjectSelection
	Height   int
	Offset   int
}

// NewObjectListModel creates a new object list model.
func NewObjectListModel(file int64, rows []objectRow) ObjectListModel {
	return ObjectListModel{
		File:   file,
		Rows:   rows,
		Cursor: 0,
		Height: 15,
		Offset: 0,
	}
}

func (m ObjectListModel) Init() tea.Cmd {
	return nil
}

func (m ObjectListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Rows)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			row := m.Rows[m.Cursor]
			m.Selected = &ObjectSelection{Row: row}
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m ObjectListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(fmt.Sprintf("File %d - Select Root Object", m.File)))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	end := m.Offset + m.Height
	if end > len(m.Rows) {
		end = len(m.Rows)
	}

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		r := m.Rows[i]

		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}

		root := ""
		if r.Root {
			root = "✓"
		}

		rows = append(rows, []string{
			cursor,
			strconv.FormatInt(r.Class, 10),
			r.Type,
			strconv.Itoa(r.Fields),
			strconv.Itoa(r.Pointers),
			root,
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Class", "Type", "Fields", "Pointers", "Root").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}

			actualIdx := m.Offset + row
			if actualIdx >= len(m.Rows) {
				return lipgloss.NewStyle()
			}
			r := m.Rows[actualIdx]
			isCurrent := actualIdx == m.Cursor

			if isCurrent {
				if r.Root {
					return lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
				}
				return listSelectedStyle
			}
			if r.Root {
				return lipgloss.NewStyle().Foreground(colorGreen)
			}
			return listNormalStyle
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Rows))))

	return b.String()
}
