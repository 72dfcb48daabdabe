package shell

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"

	"github.com/talgya/civica/internal/nation"
)

const recentEventCount = 3

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// RenderStatus formats the country overview: header, resources, a city
// table, law titles and the latest events.
func RenderStatus(s nation.Snapshot) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n", titleStyle.Render(fmt.Sprintf("==== %s - Year %d ====", s.Name, s.Year)))
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Description:"), s.Description)
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Total Population:"), humanize.Comma(int64(s.Population)))
	fmt.Fprintf(&b, "%s food %s | money %s | tech %s | reputation %d\n",
		labelStyle.Render("Resources:"),
		humanize.Comma(int64(s.Resources.Food)),
		humanize.Comma(int64(s.Resources.Money)),
		humanize.Comma(int64(s.Resources.Tech)),
		s.Resources.Reputation,
	)

	b.WriteString(labelStyle.Render("Cities:"))
	b.WriteString("\n")
	if len(s.Cities) == 0 {
		b.WriteString(" (none)\n")
	} else {
		b.WriteString(cityTable(s.Cities))
		b.WriteString("\n")
	}

	titles := make([]string, len(s.Laws))
	for i, l := range s.Laws {
		titles[i] = l.Title
	}
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Laws:"), listOrNone(titles))

	recent := s.RecentEvents(recentEventCount)
	descs := make([]string, len(recent))
	for i, e := range recent {
		descs[i] = e.Description
	}
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Recent Events:"), listOrNone(descs))
	b.WriteString(strings.Repeat("=", 34))
	b.WriteString("\n")
	return b.String()
}

func cityTable(cities []nation.City) string {
	rows := make([][]string, 0, len(cities))
	for _, c := range cities {
		rows = append(rows, []string{
			c.Name,
			humanize.Comma(int64(c.Population)),
			fmt.Sprintf("%d", c.Economy),
			fmt.Sprintf("%d", c.Crime),
			fmt.Sprintf("%d", c.Happiness),
			strings.Join(c.Features, ", "),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderHeader(true).
		BorderRow(false).
		Headers("City", "Pop", "Econ", "Crime", "Happy", "Features").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	return t.Render()
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return strings.Join(items, "; ")
}
