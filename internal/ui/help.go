package ui

import (
	"fmt"
	"strings"
)

// renderHelp draws the key reference overlay. Any key closes it.
func (m Model) renderHelp() string {
	styles := m.theme.Styles()

	sections := []struct {
		title string
		keys  []struct{ key, desc string }
	}{
		{"Dashboard", []struct{ key, desc string }{
			{"n", "New return request"},
			{"/", "Filter (user) or search (admin)"},
			{"f", "Cycle status filter"},
			{"enter", "Review request (admin)"},
			{"j/k", "Move selection"},
			{"g/G", "Top / bottom"},
		}},
		{"Wizard", []struct{ key, desc string }{
			{"ctrl+s", "Scan barcode / submit"},
			{"ctrl+b", "Back (keeps barcode)"},
			{"ctrl+x", "Remove last file"},
		}},
		{"General", []struct{ key, desc string }{
			{"L", "Kiosk log"},
			{"T", "Cycle theme"},
			{"O", "Sign out"},
			{"e", "Exit"},
			{"ctrl+c", "Exit"},
		}},
	}

	var b strings.Builder
	b.WriteString(styles.AccentText.Render("Key reference"))
	b.WriteString("\n\n")
	for _, section := range sections {
		b.WriteString(styles.Text.Render(section.title))
		b.WriteString("\n")
		for _, k := range section.keys {
			b.WriteString(fmt.Sprintf("  %s %s\n",
				styles.InfoText.Render(fmt.Sprintf("%-8s", k.key)),
				styles.MutedText.Render(k.desc)))
		}
		b.WriteString("\n")
	}
	b.WriteString(styles.FaintText.Render("press any key to close"))

	return m.centerBox(styles.PanelFocus.Render(b.String()))
}
