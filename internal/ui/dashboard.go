package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/returnloop/kiosk/internal/api"
)

// dashState holds the user dashboard: the signed-in user's own requests
// with purely local filtering.
type dashState struct {
	filterInput  textinput.Model
	filtering    bool   // filter input focused
	statusFilter string // api.FilterAll or a concrete status
	selectedRow  int
}

func newDashState() dashState {
	filter := textinput.New()
	filter.Placeholder = "filter by barcode"
	filter.CharLimit = 64
	return dashState{
		filterInput:  filter,
		statusFilter: api.FilterAll,
	}
}

// visibleRequests applies the barcode and status filters to the latest
// snapshot. Both filters are local; the server is not involved.
func (m Model) visibleRequests() []api.ReturnRequest {
	return api.FilterReturns(m.snapshot.Requests, m.dash.filterInput.Value(), m.dash.statusFilter)
}

func (m Model) handleUserDashboardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.dash.filtering {
		switch msg.String() {
		case "enter":
			m.dash.filtering = false
			m.dash.filterInput.Blur()
			m.dash.selectedRow = 0
			return m, nil
		case "esc":
			m.dash.filtering = false
			m.dash.filterInput.Blur()
			m.dash.filterInput.SetValue("")
			m.dash.selectedRow = 0
			return m, nil
		}
		var cmd tea.Cmd
		m.dash.filterInput, cmd = m.dash.filterInput.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "e":
		return m, tea.Quit

	case "h", "?":
		m.showHelp = true
		return m, nil

	case "T":
		m.cycleTheme()
		return m, nil

	case "n":
		m.startWizard()
		return m, nil

	case "/":
		m.dash.filtering = true
		m.dash.filterInput.Focus()
		return m, nil

	case "f":
		m.dash.statusFilter = nextStatusFilter(m.dash.statusFilter)
		m.dash.selectedRow = 0
		return m, nil

	case "esc":
		if m.dash.filterInput.Value() != "" {
			m.dash.filterInput.SetValue("")
			m.dash.selectedRow = 0
		}
		return m, nil

	case "L":
		m.openLogs()
		return m, m.readLogsCmd()

	case "O":
		_ = m.tokens.Clear(m.ctx)
		m.signOutLocal("Signed out")
		return m, nil

	case "j", "down":
		if n := len(m.visibleRequests()); m.dash.selectedRow < n-1 {
			m.dash.selectedRow++
		}
		return m, nil
	case "k", "up":
		if m.dash.selectedRow > 0 {
			m.dash.selectedRow--
		}
		return m, nil
	case "g", "home":
		m.dash.selectedRow = 0
		return m, nil
	case "G", "end":
		if n := len(m.visibleRequests()); n > 0 {
			m.dash.selectedRow = n - 1
		}
		return m, nil
	}

	return m, nil
}

// nextStatusFilter cycles all → pending → approved → rejected → all.
func nextStatusFilter(current string) string {
	switch current {
	case api.FilterAll:
		return api.StatusPending
	case api.StatusPending:
		return api.StatusApproved
	case api.StatusApproved:
		return api.StatusRejected
	default:
		return api.FilterAll
	}
}

func (m Model) renderUserDashboard() string {
	styles := m.theme.Styles()
	items := m.visibleRequests()

	var b strings.Builder
	b.WriteString(m.renderDashboardHeader("MY RETURNS"))
	b.WriteString("\n")

	// Filter bar
	filterLabel := styles.MutedText.Render("Status: ") + styles.AccentText.Render(statusFilterLabel(m.dash.statusFilter))
	if m.dash.filtering || m.dash.filterInput.Value() != "" {
		b.WriteString(filterLabel + "  " + m.dash.filterInput.View())
	} else {
		b.WriteString(filterLabel)
	}
	b.WriteString("\n\n")

	if len(items) == 0 {
		if len(m.snapshot.Requests) == 0 {
			b.WriteString(styles.MutedText.Render("No return requests yet. Press n to start one."))
		} else {
			b.WriteString(styles.MutedText.Render("No requests match the current filters."))
		}
		b.WriteString("\n")
	} else {
		b.WriteString(m.renderRequestTable(items, m.dash.selectedRow, false))
		if m.dash.selectedRow < len(items) {
			b.WriteString("\n")
			b.WriteString(m.renderRequestDetail(items[m.dash.selectedRow]))
		}
	}

	b.WriteString("\n")
	b.WriteString(m.renderDashboardFooter("n new  •  / filter  •  f status  •  L logs  •  O sign out  •  e quit  •  ? help"))
	return b.String()
}

// renderRequestTable renders requests as rows; withUser adds the
// submitting user column for the admin view.
func (m Model) renderRequestTable(items []api.ReturnRequest, selected int, withUser bool) string {
	styles := m.theme.Styles()

	var b strings.Builder
	header := fmt.Sprintf("  %-6s %-20s %-10s %-17s %s", "ID", "BARCODE", "STATUS", "CREATED", "FILES")
	if withUser {
		header = fmt.Sprintf("  %-6s %-20s %-16s %-10s %-17s %s", "ID", "BARCODE", "USER", "STATUS", "CREATED", "FILES")
	}
	b.WriteString(styles.FaintText.Render(header))
	b.WriteString("\n")

	for i, item := range items {
		created := ""
		if t := item.ParsedCreatedAt(); !t.IsZero() {
			created = t.Local().Format("2006-01-02 15:04")
		}
		var row string
		if withUser {
			user := ""
			if item.UserDetails != nil {
				user = item.UserDetails.Username
			}
			row = fmt.Sprintf("  %-6d %-20s %-16s %-10s %-17s %d",
				item.ID, truncate(item.Barcode, 20), truncate(user, 16), item.Status, created, len(item.MediaFiles))
		} else {
			row = fmt.Sprintf("  %-6d %-20s %-10s %-17s %d",
				item.ID, truncate(item.Barcode, 20), item.Status, created, len(item.MediaFiles))
		}
		if i == selected {
			b.WriteString(styles.Selected.Render(row))
		} else {
			b.WriteString(styles.Text.Render(row))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// renderRequestDetail shows the selected request including its media and
// any staff notes.
func (m Model) renderRequestDetail(item api.ReturnRequest) string {
	styles := m.theme.Styles()

	var b strings.Builder
	b.WriteString(styles.AccentText.Render(fmt.Sprintf("Request #%d", item.ID)))
	b.WriteString("  ")
	b.WriteString(styles.StatusStyle(item.Status).Render(strings.ToUpper(item.Status)))
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render("Barcode: ") + styles.Text.Render(item.Barcode))
	b.WriteString("\n")

	if item.UserDetails != nil {
		user := item.UserDetails.Username
		if item.UserDetails.FullName != "" {
			user = fmt.Sprintf("%s (%s)", item.UserDetails.FullName, item.UserDetails.Username)
		}
		b.WriteString(styles.MutedText.Render("Submitted by: ") + styles.Text.Render(user))
		b.WriteString("\n")
	}
	if t := item.ParsedUpdatedAt(); !t.IsZero() {
		b.WriteString(styles.MutedText.Render("Updated: ") + styles.Text.Render(t.Local().Format("2006-01-02 15:04:05")))
		b.WriteString("\n")
	}
	if len(item.MediaFiles) > 0 {
		b.WriteString(styles.MutedText.Render("Media:"))
		b.WriteString("\n")
		for _, mf := range item.MediaFiles {
			b.WriteString(styles.FaintText.Render(fmt.Sprintf("  [%s] %s", mf.MediaType, mf.FileURL)))
			b.WriteString("\n")
		}
	}
	if item.AdminNotes != "" {
		b.WriteString(styles.WarningText.Render("Notes: " + item.AdminNotes))
		b.WriteString("\n")
	}
	return styles.Panel.Render(strings.TrimRight(b.String(), "\n"))
}

// renderDashboardHeader renders the title line with connection state.
func (m Model) renderDashboardHeader(title string) string {
	styles := m.theme.Styles()

	who := m.claims.Username
	if m.snapshot.HasProfile && m.snapshot.Profile.Username != "" {
		who = m.snapshot.Profile.Username
	}

	parts := []string{
		styles.Logo.Render("RETURNS KIOSK"),
		styles.AccentText.Render(title),
		styles.MutedText.Render(who),
	}

	if m.snapshot.IsOffline() {
		parts = append(parts, styles.DangerText.Render("● OFFLINE"))
	} else if !m.snapshot.LastUpdated.IsZero() {
		parts = append(parts, styles.FaintText.Render("updated "+humanizeDuration(time.Since(m.snapshot.LastUpdated))+" ago"))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, strings.Join(parts, "  "))
}

func (m Model) renderDashboardFooter(keys string) string {
	styles := m.theme.Styles()
	out := styles.Footer.Render(keys)
	if m.flash != "" {
		out += "\n" + m.renderFlash()
	}
	return out
}

func statusFilterLabel(filter string) string {
	if filter == api.FilterAll {
		return "All"
	}
	return strings.ToUpper(filter[:1]) + filter[1:]
}
