package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/returnloop/kiosk/internal/api"
)

// adminState holds the staff dashboard: statistics, server-side search,
// and the status-update modal.
type adminState struct {
	searchInput textinput.Model
	searching   bool // search input focused
	results     []api.ReturnRequest
	hasResults  bool // a server search is active
	selectedRow int
	modal       *statusModal
}

// statusModal is the approve/reject dialog for one request.
type statusModal struct {
	item       api.ReturnRequest
	status     string
	notesInput textinput.Model
	busy       bool
}

func newAdminState() adminState {
	search := textinput.New()
	search.Placeholder = "search barcode, username, email"
	search.CharLimit = 100
	return adminState{searchInput: search}
}

// adminRequests returns the rows currently shown: server search results
// when a search is active, the polled snapshot otherwise.
func (m Model) adminRequests() []api.ReturnRequest {
	if m.admin.hasResults {
		return m.admin.results
	}
	return m.snapshot.Requests
}

func (m Model) handleAdminDashboardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.admin.modal != nil {
		return m.handleStatusModalKey(msg)
	}

	if m.admin.searching {
		switch msg.String() {
		case "enter":
			m.admin.searching = false
			m.admin.searchInput.Blur()
			query := strings.TrimSpace(m.admin.searchInput.Value())
			if query == "" {
				m.admin.hasResults = false
				m.admin.results = nil
				return m, nil
			}
			return m, m.searchCmd(query)
		case "esc":
			m.admin.searching = false
			m.admin.searchInput.Blur()
			m.admin.searchInput.SetValue("")
			m.admin.hasResults = false
			m.admin.results = nil
			m.admin.selectedRow = 0
			return m, nil
		}
		var cmd tea.Cmd
		m.admin.searchInput, cmd = m.admin.searchInput.Update(msg)
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

	case "/":
		m.admin.searching = true
		m.admin.searchInput.Focus()
		return m, nil

	case "esc":
		if m.admin.hasResults {
			m.admin.searchInput.SetValue("")
			m.admin.hasResults = false
			m.admin.results = nil
			m.admin.selectedRow = 0
		}
		return m, nil

	case "enter":
		items := m.adminRequests()
		if m.admin.selectedRow < len(items) {
			m.openStatusModal(items[m.admin.selectedRow])
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
		if n := len(m.adminRequests()); m.admin.selectedRow < n-1 {
			m.admin.selectedRow++
		}
		return m, nil
	case "k", "up":
		if m.admin.selectedRow > 0 {
			m.admin.selectedRow--
		}
		return m, nil
	case "g", "home":
		m.admin.selectedRow = 0
		return m, nil
	case "G", "end":
		if n := len(m.adminRequests()); n > 0 {
			m.admin.selectedRow = n - 1
		}
		return m, nil
	}

	return m, nil
}

func (m *Model) openStatusModal(item api.ReturnRequest) {
	notes := textinput.New()
	notes.Placeholder = "notes for the customer (optional)"
	notes.CharLimit = 500
	notes.SetValue(item.AdminNotes)
	notes.Focus()
	m.admin.modal = &statusModal{
		item:       item,
		status:     api.StatusApproved,
		notesInput: notes,
	}
}

func (m Model) handleStatusModalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	modal := m.admin.modal
	if modal.busy {
		return m, nil
	}

	switch msg.String() {
	case "esc":
		m.admin.modal = nil
		return m, nil

	case "left", "right":
		modal.status = nextModalStatus(modal.status, msg.String() == "right")
		return m, nil

	case "enter":
		modal.busy = true
		return m, m.updateStatusCmd(modal.item.ID, modal.status, modal.notesInput.Value())
	}

	var cmd tea.Cmd
	modal.notesInput, cmd = modal.notesInput.Update(msg)
	return m, cmd
}

// nextModalStatus cycles approved ↔ rejected ↔ pending.
func nextModalStatus(current string, forward bool) string {
	order := []string{api.StatusApproved, api.StatusRejected, api.StatusPending}
	for i, s := range order {
		if s == current {
			if forward {
				return order[(i+1)%len(order)]
			}
			return order[(i+len(order)-1)%len(order)]
		}
	}
	return order[0]
}

// Messages

type searchResultMsg struct {
	items []api.ReturnRequest
	err   error
}

type statusUpdatedMsg struct {
	updated *api.ReturnRequest
	err     error
}

// Commands

func (m Model) searchCmd(query string) tea.Cmd {
	client, ctx := m.client, m.ctx
	return func() tea.Msg {
		items, err := client.ListReturns(ctx, query)
		return searchResultMsg{items: items, err: err}
	}
}

func (m Model) updateStatusCmd(id int64, status, notes string) tea.Cmd {
	client, ctx := m.client, m.ctx
	return func() tea.Msg {
		updated, err := client.UpdateStatus(ctx, id, status, notes)
		return statusUpdatedMsg{updated: updated, err: err}
	}
}

func (m Model) handleSearchResult(msg searchResultMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.setFlash(errorMessage(msg.err), true)
		return m, nil
	}
	m.admin.results = msg.items
	m.admin.hasResults = true
	m.admin.selectedRow = 0
	m.setFlash(fmt.Sprintf("%d matching requests", len(msg.items)), false)
	return m, nil
}

func (m Model) handleStatusUpdated(msg statusUpdatedMsg) (tea.Model, tea.Cmd) {
	if m.admin.modal != nil {
		m.admin.modal.busy = false
	}
	if msg.err != nil {
		m.setFlash(errorMessage(msg.err), true)
		return m, nil
	}
	m.admin.modal = nil
	if msg.updated != nil {
		m.setFlash(fmt.Sprintf("Request #%d marked %s", msg.updated.ID, msg.updated.Status), false)
		// Patch the search results in place; the next poll refreshes the
		// snapshot on its own.
		for i, item := range m.admin.results {
			if item.ID == msg.updated.ID {
				m.admin.results[i] = *msg.updated
			}
		}
	}
	return m, nil
}

func (m Model) renderAdminDashboard() string {
	styles := m.theme.Styles()
	items := m.adminRequests()

	var b strings.Builder
	b.WriteString(m.renderDashboardHeader("ADMIN"))
	b.WriteString("\n")

	// Statistics row
	if stats := m.snapshot.Stats; stats != nil {
		b.WriteString(strings.Join([]string{
			styles.MutedText.Render("Total: ") + styles.Text.Render(fmt.Sprintf("%d", stats.TotalRequests)),
			styles.MutedText.Render("Pending: ") + styles.WarningText.Render(fmt.Sprintf("%d", stats.Pending)),
			styles.MutedText.Render("Approved: ") + styles.SuccessText.Render(fmt.Sprintf("%d", stats.Approved)),
			styles.MutedText.Render("Rejected: ") + styles.DangerText.Render(fmt.Sprintf("%d", stats.Rejected)),
		}, "  "))
		b.WriteString("\n")
	}

	// Search bar
	if m.admin.searching || m.admin.searchInput.Value() != "" {
		b.WriteString(styles.MutedText.Render("Search: ") + m.admin.searchInput.View())
	} else {
		b.WriteString(styles.FaintText.Render("Press / to search all requests"))
	}
	b.WriteString("\n\n")

	if len(items) == 0 {
		b.WriteString(styles.MutedText.Render("No return requests."))
		b.WriteString("\n")
	} else {
		b.WriteString(m.renderRequestTable(items, m.admin.selectedRow, true))
		if m.admin.selectedRow < len(items) {
			b.WriteString("\n")
			b.WriteString(m.renderRequestDetail(items[m.admin.selectedRow]))
		}
	}

	b.WriteString("\n")
	b.WriteString(m.renderDashboardFooter("enter review  •  / search  •  L logs  •  O sign out  •  e quit  •  ? help"))

	if m.admin.modal != nil {
		return m.renderStatusModal()
	}
	return b.String()
}

func (m Model) renderStatusModal() string {
	styles := m.theme.Styles()
	modal := m.admin.modal

	var b strings.Builder
	b.WriteString(styles.AccentText.Render(fmt.Sprintf("Review request #%d", modal.item.ID)))
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render("Barcode: ") + styles.Text.Render(modal.item.Barcode))
	b.WriteString("\n\n")

	b.WriteString(styles.MutedText.Render("Decision: "))
	for _, s := range []string{api.StatusApproved, api.StatusRejected, api.StatusPending} {
		label := " " + strings.ToUpper(s) + " "
		if s == modal.status {
			b.WriteString(styles.StatusStyle(s).Render(label))
		} else {
			b.WriteString(styles.FaintText.Render(label))
		}
		b.WriteString(" ")
	}
	b.WriteString("\n\n")
	b.WriteString(styles.MutedText.Render("Notes"))
	b.WriteString("\n")
	b.WriteString(modal.notesInput.View())
	b.WriteString("\n\n")

	if modal.busy {
		b.WriteString(styles.InfoText.Render("Saving..."))
		b.WriteString("\n")
	}
	if m.flash != "" && m.flashErr {
		b.WriteString(m.renderFlash())
		b.WriteString("\n")
	}
	b.WriteString(styles.FaintText.Render("←/→ decision  •  enter save  •  esc cancel"))

	return m.centerBox(styles.PanelFocus.Render(b.String()))
}
