package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/returnloop/kiosk/internal/api"
	"github.com/returnloop/kiosk/internal/draft"
)

// wizardState holds the two-step submission flow: barcode first, then
// evidence files.
type wizardState struct {
	draft        *draft.Draft
	barcodeInput textinput.Model
	fileInput    textinput.Model
	busy         bool
	fieldErrors  []draft.ValidationError
}

func newWizardState() wizardState {
	barcode := textinput.New()
	barcode.Placeholder = "product barcode"
	barcode.CharLimit = 100
	barcode.Focus()

	file := textinput.New()
	file.Placeholder = "path to photo or video"
	file.CharLimit = 512

	return wizardState{
		draft:        draft.New(),
		barcodeInput: barcode,
		fileInput:    file,
	}
}

// startWizard opens a fresh draft.
func (m *Model) startWizard() {
	m.flash = ""
	m.wizard = newWizardState()
	m.screen = ScreenWizard
}

// dashboardScreen is where leaving the wizard lands, by role.
func (m Model) dashboardScreen() Screen {
	if m.claims.IsStaff {
		return ScreenAdmin
	}
	return ScreenUser
}

func (m Model) handleWizardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.wizard.busy {
		return m, nil
	}

	if m.wizard.draft.Step == draft.StepBarcode {
		return m.handleWizardBarcodeKey(msg)
	}
	return m.handleWizardMediaKey(msg)
}

func (m Model) handleWizardBarcodeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.screen = m.dashboardScreen()
		return m, nil

	case "ctrl+s":
		return m.startScanner()

	case "enter":
		m.wizard.draft.Barcode = m.wizard.barcodeInput.Value()
		if err := m.wizard.draft.Next(); err != nil {
			var vErr draft.ValidationError
			message := err.Error()
			if ok := asValidation(err, &vErr); ok {
				message = vErr.Message
			}
			m.setFlash(message, true)
			return m, nil
		}
		m.flash = ""
		m.wizard.barcodeInput.Blur()
		m.wizard.fileInput.Focus()
		return m, nil
	}

	var cmd tea.Cmd
	m.wizard.barcodeInput, cmd = m.wizard.barcodeInput.Update(msg)
	return m, cmd
}

func (m Model) handleWizardMediaKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.screen = m.dashboardScreen()
		return m, nil

	case "ctrl+b":
		// Back keeps the barcode and any attachments
		m.wizard.draft.Back()
		m.wizard.barcodeInput.SetValue(m.wizard.draft.Barcode)
		m.wizard.fileInput.Blur()
		m.wizard.barcodeInput.Focus()
		m.flash = ""
		return m, nil

	case "ctrl+x":
		m.wizard.draft.RemoveFile(len(m.wizard.draft.Attachments) - 1)
		return m, nil

	case "enter":
		path := strings.TrimSpace(m.wizard.fileInput.Value())
		if path == "" {
			return m, nil
		}
		if err := m.wizard.draft.AddFile(path); err != nil {
			m.setFlash(err.Error(), true)
			return m, nil
		}
		m.flash = ""
		m.wizard.fileInput.SetValue("")
		return m, nil

	case "ctrl+s":
		// Validation is local; no request is made until it passes.
		m.wizard.fieldErrors = m.wizard.draft.Validate()
		if len(m.wizard.fieldErrors) > 0 {
			return m, nil
		}
		m.wizard.busy = true
		return m, m.submitDraftCmd(m.wizard.draft.Barcode, m.wizard.draft.FilePaths())
	}

	var cmd tea.Cmd
	m.wizard.fileInput, cmd = m.wizard.fileInput.Update(msg)
	return m, cmd
}

func asValidation(err error, target *draft.ValidationError) bool {
	vErr, ok := err.(draft.ValidationError)
	if ok {
		*target = vErr
	}
	return ok
}

// Messages

type submitResultMsg struct {
	created *api.ReturnRequest
	err     error
}

// Commands

func (m Model) submitDraftCmd(barcode string, paths []string) tea.Cmd {
	client, ctx := m.client, m.ctx
	return func() tea.Msg {
		created, err := client.CreateReturn(ctx, barcode, paths)
		return submitResultMsg{created: created, err: err}
	}
}

// handleSubmitResult discards the draft only when the server accepted it;
// a rejection keeps everything for correction.
func (m Model) handleSubmitResult(msg submitResultMsg) (tea.Model, tea.Cmd) {
	m.wizard.busy = false
	if msg.err != nil {
		m.setFlash(errorMessage(msg.err), true)
		return m, nil
	}
	m.screen = m.dashboardScreen()
	m.wizard = newWizardState()
	if msg.created != nil {
		m.setFlash(fmt.Sprintf("Return request #%d submitted", msg.created.ID), false)
	}
	return m, nil
}

func (m Model) renderWizard() string {
	if m.wizard.draft.Step == draft.StepBarcode {
		return m.renderWizardBarcode()
	}
	return m.renderWizardMedia()
}

func (m Model) renderWizardBarcode() string {
	styles := m.theme.Styles()

	var b strings.Builder
	b.WriteString(styles.AccentText.Render("New return · step 1 of 2"))
	b.WriteString("\n\n")
	b.WriteString(styles.Text.Render("Scan the product barcode, or type it in."))
	b.WriteString("\n\n")
	b.WriteString(styles.MutedText.Render("Barcode"))
	b.WriteString("\n")
	b.WriteString(m.wizard.barcodeInput.View())
	b.WriteString("\n\n")

	if m.flash != "" {
		b.WriteString(m.renderFlash())
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render("ctrl+s scan with camera  •  enter next  •  esc cancel"))

	return m.centerBox(styles.Panel.Render(b.String()))
}

func (m Model) renderWizardMedia() string {
	styles := m.theme.Styles()
	d := m.wizard.draft

	var b strings.Builder
	b.WriteString(styles.AccentText.Render("New return · step 2 of 2"))
	b.WriteString("\n\n")
	b.WriteString(styles.MutedText.Render("Barcode: ") + styles.Text.Render(d.Barcode))
	b.WriteString("\n\n")

	b.WriteString(styles.MutedText.Render("Evidence files"))
	b.WriteString("\n")
	if len(d.Attachments) == 0 {
		b.WriteString(styles.FaintText.Render("  none attached yet"))
		b.WriteString("\n")
	}
	for _, a := range d.Attachments {
		b.WriteString(styles.Text.Render(fmt.Sprintf("  [%s] %s (%s)", a.Kind, a.Name(), formatBytes(a.Size))))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render("Add file"))
	b.WriteString("\n")
	b.WriteString(m.wizard.fileInput.View())
	b.WriteString("\n\n")

	for _, fe := range m.wizard.fieldErrors {
		b.WriteString(styles.DangerText.Render(fe.Message))
		b.WriteString("\n")
	}
	if m.wizard.busy {
		b.WriteString(styles.InfoText.Render("Uploading..."))
		b.WriteString("\n")
	}
	if m.flash != "" {
		b.WriteString(m.renderFlash())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render("enter add file  •  ctrl+x remove last  •  ctrl+s submit  •  ctrl+b back  •  esc cancel"))

	return m.centerBox(styles.Panel.Render(b.String()))
}
