package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/returnloop/kiosk/internal/api"
	"github.com/returnloop/kiosk/internal/session"
)

// Registration form field order.
const (
	regUsername = iota
	regEmail
	regFirstName
	regLastName
	regPassword
	regConfirm
	regFieldCount
)

// registerState holds the account-creation form.
type registerState struct {
	inputs   [regFieldCount]textinput.Model
	focusIdx int
	busy     bool
}

func newRegisterState() registerState {
	var s registerState

	labels := [regFieldCount]string{
		"username", "email (optional)", "first name (optional)",
		"last name (optional)", "password", "confirm password",
	}
	for i, label := range labels {
		in := textinput.New()
		in.Placeholder = label
		in.CharLimit = 150
		if i == regPassword || i == regConfirm {
			in.EchoMode = textinput.EchoPassword
			in.EchoCharacter = '•'
		}
		s.inputs[i] = in
	}
	s.inputs[regUsername].Focus()
	return s
}

func (m Model) handleRegisterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.register.busy {
		return m, nil
	}

	switch msg.String() {
	case "esc":
		m.flash = ""
		m.screen = ScreenLogin
		return m, nil

	case "tab", "down":
		m.register.focusIdx = (m.register.focusIdx + 1) % regFieldCount
		m.focusRegisterInput()
		return m, nil

	case "shift+tab", "up":
		m.register.focusIdx = (m.register.focusIdx + regFieldCount - 1) % regFieldCount
		m.focusRegisterInput()
		return m, nil

	case "enter":
		return m.submitRegistration()
	}

	var cmd tea.Cmd
	m.register.inputs[m.register.focusIdx], cmd = m.register.inputs[m.register.focusIdx].Update(msg)
	return m, cmd
}

func (m *Model) focusRegisterInput() {
	for i := range m.register.inputs {
		if i == m.register.focusIdx {
			m.register.inputs[i].Focus()
		} else {
			m.register.inputs[i].Blur()
		}
	}
}

func (m Model) submitRegistration() (tea.Model, tea.Cmd) {
	username := strings.TrimSpace(m.register.inputs[regUsername].Value())
	password := m.register.inputs[regPassword].Value()
	confirm := m.register.inputs[regConfirm].Value()

	switch {
	case username == "":
		m.setFlash("Username is required", true)
		return m, nil
	case password == "":
		m.setFlash("Password is required", true)
		return m, nil
	case password != confirm:
		m.setFlash("Passwords do not match", true)
		return m, nil
	}

	m.flash = ""
	m.register.busy = true
	reg := api.RegisterRequest{
		Username:  username,
		Email:     strings.TrimSpace(m.register.inputs[regEmail].Value()),
		Password:  password,
		FirstName: strings.TrimSpace(m.register.inputs[regFirstName].Value()),
		LastName:  strings.TrimSpace(m.register.inputs[regLastName].Value()),
	}
	return m, m.registerCmd(reg)
}

// registerCmd creates the account and stores the token pair from the
// response, so registration doubles as sign-in.
func (m Model) registerCmd(reg api.RegisterRequest) tea.Cmd {
	client, tokens, ctx := m.client, m.tokens, m.ctx
	return func() tea.Msg {
		created, err := client.Register(ctx, reg)
		if err != nil {
			return authMsg{err: err}
		}
		if err := tokens.SetTokens(ctx, session.Credentials{Access: created.Access, Refresh: created.Refresh}); err != nil {
			return authMsg{err: err}
		}
		claims, err := session.ParseClaims(created.Access)
		if err != nil {
			return authMsg{err: err}
		}
		return authMsg{claims: claims}
	}
}

func (m Model) renderRegister() string {
	styles := m.theme.Styles()

	var b strings.Builder
	b.WriteString(styles.Logo.Render("RETURNS KIOSK"))
	b.WriteString("\n\n")
	b.WriteString(styles.Text.Render("Create account"))
	b.WriteString("\n\n")

	labels := [regFieldCount]string{
		"Username", "Email", "First name", "Last name", "Password", "Confirm password",
	}
	for i := range m.register.inputs {
		b.WriteString(styles.MutedText.Render(labels[i]))
		b.WriteString("\n")
		b.WriteString(m.register.inputs[i].View())
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if m.register.busy {
		b.WriteString(styles.InfoText.Render("Creating account..."))
		b.WriteString("\n")
	}
	if m.flash != "" {
		b.WriteString(m.renderFlash())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render("enter create  •  esc back to sign in"))

	return m.centerBox(styles.Panel.Render(b.String()))
}
