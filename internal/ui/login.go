package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/returnloop/kiosk/internal/session"
)

// loginState holds the sign-in form.
type loginState struct {
	inputs   [2]textinput.Model // username, password
	focusIdx int
	busy     bool
}

func newLoginState(lastUsername string) loginState {
	var s loginState

	username := textinput.New()
	username.Placeholder = "username"
	username.CharLimit = 150
	username.SetValue(lastUsername)

	password := textinput.New()
	password.Placeholder = "password"
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'
	password.CharLimit = 128

	s.inputs[0] = username
	s.inputs[1] = password

	// A remembered username puts the cursor straight on the password.
	if lastUsername != "" {
		s.focusIdx = 1
	}
	s.inputs[s.focusIdx].Focus()
	return s
}

func (m Model) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.login.busy {
		return m, nil
	}

	switch msg.String() {
	case "tab", "down":
		m.login.focusIdx = (m.login.focusIdx + 1) % len(m.login.inputs)
		m.focusLoginInput()
		return m, nil

	case "shift+tab", "up":
		m.login.focusIdx = (m.login.focusIdx + len(m.login.inputs) - 1) % len(m.login.inputs)
		m.focusLoginInput()
		return m, nil

	case "ctrl+r":
		m.flash = ""
		m.register = newRegisterState()
		m.screen = ScreenRegister
		return m, nil

	case "enter":
		username := strings.TrimSpace(m.login.inputs[0].Value())
		password := m.login.inputs[1].Value()
		if username == "" || password == "" {
			m.setFlash("Username and password are required", true)
			return m, nil
		}
		m.flash = ""
		m.login.busy = true
		return m, m.loginCmd(username, password)
	}

	var cmd tea.Cmd
	m.login.inputs[m.login.focusIdx], cmd = m.login.inputs[m.login.focusIdx].Update(msg)
	return m, cmd
}

func (m *Model) focusLoginInput() {
	for i := range m.login.inputs {
		if i == m.login.focusIdx {
			m.login.inputs[i].Focus()
		} else {
			m.login.inputs[i].Blur()
		}
	}
}

// loginCmd exchanges credentials, stores the token pair, and reports the
// parsed claims so the root model can route by role.
func (m Model) loginCmd(username, password string) tea.Cmd {
	client, tokens, ctx := m.client, m.tokens, m.ctx
	return func() tea.Msg {
		pair, err := client.Login(ctx, username, password)
		if err != nil {
			return authMsg{err: err}
		}
		if err := tokens.SetTokens(ctx, session.Credentials{Access: pair.Access, Refresh: pair.Refresh}); err != nil {
			return authMsg{err: err}
		}
		claims, err := session.ParseClaims(pair.Access)
		if err != nil {
			return authMsg{err: err}
		}
		return authMsg{claims: claims}
	}
}

func (m Model) renderLogin() string {
	styles := m.theme.Styles()

	var b strings.Builder
	b.WriteString(styles.Logo.Render("RETURNS KIOSK"))
	b.WriteString("\n\n")
	b.WriteString(styles.Text.Render("Sign in"))
	b.WriteString("\n\n")
	b.WriteString(styles.MutedText.Render("Username"))
	b.WriteString("\n")
	b.WriteString(m.login.inputs[0].View())
	b.WriteString("\n\n")
	b.WriteString(styles.MutedText.Render("Password"))
	b.WriteString("\n")
	b.WriteString(m.login.inputs[1].View())
	b.WriteString("\n\n")

	if m.login.busy {
		b.WriteString(styles.InfoText.Render("Signing in..."))
		b.WriteString("\n")
	}
	if m.flash != "" {
		b.WriteString(m.renderFlash())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render("enter sign in  •  ctrl+r register  •  ctrl+c quit"))

	return m.centerBox(styles.Panel.Render(b.String()))
}

// centerBox centers content in the terminal when dimensions are known.
func (m Model) centerBox(content string) string {
	if m.width <= 0 || m.height <= 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m Model) renderFlash() string {
	styles := m.theme.Styles()
	if m.flashErr {
		return styles.DangerText.Render(m.flash)
	}
	return styles.SuccessText.Render(m.flash)
}
