package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// LoginSubmitMsg carries credentials to the root model, which performs
// the sign-in call.
type LoginSubmitMsg struct {
	Username string
	Password string
}

const (
	loginFieldUsername = iota
	loginFieldPassword
)

// LoginPage is the credential prompt shown before any fleet data loads.
type LoginPage struct {
	width  int
	height int
	styles Styles

	username textinput.Model
	password textinput.Model
	focused  int

	submitting bool
	errMsg     string
	spin       spinner.Model
}

// NewLoginPage creates the login page.
func NewLoginPage(styles Styles) *LoginPage {
	username := textinput.New()
	username.Placeholder = "username"
	username.CharLimit = 64
	username.Width = 32
	username.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.CharLimit = 128
	password.Width = 32
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	return &LoginPage{
		styles:   styles,
		username: username,
		password: password,
		spin:     sp,
	}
}

// Init starts the cursor blink.
func (p *LoginPage) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, p.spin.Tick)
}

// SetSize adjusts to the terminal size.
func (p *LoginPage) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// SetError shows a failure message and re-enables the form.
func (p *LoginPage) SetError(msg string) {
	p.errMsg = msg
	p.submitting = false
	p.password.SetValue("")
	p.focused = loginFieldUsername
	p.username.Focus()
	p.password.Blur()
}

// Reset clears the form, used after sign-out.
func (p *LoginPage) Reset() {
	p.username.SetValue("")
	p.password.SetValue("")
	p.errMsg = ""
	p.submitting = false
	p.focused = loginFieldUsername
	p.username.Focus()
	p.password.Blur()
}

// Update handles input.
func (p *LoginPage) Update(msg tea.Msg) (*LoginPage, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		p.spin, cmd = p.spin.Update(msg)
		return p, cmd

	case tea.KeyMsg:
		if p.submitting {
			return p, nil
		}

		switch msg.String() {
		case "tab", "shift+tab", "up", "down":
			if p.focused == loginFieldUsername {
				p.focused = loginFieldPassword
				p.username.Blur()
				p.password.Focus()
			} else {
				p.focused = loginFieldUsername
				p.password.Blur()
				p.username.Focus()
			}
			return p, textinput.Blink

		case "enter":
			if p.focused == loginFieldUsername {
				p.focused = loginFieldPassword
				p.username.Blur()
				p.password.Focus()
				return p, textinput.Blink
			}
			user := strings.TrimSpace(p.username.Value())
			pass := p.password.Value()
			if user == "" || pass == "" {
				p.errMsg = "Username and password are required"
				return p, nil
			}
			p.submitting = true
			p.errMsg = ""
			return p, func() tea.Msg {
				return LoginSubmitMsg{Username: user, Password: pass}
			}
		}
	}

	var cmd tea.Cmd
	if p.focused == loginFieldUsername {
		p.username, cmd = p.username.Update(msg)
	} else {
		p.password, cmd = p.password.Update(msg)
	}
	return p, cmd
}

// View renders the login form centered in the terminal.
func (p *LoginPage) View() string {
	var b strings.Builder

	b.WriteString(p.styles.Title.Render("simfleet"))
	b.WriteString("\n")
	b.WriteString(p.styles.Subtitle.Render("Sign in to manage your SIM fleet"))
	b.WriteString("\n\n")

	b.WriteString(p.styles.Bold.Render("Username") + "\n")
	b.WriteString(p.username.View() + "\n\n")
	b.WriteString(p.styles.Bold.Render("Password") + "\n")
	b.WriteString(p.password.View() + "\n\n")

	switch {
	case p.submitting:
		b.WriteString(p.spin.View() + " Signing in...\n")
	case p.errMsg != "":
		b.WriteString(p.styles.Error.Render(p.errMsg) + "\n")
	default:
		b.WriteString(p.styles.Muted.Render("enter to sign in • ctrl+c to quit") + "\n")
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.styles.Theme.Border).
		Padding(1, 3).
		Render(b.String())

	if p.width > 0 && p.height > 0 {
		return lipgloss.Place(p.width, p.height, lipgloss.Center, lipgloss.Center, box)
	}
	return box
}
