package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"simfleet/internal/types"
)

// ActionSubmitMsg carries a confirmed bulk action to the root model.
type ActionSubmitMsg struct {
	SimIDs []int64
	Kind   types.ActionKind
	Reason string
}

// CloseActionMsg returns to the fleet page without submitting.
type CloseActionMsg struct{}

// ActionPage collects an action kind and a mandatory reason for the
// selected SIM card.
type ActionPage struct {
	width  int
	height int
	styles Styles

	simID int64
	kinds []types.ActionKind
	idx   int

	reason      textinput.Model
	reasonFocus bool
	errMsg      string
}

// NewActionPage creates the action page for one SIM card.
func NewActionPage(styles Styles, simID int64) *ActionPage {
	reason := textinput.New()
	reason.Placeholder = "reason (required, audited)"
	reason.CharLimit = 200
	reason.Width = 48

	return &ActionPage{
		styles: styles,
		simID:  simID,
		kinds:  types.AllActionKinds(),
		reason: reason,
	}
}

// Init is a no-op; focus starts on the kind list.
func (p *ActionPage) Init() tea.Cmd {
	return nil
}

// SetSize adjusts to the terminal size.
func (p *ActionPage) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// SetError surfaces a validation failure from the dispatcher.
func (p *ActionPage) SetError(msg string) {
	p.errMsg = msg
}

// Update handles input.
func (p *ActionPage) Update(msg tea.Msg) (*ActionPage, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return p, nil
	}

	if p.reasonFocus {
		switch keyMsg.String() {
		case "esc":
			p.reasonFocus = false
			p.reason.Blur()
			return p, nil
		case "enter":
			return p.submit()
		default:
			var cmd tea.Cmd
			p.reason, cmd = p.reason.Update(keyMsg)
			return p, cmd
		}
	}

	switch keyMsg.String() {
	case "esc":
		return p, func() tea.Msg { return CloseActionMsg{} }
	case "up", "k":
		if p.idx > 0 {
			p.idx--
		}
		return p, nil
	case "down", "j":
		if p.idx < len(p.kinds)-1 {
			p.idx++
		}
		return p, nil
	case "tab", "i":
		p.reasonFocus = true
		p.reason.Focus()
		return p, textinput.Blink
	case "enter":
		return p.submit()
	}

	return p, nil
}

func (p *ActionPage) submit() (*ActionPage, tea.Cmd) {
	reason := strings.TrimSpace(p.reason.Value())
	if reason == "" {
		p.errMsg = "A reason is required"
		p.reasonFocus = true
		p.reason.Focus()
		return p, textinput.Blink
	}

	kind := p.kinds[p.idx]
	simID := p.simID
	return p, func() tea.Msg {
		return ActionSubmitMsg{SimIDs: []int64{simID}, Kind: kind, Reason: reason}
	}
}

// View renders the action form.
func (p *ActionPage) View() string {
	var b strings.Builder

	b.WriteString(p.styles.Title.Render(fmt.Sprintf("Action on SIM %d", p.simID)))
	b.WriteString("\n")

	for i, kind := range p.kinds {
		cursor := "  "
		line := string(kind)
		if i == p.idx {
			cursor = p.styles.Prompt.Render("> ")
			if !p.reasonFocus {
				line = p.styles.Bold.Render(line)
			}
		}
		if kind == types.ActionTerminate {
			line += p.styles.Error.Render("  (irreversible)")
		}
		b.WriteString(cursor + line + "\n")
	}

	b.WriteString("\n")
	b.WriteString(p.styles.Bold.Render("Reason") + "\n")
	b.WriteString(p.reason.View() + "\n\n")

	if p.errMsg != "" {
		b.WriteString(p.styles.Error.Render(p.errMsg) + "\n")
	}

	b.WriteString(p.styles.Muted.Render("↑/↓ choose • tab reason • enter submit • esc cancel"))

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
