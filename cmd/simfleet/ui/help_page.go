package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
)

// CloseHelpMsg returns to the previous page.
type CloseHelpMsg struct{}

const helpMarkdown = `# simfleet

Interactive client for SIM fleet management.

## Fleet view

| Key | Action |
|-----|--------|
| ` + "`↑/↓`" + ` | Move through the list |
| ` + "`enter`" + ` | Expand the highlighted SIM |
| ` + "`esc`" + ` | Collapse details / clear filters |
| ` + "`/`" + ` | Search by id, device, city or plan |
| ` + "`tab`" + ` | Switch active filter (status, city, risk) |
| ` + "`←/→`" + ` | Cycle the active filter's value |
| ` + "`x`" + ` | Clear all filters |
| ` + "`a`" + ` | Run an action on the expanded SIM |
| ` + "`c`" + ` | Copy SIM details to the clipboard |
| ` + "`r`" + ` | Reload the fleet |
| ` + "`Q`" + ` | Sign out |
| ` + "`q`" + ` | Quit |

## Risk

Each SIM is assessed in the background after the fleet loads. Cards
without an assessment show a dash; filtering by risk only matches
assessed cards.

## Actions

Every action needs a reason. Actions are audited under
` + "`~/.simfleet/audit.log`" + `.
`

// HelpPage renders the key reference as markdown in a scrollable view.
type HelpPage struct {
	width    int
	height   int
	styles   Styles
	viewport viewport.Model
}

// NewHelpPage creates the help page.
func NewHelpPage(styles Styles) *HelpPage {
	vp := viewport.New(80, 20)
	p := &HelpPage{styles: styles, viewport: vp}
	p.render(80)
	return p
}

func (p *HelpPage) render(width int) {
	var renderer *glamour.TermRenderer
	if p.styles.Theme.IsDark {
		renderer, _ = glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
		)
	} else {
		renderer, _ = glamour.NewTermRenderer(
			glamour.WithStylePath("light"),
			glamour.WithWordWrap(width),
		)
	}

	out := helpMarkdown
	if renderer != nil {
		if md, err := renderer.Render(helpMarkdown); err == nil {
			out = md
		}
	}
	p.viewport.SetContent(out)
}

// Init is a no-op.
func (p *HelpPage) Init() tea.Cmd {
	return nil
}

// SetSize adjusts to the terminal size and re-renders the markdown.
func (p *HelpPage) SetSize(width, height int) {
	p.width = width
	p.height = height
	p.viewport.Width = width - 4
	p.viewport.Height = height - 4
	wrap := width - 8
	if wrap < 40 {
		wrap = 40
	}
	p.render(wrap)
}

// Update handles input; any close key returns to the previous page.
func (p *HelpPage) Update(msg tea.Msg) (*HelpPage, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc", "?", "q":
			return p, func() tea.Msg { return CloseHelpMsg{} }
		}
	}
	var cmd tea.Cmd
	p.viewport, cmd = p.viewport.Update(msg)
	return p, cmd
}

// View renders the help page.
func (p *HelpPage) View() string {
	var b strings.Builder
	b.WriteString(p.viewport.View())
	b.WriteString("\n")
	b.WriteString(p.styles.Footer.Render("↑/↓ scroll • esc close"))
	return b.String()
}
