package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"simfleet/internal/fleet"
	"simfleet/internal/logging"
	"simfleet/internal/types"
)

// clipboardWriteAll is a variable so tests can mock clipboard access.
var clipboardWriteAll = clipboard.WriteAll

// OpenActionMsg asks the root model to open the action page for a SIM.
type OpenActionMsg struct {
	SimID int64
}

// SignOutMsg asks the root model to end the session.
type SignOutMsg struct{}

// filterMode selects which dropdown filter the arrow keys cycle.
type filterMode int

const (
	filterModeStatus filterMode = iota
	filterModeCity
	filterModeRisk
)

func (m filterMode) String() string {
	switch m {
	case filterModeStatus:
		return "status"
	case filterModeCity:
		return "city"
	case filterModeRisk:
		return "risk"
	default:
		return "unknown"
	}
}

// statusCycle and riskCycle hold the fixed filter values. Index 0 is "all"
// (no filter). City values come from the snapshot.
var statusCycle = []types.SIMStatus{"", types.StatusActive, types.StatusSuspended, types.StatusBlocked, types.StatusTerminated}
var riskCycle = []types.RiskLevel{"", types.RiskLow, types.RiskMedium, types.RiskHigh}

// FleetPage shows the SIM fleet as a filterable table with an expandable
// detail pane for the selected card.
type FleetPage struct {
	width  int
	height int
	styles Styles

	ctx   context.Context
	store *fleet.Store
	snap  fleet.Snapshot

	table      table.Model
	search     textinput.Model
	detail     viewport.Model
	spin       spinner.Model
	loading    bool
	searchMode bool

	mode        filterMode
	statusIdx   int
	cityIdx     int // index into cityValues; 0 = all
	riskIdx     int
	cityValues  []string
	displayName string
}

// NewFleetPage creates the fleet page bound to the given store. The
// context bounds background work the page kicks off (refresh, actions).
func NewFleetPage(ctx context.Context, store *fleet.Store, styles Styles, displayName string) *FleetPage {
	columns := []table.Column{
		{Title: "SIM ID", Width: 12},
		{Title: "Status", Width: 11},
		{Title: "City", Width: 14},
		{Title: "Device", Width: 16},
		{Title: "Plan", Width: 16},
		{Title: "Risk", Width: 8},
		{Title: "Anomalies", Width: 9},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	ts := table.DefaultStyles()
	ts.Header = ts.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(styles.Theme.Border).
		BorderBottom(true).
		Bold(true).
		Foreground(styles.Theme.Primary)
	ts.Selected = ts.Selected.
		Foreground(lipgloss.Color("#ffffff")).
		Background(styles.Theme.Accent).
		Bold(true)
	t.SetStyles(ts)

	search := textinput.New()
	search.Placeholder = "search id, device, city or plan..."
	search.CharLimit = 64
	search.Width = 40

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	detail := viewport.New(60, 10)

	return &FleetPage{
		styles:      styles,
		ctx:         ctx,
		store:       store,
		table:       t,
		search:      search,
		detail:      detail,
		spin:        sp,
		displayName: displayName,
	}
}

// Init starts the spinner tick.
func (p *FleetPage) Init() tea.Cmd {
	return p.spin.Tick
}

// SetSize adjusts the page to the terminal size.
func (p *FleetPage) SetSize(width, height int) {
	p.width = width
	p.height = height

	tableHeight := height - 12
	if tableHeight < 5 {
		tableHeight = 5
	}
	if p.currentSelection() != nil {
		// Split with the detail pane.
		tableHeight = tableHeight / 2
		if tableHeight < 5 {
			tableHeight = 5
		}
	}
	p.table.SetHeight(tableHeight)
	p.detail.Width = width - 6
	p.detail.Height = height - tableHeight - 14
	if p.detail.Height < 4 {
		p.detail.Height = 4
	}
}

// UpdateContent refreshes the page from a store snapshot.
func (p *FleetPage) UpdateContent(snap fleet.Snapshot) {
	p.snap = snap
	p.loading = snap.IsLoading
	p.cityValues = p.store.CityOptions()
	p.syncFilterIndexes()
	p.updateTableRows()
	if sel := p.currentSelection(); sel != nil {
		p.detail.SetContent(p.renderDetail(*sel))
	}
	p.SetSize(p.width, p.height)
}

// syncFilterIndexes realigns the cycle indexes with the store criteria so
// externally-applied filters (ClearFilters and friends) render correctly.
func (p *FleetPage) syncFilterIndexes() {
	c := p.snap.Criteria
	p.statusIdx = 0
	for i, s := range statusCycle {
		if s == c.Status {
			p.statusIdx = i
			break
		}
	}
	p.riskIdx = 0
	for i, r := range riskCycle {
		if r == c.RiskLevel {
			p.riskIdx = i
			break
		}
	}
	p.cityIdx = 0
	for i, city := range p.cityValues {
		if city == c.City {
			p.cityIdx = i + 1
			break
		}
	}
	if !p.searchMode && p.search.Value() != c.SearchText {
		p.search.SetValue(c.SearchText)
	}
}

func (p *FleetPage) updateTableRows() {
	rows := make([]table.Row, 0, len(p.snap.Filtered))
	for _, card := range p.snap.Filtered {
		riskCell := "-"
		anomalyCell := ""
		if risk := p.snap.RiskFor(card.SimID); risk != nil {
			riskCell = string(risk.RiskLevel)
			anomalyCell = fmt.Sprintf("%d", risk.AnomalyCount)
		}
		rows = append(rows, table.Row{
			card.IDString(),
			string(card.Status),
			card.City,
			card.DeviceType,
			card.PlanName(),
			riskCell,
			anomalyCell,
		})
	}
	p.table.SetRows(rows)

	// Keep the cursor on the selected card when the view reorders.
	if sel := p.snap.SelectedSimID; sel != nil {
		for i, card := range p.snap.Filtered {
			if card.SimID == *sel {
				p.table.SetCursor(i)
				break
			}
		}
	}
}

func (p *FleetPage) currentSelection() *types.SIMCard {
	if p.snap.SelectedSimID == nil {
		return nil
	}
	for i := range p.snap.Filtered {
		if p.snap.Filtered[i].SimID == *p.snap.SelectedSimID {
			return &p.snap.Filtered[i]
		}
	}
	return nil
}

// Searching reports whether the search input is capturing keystrokes.
func (p *FleetPage) Searching() bool {
	return p.searchMode
}

func (p *FleetPage) highlightedCard() *types.SIMCard {
	idx := p.table.Cursor()
	if idx < 0 || idx >= len(p.snap.Filtered) {
		return nil
	}
	return &p.snap.Filtered[idx]
}

// Update handles input.
func (p *FleetPage) Update(msg tea.Msg) (*FleetPage, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		p.spin, cmd = p.spin.Update(msg)
		return p, cmd

	case tea.KeyMsg:
		if p.searchMode {
			switch msg.String() {
			case "esc", "enter":
				p.searchMode = false
				p.search.Blur()
				return p, nil
			default:
				var cmd tea.Cmd
				p.search, cmd = p.search.Update(msg)
				p.store.SetSearchText(p.search.Value())
				return p, cmd
			}
		}

		switch msg.String() {
		case "/":
			p.searchMode = true
			p.search.Focus()
			return p, textinput.Blink

		case "tab":
			p.mode = (p.mode + 1) % 3
			return p, nil

		case "left", "h":
			p.cycleFilter(-1)
			return p, nil

		case "right", "l":
			p.cycleFilter(1)
			return p, nil

		case "x":
			p.search.SetValue("")
			p.store.ClearFilters()
			return p, nil

		case "enter":
			if card := p.highlightedCard(); card != nil {
				p.store.Select(card.SimID)
			}
			return p, nil

		case "esc":
			if p.snap.SuccessMessage != "" || p.snap.ErrorMessage != "" {
				p.store.ClearMessages()
				return p, nil
			}
			if p.snap.SelectedSimID != nil {
				p.store.ClearSelection()
				return p, nil
			}
			p.search.SetValue("")
			p.store.ClearFilters()
			return p, nil

		case "a":
			if sel := p.currentSelection(); sel != nil {
				id := sel.SimID
				return p, func() tea.Msg { return OpenActionMsg{SimID: id} }
			}
			return p, nil

		case "c":
			if sel := p.currentSelection(); sel != nil {
				if err := clipboardWriteAll(p.detailPlainText(*sel)); err != nil {
					logging.UIError("fleet: clipboard copy failed: %v", err)
				}
			}
			return p, nil

		case "r":
			p.store.LoadFleet(p.ctx)
			return p, nil

		case "Q":
			return p, func() tea.Msg { return SignOutMsg{} }
		}
	}

	var cmd tea.Cmd
	p.table, cmd = p.table.Update(msg)
	cmds = append(cmds, cmd)

	if p.currentSelection() != nil {
		p.detail, cmd = p.detail.Update(msg)
		cmds = append(cmds, cmd)
	}

	return p, tea.Batch(cmds...)
}

// cycleFilter steps the active filter mode's value and pushes it to the
// store. The store debounces the recompute.
func (p *FleetPage) cycleFilter(dir int) {
	switch p.mode {
	case filterModeStatus:
		p.statusIdx = wrap(p.statusIdx+dir, len(statusCycle))
		p.store.SetStatusFilter(statusCycle[p.statusIdx])
	case filterModeCity:
		n := len(p.cityValues) + 1 // +1 for "all"
		p.cityIdx = wrap(p.cityIdx+dir, n)
		if p.cityIdx == 0 {
			p.store.SetCityFilter("")
		} else {
			p.store.SetCityFilter(p.cityValues[p.cityIdx-1])
		}
	case filterModeRisk:
		p.riskIdx = wrap(p.riskIdx+dir, len(riskCycle))
		p.store.SetRiskFilter(riskCycle[p.riskIdx])
	}
}

func wrap(i, n int) int {
	if n <= 0 {
		return 0
	}
	return ((i % n) + n) % n
}

// View renders the fleet page.
func (p *FleetPage) View() string {
	var b strings.Builder

	title := p.styles.Title.Render("SIM Fleet")
	who := p.styles.Muted.Render("signed in as " + p.displayName)
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, title, "  ", who))
	b.WriteString("\n")

	b.WriteString(p.renderFilterBar())
	b.WriteString("\n")

	if p.loading && len(p.snap.Filtered) == 0 {
		b.WriteString("\n " + p.spin.View() + " Loading fleet...\n")
	} else if p.snap.LoadError != "" && len(p.snap.SimCards) == 0 {
		b.WriteString("\n " + p.styles.Error.Render(p.snap.LoadError) + "\n")
	} else {
		b.WriteString(p.table.View())
		b.WriteString("\n")
	}

	if sel := p.currentSelection(); sel != nil {
		b.WriteString(p.styles.RenderDivider(max(20, p.width-4)))
		b.WriteString("\n")
		b.WriteString(p.detail.View())
		b.WriteString("\n")
	}

	b.WriteString(p.renderStatusLine())
	b.WriteString("\n")
	b.WriteString(p.renderSummary())
	b.WriteString("\n")
	b.WriteString(p.styles.Footer.Render(p.helpLine()))

	return b.String()
}

func (p *FleetPage) renderFilterBar() string {
	segment := func(mode filterMode, label, value string) string {
		if value == "" {
			value = "all"
		}
		text := fmt.Sprintf("%s: %s", label, value)
		if mode == p.mode && !p.searchMode {
			return p.styles.Badge.Render(text)
		}
		return p.styles.Muted.Render(text)
	}

	city := ""
	if p.cityIdx > 0 && p.cityIdx-1 < len(p.cityValues) {
		city = p.cityValues[p.cityIdx-1]
	}

	parts := []string{
		segment(filterModeStatus, "status", string(statusCycle[p.statusIdx])),
		segment(filterModeCity, "city", city),
		segment(filterModeRisk, "risk", string(riskCycle[p.riskIdx])),
	}

	searchView := p.search.View()
	if p.searchMode {
		searchView = p.styles.Prompt.Render("/ ") + searchView
	} else {
		searchView = p.styles.Muted.Render("/ ") + searchView
	}

	return " " + strings.Join(parts, "  ") + "\n " + searchView
}

func (p *FleetPage) renderStatusLine() string {
	switch {
	case p.snap.ActionState == fleet.ActionSubmitting:
		return " " + p.spin.View() + " Submitting action..."
	case p.snap.SuccessMessage != "":
		return " " + p.styles.Success.Render(p.snap.SuccessMessage)
	case p.snap.ErrorMessage != "":
		return " " + p.styles.Error.Render(p.snap.ErrorMessage)
	case p.snap.LoadError != "" && len(p.snap.SimCards) > 0:
		return " " + p.styles.Warning.Render(p.snap.LoadError)
	case p.loading:
		return " " + p.spin.View() + " Refreshing..."
	}
	return ""
}

// renderSummary shows filtered/total counts and the per-risk breakdown of
// the visible cards.
func (p *FleetPage) renderSummary() string {
	var low, med, high int
	for _, card := range p.snap.Filtered {
		if risk := p.snap.RiskFor(card.SimID); risk != nil {
			switch risk.RiskLevel {
			case types.RiskLow:
				low++
			case types.RiskMedium:
				med++
			case types.RiskHigh:
				high++
			}
		}
	}

	counts := fmt.Sprintf(" %d of %d SIMs", len(p.snap.Filtered), len(p.snap.SimCards))
	riskPart := fmt.Sprintf("  %s %d  %s %d  %s %d",
		p.styles.RiskLow.Render("low"), low,
		p.styles.RiskMedium.Render("med"), med,
		p.styles.RiskHigh.Render("high"), high,
	)
	return p.styles.Muted.Render(counts) + riskPart
}

func (p *FleetPage) helpLine() string {
	if p.searchMode {
		return "type to search • enter/esc done"
	}
	if p.currentSelection() != nil {
		return "↑/↓ move • a action • c copy • r refresh • esc close • tab filter • / search • Q sign out • q quit"
	}
	return "↑/↓ move • enter details • tab filter • ←/→ value • / search • x clear • r refresh • Q sign out • q quit"
}

// renderDetail builds the expanded card pane.
func (p *FleetPage) renderDetail(card types.SIMCard) string {
	var b strings.Builder

	label := func(s string) string { return p.styles.Bold.Render(fmt.Sprintf("%-12s", s)) }

	b.WriteString(p.styles.Title.Render("SIM " + card.IDString()))
	b.WriteString("\n")
	b.WriteString(label("Status") + string(card.Status) + "\n")
	b.WriteString(label("City") + card.City + "\n")
	b.WriteString(label("Device") + card.DeviceType + "\n")
	b.WriteString(label("Plan") + card.PlanName() + "\n")

	if risk := p.snap.RiskFor(card.SimID); risk != nil {
		var style lipgloss.Style
		switch risk.RiskLevel {
		case types.RiskHigh:
			style = p.styles.RiskHigh
		case types.RiskMedium:
			style = p.styles.RiskMedium
		default:
			style = p.styles.RiskLow
		}
		b.WriteString(label("Risk") + style.Render(string(risk.RiskLevel)) + "\n")
		b.WriteString(label("Anomalies") + fmt.Sprintf("%d", risk.AnomalyCount) + "\n")
	} else {
		b.WriteString(label("Risk") + p.styles.Muted.Render("no assessment yet") + "\n")
	}

	return b.String()
}

// detailPlainText is the clipboard form of the detail pane.
func (p *FleetPage) detailPlainText(card types.SIMCard) string {
	var b strings.Builder
	fmt.Fprintf(&b, "SIM %s\n", card.IDString())
	fmt.Fprintf(&b, "Status: %s\n", card.Status)
	fmt.Fprintf(&b, "City: %s\n", card.City)
	fmt.Fprintf(&b, "Device: %s\n", card.DeviceType)
	fmt.Fprintf(&b, "Plan: %s\n", card.PlanName())
	if risk := p.snap.RiskFor(card.SimID); risk != nil {
		fmt.Fprintf(&b, "Risk: %s (%d anomalies)\n", risk.RiskLevel, risk.AnomalyCount)
	}
	return b.String()
}
