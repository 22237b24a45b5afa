package main

import (
	"context"
	"errors"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"simfleet/cmd/simfleet/ui"
	"simfleet/internal/api"
	"simfleet/internal/auth"
	"simfleet/internal/config"
	"simfleet/internal/fleet"
	"simfleet/internal/logging"
)

type viewMode int

const (
	viewLogin viewMode = iota
	viewFleet
	viewAction
	viewHelp
)

// Messages pumped into the Bubble Tea loop from background work.
type (
	storeChangedMsg struct{}
	authChangedMsg  struct{ authenticated bool }
	loginResultMsg  struct {
		session *api.Session
		err     error
	}
)

// appModel is the root model: it owns the session lifecycle and routes
// messages to the active page.
type appModel struct {
	ctx    context.Context
	cancel context.CancelFunc

	cfg    *config.Config
	styles ui.Styles

	client *api.Client
	auth   *auth.Service
	store  *fleet.Store

	storeCh    <-chan struct{}
	storeUnsub func()
	authCh     chan bool
	authUnsub  func()

	login      *ui.LoginPage
	fleetPage  *ui.FleetPage
	actionPage *ui.ActionPage
	help       *ui.HelpPage

	view     viewMode
	prevView viewMode

	width  int
	height int

	shutdownOnce sync.Once
}

func newAppModel(cfg *config.Config) *appModel {
	ctx, cancel := context.WithCancel(context.Background())
	styles := ui.DefaultStyles()
	if cfg.UI.DarkMode {
		styles = ui.NewStyles(ui.DarkTheme())
	}

	client := api.NewClient(api.ClientConfig{
		BaseURL: cfg.API.BaseURL,
		Token:   cfg.API.Token,
		Timeout: cfg.GetAPITimeout(),
	})

	authSvc := auth.NewService()

	store := fleet.NewStore(fleet.StoreConfig{
		API:               client,
		Auth:              authSvc,
		FilterDebounce:    cfg.GetFilterDebounce(),
		MaxConcurrentRisk: cfg.Enrichment.MaxConcurrent,
	})

	storeCh, storeUnsub := store.Subscribe()

	m := &appModel{
		ctx:        ctx,
		cancel:     cancel,
		cfg:        cfg,
		styles:     styles,
		client:     client,
		auth:       authSvc,
		store:      store,
		storeCh:    storeCh,
		storeUnsub: storeUnsub,
		authCh:     make(chan bool, 4),
		login:      ui.NewLoginPage(styles),
		help:       ui.NewHelpPage(styles),
		view:       viewLogin,
	}

	m.authUnsub = authSvc.Subscribe(func(authenticated bool) {
		select {
		case m.authCh <- authenticated:
		default:
		}
	})

	return m
}

// Init starts the background message pumps.
func (m *appModel) Init() tea.Cmd {
	return tea.Batch(
		m.login.Init(),
		m.waitForStore(),
		m.waitForAuth(),
	)
}

// waitForStore blocks on the store notify channel and converts ticks
// into Bubble Tea messages.
func (m *appModel) waitForStore() tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-m.storeCh; !ok {
			return nil
		}
		return storeChangedMsg{}
	}
}

func (m *appModel) waitForAuth() tea.Cmd {
	return func() tea.Msg {
		v, ok := <-m.authCh
		if !ok {
			return nil
		}
		return authChangedMsg{authenticated: v}
	}
}

// Shutdown tears down background work exactly once.
func (m *appModel) Shutdown() {
	m.shutdownOnce.Do(func() {
		m.cancel()
		m.store.Shutdown()
		m.storeUnsub()
		m.authUnsub()
		logging.CloseAll()
	})
}

// Update routes messages.
func (m *appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.login.SetSize(msg.Width, msg.Height)
		m.help.SetSize(msg.Width, msg.Height)
		if m.fleetPage != nil {
			m.fleetPage.SetSize(msg.Width, msg.Height)
		}
		if m.actionPage != nil {
			m.actionPage.SetSize(msg.Width, msg.Height)
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.Shutdown()
			return m, tea.Quit
		case "q":
			if m.view == viewFleet && !m.fleetPage.Searching() {
				m.Shutdown()
				return m, tea.Quit
			}
		case "?":
			if m.view == viewFleet && !m.fleetPage.Searching() {
				m.prevView = m.view
				m.view = viewHelp
				return m, nil
			}
		}

	case storeChangedMsg:
		if m.fleetPage != nil {
			m.fleetPage.UpdateContent(m.store.Snapshot())
		}
		return m, m.waitForStore()

	case authChangedMsg:
		if msg.authenticated {
			m.fleetPage = ui.NewFleetPage(m.ctx, m.store, m.styles, m.auth.DisplayName())
			m.fleetPage.SetSize(m.width, m.height)
			m.fleetPage.UpdateContent(m.store.Snapshot())
			m.view = viewFleet
			m.store.LoadFleet(m.ctx)
			return m, tea.Batch(m.fleetPage.Init(), m.waitForAuth())
		}
		m.view = viewLogin
		m.login.Reset()
		return m, tea.Batch(m.login.Init(), m.waitForAuth())

	case ui.LoginSubmitMsg:
		return m, m.doLogin(msg.Username, msg.Password)

	case loginResultMsg:
		if msg.err != nil {
			if errors.Is(msg.err, api.ErrUnauthorized) {
				m.login.SetError("Invalid username or password")
			} else {
				m.login.SetError("Could not reach the server. Try again.")
			}
			logging.Session("login failed: %v", msg.err)
			logging.Audit().Record(logging.AuditEvent{
				EventType: logging.AuditLoginFailed,
				Message:   msg.err.Error(),
			})
			return m, nil
		}
		m.auth.SignIn(msg.session)
		return m, nil

	case ui.OpenActionMsg:
		m.actionPage = ui.NewActionPage(m.styles, msg.SimID)
		m.actionPage.SetSize(m.width, m.height)
		m.view = viewAction
		return m, m.actionPage.Init()

	case ui.CloseActionMsg:
		m.view = viewFleet
		return m, m.fleetPage.Init()

	case ui.ActionSubmitMsg:
		if err := m.store.SubmitAction(m.ctx, msg.Kind, msg.SimIDs, msg.Reason); err != nil {
			m.actionPage.SetError(err.Error())
			return m, nil
		}
		m.view = viewFleet
		return m, m.fleetPage.Init()

	case ui.CloseHelpMsg:
		m.view = m.prevView
		if m.view == viewFleet && m.fleetPage != nil {
			return m, m.fleetPage.Init()
		}
		return m, nil

	case ui.SignOutMsg:
		m.auth.SignOut()
		return m, nil
	}

	var cmd tea.Cmd
	switch m.view {
	case viewLogin:
		m.login, cmd = m.login.Update(msg)
	case viewFleet:
		m.fleetPage, cmd = m.fleetPage.Update(msg)
	case viewAction:
		m.actionPage, cmd = m.actionPage.Update(msg)
	case viewHelp:
		m.help, cmd = m.help.Update(msg)
	}
	return m, cmd
}

// doLogin performs the sign-in call off the UI loop.
func (m *appModel) doLogin(username, password string) tea.Cmd {
	ctx := m.ctx
	client := m.client
	return func() tea.Msg {
		session, err := client.Login(ctx, username, password)
		return loginResultMsg{session: session, err: err}
	}
}

// View renders the active page.
func (m *appModel) View() string {
	switch m.view {
	case viewFleet:
		if m.fleetPage != nil {
			return m.fleetPage.View()
		}
	case viewAction:
		if m.actionPage != nil {
			return m.actionPage.View()
		}
	case viewHelp:
		return m.help.View()
	}
	return m.login.View()
}

// runInteractive starts the TUI.
func runInteractive(cfg *config.Config) error {
	model := newAppModel(cfg)
	defer model.Shutdown()

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	_, err := p.Run()
	return err
}
