package ui

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"simfleet/internal/api"
	"simfleet/internal/auth"
	"simfleet/internal/fleet"
	"simfleet/internal/types"
)

// fakeService backs the store in page tests.
type fakeService struct {
	mu    sync.Mutex
	fleet []types.SIMCard
	risks map[int64]*types.RiskAssessment
}

func (f *fakeService) Login(ctx context.Context, username, password string) (*api.Session, error) {
	return &api.Session{Token: "t", Username: username}, nil
}

func (f *fakeService) GetFleet(ctx context.Context) ([]types.SIMCard, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]types.SIMCard, len(f.fleet))
	copy(out, f.fleet)
	return out, nil
}

func (f *fakeService) GetRiskAssessment(ctx context.Context, simID int64) (*types.RiskAssessment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.risks[simID], nil
}

func (f *fakeService) PerformBulkAction(ctx context.Context, req types.BulkActionRequest) (*types.BulkActionResponse, error) {
	return &types.BulkActionResponse{Status: true}, nil
}

func newTestFleetPage(t *testing.T) (*FleetPage, *fleet.Store) {
	t.Helper()

	svc := &fakeService{
		fleet: []types.SIMCard{
			{SimID: 42, Status: types.StatusActive, City: "Istanbul", DeviceType: "tracker", Plan: &types.Plan{PlanName: "Gold IoT"}},
			{SimID: 7, Status: types.StatusActive, City: "Ankara", DeviceType: "modem"},
		},
		risks: map[int64]*types.RiskAssessment{
			42: {SimID: 42, RiskLevel: types.RiskHigh, AnomalyCount: 9},
		},
	}

	authSvc := auth.NewService()
	authSvc.SignIn(&api.Session{Token: "t", Username: "operator"})

	store := fleet.NewStore(fleet.StoreConfig{
		API:            svc,
		Auth:           authSvc,
		FilterDebounce: 5 * time.Millisecond,
	})
	t.Cleanup(store.Shutdown)

	store.LoadFleet(context.Background())
	waitForPage(t, func() bool {
		snap := store.Snapshot()
		return len(snap.SimCards) == 2 && len(snap.Risk) == 1
	})

	page := NewFleetPage(context.Background(), store, DefaultStyles(), "Operator")
	page.SetSize(100, 40)
	page.UpdateContent(store.Snapshot())
	return page, store
}

func waitForPage(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestFleetPageRendersCards(t *testing.T) {
	page, _ := newTestFleetPage(t)

	view := page.View()
	if !strings.Contains(view, "42") || !strings.Contains(view, "Istanbul") {
		t.Errorf("view missing fleet rows:\n%s", view)
	}
	if !strings.Contains(view, "high") {
		t.Errorf("view missing risk level:\n%s", view)
	}
	if !strings.Contains(view, "2 of 2 SIMs") {
		t.Errorf("view missing summary:\n%s", view)
	}
}

func TestFleetPageSearchUpdatesStore(t *testing.T) {
	page, store := newTestFleetPage(t)

	page, _ = page.Update(keyRunes("/"))
	if !page.searchMode {
		t.Fatal("expected search mode after /")
	}

	page, _ = page.Update(keyRunes("i"))
	page, _ = page.Update(keyRunes("s"))
	page, _ = page.Update(keyRunes("t"))

	if got := store.Snapshot().Criteria.SearchText; got != "ist" {
		t.Errorf("expected search text 'ist', got %q", got)
	}

	waitForPage(t, func() bool {
		return len(store.Snapshot().Filtered) == 1
	})
}

func TestFleetPageStatusFilterCycle(t *testing.T) {
	page, store := newTestFleetPage(t)

	// Active mode starts on status; right steps to "active".
	page, _ = page.Update(tea.KeyMsg{Type: tea.KeyRight})
	if got := store.Snapshot().Criteria.Status; got != types.StatusActive {
		t.Errorf("expected status filter active, got %q", got)
	}

	// Tab twice lands on the risk filter.
	page, _ = page.Update(tea.KeyMsg{Type: tea.KeyTab})
	page, _ = page.Update(tea.KeyMsg{Type: tea.KeyTab})
	page, _ = page.Update(tea.KeyMsg{Type: tea.KeyRight})
	if got := store.Snapshot().Criteria.RiskLevel; got != types.RiskLow {
		t.Errorf("expected risk filter low, got %q", got)
	}

	page, _ = page.Update(keyRunes("x"))
	if !store.Snapshot().Criteria.IsEmpty() {
		t.Error("expected x to clear all filters")
	}
}

func TestFleetPageSelectAndDetail(t *testing.T) {
	page, store := newTestFleetPage(t)

	page, _ = page.Update(tea.KeyMsg{Type: tea.KeyEnter})
	snap := store.Snapshot()
	if snap.SelectedSimID == nil || *snap.SelectedSimID != 42 {
		t.Fatalf("expected SIM 42 selected, got %v", snap.SelectedSimID)
	}

	page.UpdateContent(snap)
	view := page.View()
	if !strings.Contains(view, "Gold IoT") {
		t.Errorf("detail pane missing plan name:\n%s", view)
	}

	page, _ = page.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if store.Snapshot().SelectedSimID != nil {
		t.Error("expected esc to clear selection")
	}
}

func TestFleetPageClipboardCopy(t *testing.T) {
	var copied string
	oldClipboard := clipboardWriteAll
	clipboardWriteAll = func(s string) error {
		copied = s
		return nil
	}
	defer func() { clipboardWriteAll = oldClipboard }()

	page, store := newTestFleetPage(t)
	store.Select(42)
	page.UpdateContent(store.Snapshot())

	page, _ = page.Update(keyRunes("c"))
	if !strings.Contains(copied, "SIM 42") || !strings.Contains(copied, "Istanbul") {
		t.Errorf("unexpected clipboard content: %q", copied)
	}
}

func TestFleetPageActionKeyEmitsOpenMsg(t *testing.T) {
	page, store := newTestFleetPage(t)
	store.Select(42)
	page.UpdateContent(store.Snapshot())

	page, cmd := page.Update(keyRunes("a"))
	if cmd == nil {
		t.Fatal("expected a command from action key")
	}
	msg, ok := cmd().(OpenActionMsg)
	if !ok {
		t.Fatalf("expected OpenActionMsg, got %T", cmd())
	}
	if msg.SimID != 42 {
		t.Errorf("expected SimID 42, got %d", msg.SimID)
	}
}

func TestFleetPageActionKeyIgnoredWithoutSelection(t *testing.T) {
	page, _ := newTestFleetPage(t)

	_, cmd := page.Update(keyRunes("a"))
	if cmd != nil {
		t.Error("expected no command without a selection")
	}
}
