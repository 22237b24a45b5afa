// Package fleet implements the view-model for the SIM fleet screens.
// The Store owns all shared UI state behind one mutex: async completions
// (fleet fetch, risk enrichment, bulk actions) mutate state only through
// Store methods, and observers receive immutable snapshots over a notify
// channel pumped into the Bubble Tea event loop. That is the whole
// cross-thread discipline - no other synchronization exists or is needed.
package fleet

import (
	"sync"
	"time"

	"simfleet/internal/api"
	"simfleet/internal/auth"
	"simfleet/internal/types"
)

// ActionState is the bulk-action dispatcher state machine.
type ActionState int

const (
	ActionIdle ActionState = iota
	ActionSubmitting
)

// Snapshot is an immutable copy of the store state handed to observers.
type Snapshot struct {
	SimCards []types.SIMCard
	Filtered []types.SIMCard
	Risk     map[int64]types.RiskAssessment
	Criteria types.FilterCriteria

	SelectedSimID *int64
	ExpandedSimID *int64

	IsLoading bool
	LoadError string

	ActionState    ActionState
	ErrorMessage   string
	SuccessMessage string
}

// RiskFor returns the assessment for a card, nil when not yet assessed.
func (s Snapshot) RiskFor(simID int64) *types.RiskAssessment {
	if r, ok := s.Risk[simID]; ok {
		return &r
	}
	return nil
}

// StoreConfig configures a Store.
type StoreConfig struct {
	API  api.Service
	Auth *auth.Service

	// FilterDebounce delays recompute after filter input changes.
	// Zero uses DefaultFilterDebounce.
	FilterDebounce time.Duration

	// MaxConcurrentRisk caps parallel risk fetches; 0 = unbounded.
	MaxConcurrentRisk int
}

// Store is the fleet view-model.
type Store struct {
	mu sync.Mutex

	svc    api.Service
	auth   *auth.Service
	debncr *Debouncer

	maxConcurrentRisk int

	// State guarded by mu
	simCards []types.SIMCard
	simIndex map[int64]int // simID -> position in simCards
	risk     map[int64]types.RiskAssessment
	filtered []types.SIMCard
	criteria types.FilterCriteria

	selectedSimID *int64
	expandedSimID *int64

	isLoading bool
	loadError string

	actionState    ActionState
	errorMessage   string
	successMessage string

	subscribers map[int]chan struct{}
	nextSubID   int
}

// NewStore creates a fleet store around the given backend service.
func NewStore(cfg StoreConfig) *Store {
	debounce := cfg.FilterDebounce
	if debounce == 0 {
		debounce = DefaultFilterDebounce
	}
	return &Store{
		svc:               cfg.API,
		auth:              cfg.Auth,
		debncr:            NewDebouncer(debounce),
		maxConcurrentRisk: cfg.MaxConcurrentRisk,
		simIndex:          make(map[int64]int),
		risk:              make(map[int64]types.RiskAssessment),
		subscribers:       make(map[int]chan struct{}),
	}
}

// Subscribe returns a signal channel that receives a tick after every state
// change, plus an unsubscribe function. The channel has capacity 1 and
// notifications coalesce; call Snapshot() to read the current state.
func (st *Store) Subscribe() (<-chan struct{}, func()) {
	st.mu.Lock()
	id := st.nextSubID
	st.nextSubID++
	ch := make(chan struct{}, 1)
	st.subscribers[id] = ch
	st.mu.Unlock()

	return ch, func() {
		st.mu.Lock()
		delete(st.subscribers, id)
		st.mu.Unlock()
	}
}

// notify signals all subscribers. Never blocks: a subscriber that has not
// drained its channel keeps the single pending tick.
func (st *Store) notify() {
	st.mu.Lock()
	chans := make([]chan struct{}, 0, len(st.subscribers))
	for _, ch := range st.subscribers {
		chans = append(chans, ch)
	}
	st.mu.Unlock()

	for _, ch := range chans {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Snapshot returns an immutable copy of the current state.
func (st *Store) Snapshot() Snapshot {
	st.mu.Lock()
	defer st.mu.Unlock()

	snap := Snapshot{
		SimCards:       append([]types.SIMCard(nil), st.simCards...),
		Filtered:       append([]types.SIMCard(nil), st.filtered...),
		Risk:           make(map[int64]types.RiskAssessment, len(st.risk)),
		Criteria:       st.criteria,
		IsLoading:      st.isLoading,
		LoadError:      st.loadError,
		ActionState:    st.actionState,
		ErrorMessage:   st.errorMessage,
		SuccessMessage: st.successMessage,
	}
	for id, r := range st.risk {
		snap.Risk[id] = r
	}
	if st.selectedSimID != nil {
		v := *st.selectedSimID
		snap.SelectedSimID = &v
	}
	if st.expandedSimID != nil {
		v := *st.expandedSimID
		snap.ExpandedSimID = &v
	}
	return snap
}

// Select marks a SIM card as selected and expands its disclosure row.
// Selecting an id outside the filtered view is ignored.
func (st *Store) Select(simID int64) {
	st.mu.Lock()
	found := false
	for _, c := range st.filtered {
		if c.SimID == simID {
			found = true
			break
		}
	}
	if !found {
		st.mu.Unlock()
		return
	}
	v := simID
	st.selectedSimID = &v
	w := simID
	st.expandedSimID = &w
	st.mu.Unlock()

	st.notify()
}

// ClearSelection unsets selection and expansion.
func (st *Store) ClearSelection() {
	st.mu.Lock()
	st.selectedSimID = nil
	st.expandedSimID = nil
	st.mu.Unlock()

	st.notify()
}

// ClearMessages clears the success and error surfaces (e.g. on Esc).
func (st *Store) ClearMessages() {
	st.mu.Lock()
	st.errorMessage = ""
	st.successMessage = ""
	st.loadError = ""
	st.mu.Unlock()

	st.notify()
}

// Shutdown cancels any pending debounced recompute.
func (st *Store) Shutdown() {
	st.debncr.Cancel()
}
