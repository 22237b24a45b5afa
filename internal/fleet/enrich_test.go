package fleet

import (
	"context"
	"fmt"
	"testing"
	"time"

	"simfleet/internal/api"
	"simfleet/internal/auth"
	"simfleet/internal/types"

	"go.uber.org/goleak"
)

func TestEnrichmentPopulatesAssessments(t *testing.T) {
	defer goleak.VerifyNone(t)

	svc := newFakeService(testFleet())
	svc.risks[42] = &types.RiskAssessment{RiskLevel: types.RiskHigh, AnomalyCount: 5}
	svc.risks[7] = &types.RiskAssessment{RiskLevel: types.RiskLow, AnomalyCount: 0}
	// sim 13 has no assessment (nil data)

	st := loadedStore(t, svc)
	// All three fetches must finish before the leak check at test end
	waitFor(t, func() bool { return svc.riskCallCount() == 3 && len(st.Snapshot().Risk) == 2 })

	snap := st.Snapshot()
	if r := snap.RiskFor(42); r == nil || r.RiskLevel != types.RiskHigh || r.AnomalyCount != 5 {
		t.Errorf("sim 42 assessment wrong: %+v", r)
	}
	if r := snap.RiskFor(13); r != nil {
		t.Error("absent data must mean no assessment, not a zero-value one")
	}
	st.Shutdown()
}

func TestEnrichmentFailureIsIndependentPerCard(t *testing.T) {
	svc := newFakeService(testFleet())
	svc.risks[42] = &types.RiskAssessment{RiskLevel: types.RiskMedium, AnomalyCount: 1}
	svc.riskErrs[7] = fmt.Errorf("risk service unavailable")
	svc.risks[13] = &types.RiskAssessment{RiskLevel: types.RiskLow, AnomalyCount: 0}

	st := loadedStore(t, svc)
	waitFor(t, func() bool { return len(st.Snapshot().Risk) == 2 })

	snap := st.Snapshot()
	if snap.RiskFor(7) != nil {
		t.Error("failed fetch must leave that card unassessed")
	}
	if snap.RiskFor(42) == nil || snap.RiskFor(13) == nil {
		t.Error("one card's failure must not block the others")
	}
	// Risk failures are log-only, never user-facing
	if snap.LoadError != "" || snap.ErrorMessage != "" {
		t.Error("risk failure must not surface a user-facing error")
	}
}

func TestStaleAssessmentForRemovedCardIsDropped(t *testing.T) {
	svc := newFakeService(testFleet())
	st := loadedStore(t, svc)

	// Shrink the fleet, reload, then deliver a late response for the removed id
	svc.mu.Lock()
	svc.fleet = svc.fleet[:1] // only sim 42 remains
	svc.mu.Unlock()

	st.LoadFleet(context.Background())
	waitFor(t, func() bool { return len(st.Snapshot().SimCards) == 1 })

	st.applyRisk(7, types.RiskAssessment{RiskLevel: types.RiskHigh, AnomalyCount: 99})

	if st.Snapshot().RiskFor(7) != nil {
		t.Error("late assessment for a removed id must be dropped")
	}
}

func TestLateAssessmentForPresentCardIsStored(t *testing.T) {
	svc := newFakeService(testFleet())
	st := loadedStore(t, svc)

	st.applyRisk(13, types.RiskAssessment{RiskLevel: types.RiskMedium, AnomalyCount: 2})

	if r := st.Snapshot().RiskFor(13); r == nil || r.RiskLevel != types.RiskMedium {
		t.Error("late assessment for an id still in the fleet must be stored")
	}
}

func TestEnrichmentConcurrencyCap(t *testing.T) {
	fleet := make([]types.SIMCard, 20)
	for i := range fleet {
		fleet[i] = types.SIMCard{SimID: int64(i + 1), Status: types.StatusActive, City: "Izmir"}
	}
	svc := newFakeService(fleet)
	for i := range fleet {
		svc.risks[int64(i+1)] = &types.RiskAssessment{RiskLevel: types.RiskLow}
	}
	svc.riskDelay = 10 * time.Millisecond

	authSvc := auth.NewService()
	authSvc.SignIn(&api.Session{Token: "t", Username: "operator"})
	st := NewStore(StoreConfig{
		API:               svc,
		Auth:              authSvc,
		FilterDebounce:    10 * time.Millisecond,
		MaxConcurrentRisk: 2,
	})

	start := time.Now()
	st.LoadFleet(context.Background())
	waitFor(t, func() bool { return len(st.Snapshot().Risk) == 20 })

	// 20 fetches at 10ms through 2 slots cannot finish in under ~100ms
	if elapsed := time.Since(start); elapsed < 90*time.Millisecond {
		t.Errorf("cap of 2 not enforced: 20 fetches finished in %v", elapsed)
	}
}
