package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/atelierhq/atelier/internal/types"
)

type mockEnumerator struct {
	companies []types.Company
	err       error
}

func (m *mockEnumerator) ListCompanies(ctx context.Context) ([]types.Company, error) {
	return m.companies, m.err
}

// mockReconciler records which companies were reconciled, failing the ones
// listed in failFor.
type mockReconciler struct {
	mu      sync.Mutex
	seen    []string
	failFor map[string]error
}

func (m *mockReconciler) Reconcile(ctx context.Context, company types.Company, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seen = append(m.seen, company.ID)
	if err, ok := m.failFor[company.ID]; ok {
		return err
	}
	return nil
}

func (m *mockReconciler) seenIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.seen...)
}

func TestBillingCoordinator_ReconcilesImmediatelyOnStart(t *testing.T) {
	enum := &mockEnumerator{companies: []types.Company{{ID: "co_1"}, {ID: "co_2"}}}
	rec := &mockReconciler{}
	c := NewBillingCoordinator(enum, rec, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	// The first cycle runs before the first tick; with an hour-long interval
	// anything we observe promptly came from the startup pass.
	deadline := time.After(2 * time.Second)
	for len(rec.seenIDs()) < 2 {
		select {
		case <-deadline:
			t.Fatalf("startup reconciliation did not run, saw %v", rec.seenIDs())
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("coordinator did not stop after cancel")
	}

	seen := rec.seenIDs()
	if len(seen) != 2 || seen[0] != "co_1" || seen[1] != "co_2" {
		t.Errorf("expected both companies reconciled once, got %v", seen)
	}
}

func TestBillingCoordinator_ContinuesPastCompanyFailure(t *testing.T) {
	enum := &mockEnumerator{companies: []types.Company{{ID: "co_1"}, {ID: "co_2"}, {ID: "co_3"}}}
	rec := &mockReconciler{failFor: map[string]error{"co_2": errors.New("database locked")}}
	c := NewBillingCoordinator(enum, rec, time.Hour)

	ctx := context.Background()
	c.reconcileAll(ctx)

	seen := rec.seenIDs()
	if len(seen) != 3 {
		t.Fatalf("one failing company must not stop the cycle, got %v", seen)
	}
}

func TestBillingCoordinator_ListFailureSkipsCycle(t *testing.T) {
	enum := &mockEnumerator{err: errors.New("disk I/O error")}
	rec := &mockReconciler{}
	c := NewBillingCoordinator(enum, rec, time.Hour)

	c.reconcileAll(context.Background())

	if len(rec.seenIDs()) != 0 {
		t.Errorf("no companies should be reconciled when listing fails, got %v", rec.seenIDs())
	}
}

func TestBillingCoordinator_StopsMidCycleOnCancel(t *testing.T) {
	companies := make([]types.Company, 50)
	for i := range companies {
		companies[i] = types.Company{ID: "co"}
	}
	enum := &mockEnumerator{companies: companies}
	rec := &mockReconciler{}
	c := NewBillingCoordinator(enum, rec, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c.reconcileAll(ctx)

	if len(rec.seenIDs()) != 0 {
		t.Errorf("cancelled context should stop the cycle before any work, got %d calls", len(rec.seenIDs()))
	}
}
