package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/evdms/dealer-console/internal/domain"
)

type memStore struct {
	mu   sync.Mutex
	rows map[string]domain.WizardSession
}

func newMemStore() *memStore {
	return &memStore{rows: map[string]domain.WizardSession{}}
}

func (s *memStore) Save(ctx context.Context, row *domain.WizardSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[row.ID.String()] = *row
	return nil
}

func (s *memStore) Find(ctx context.Context, id string) (*domain.WizardSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &row, nil
}

func (s *memStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rows, id)
	return nil
}

func TestManagerCreateAndGet(t *testing.T) {
	b := newFakeBackend()
	m := NewManager(testDeps(b), nil)

	s := m.Create(context.Background())
	if s.Wizard.Step() != domain.StepCustomer {
		t.Errorf("new session step = %v, want customer", s.Wizard.Step())
	}
	got, ok := m.Get(context.Background(), s.ID)
	if !ok || got != s {
		t.Fatal("session not retrievable")
	}
	if _, ok := m.Get(context.Background(), uuid.New()); ok {
		t.Error("unknown id resolved to a session")
	}
}

func TestManagerPersistsOrderAnchor(t *testing.T) {
	b := newFakeBackend()
	b.addStock("VF8", "Eco", "Đen", 5, 800_000_000)
	store := newMemStore()
	m := NewManager(testDeps(b), store)
	ctx := context.Background()

	s := m.Create(ctx)
	reachVehicles(t, s.Wizard)
	m.Persist(ctx, s)

	row, err := store.Find(ctx, s.ID.String())
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if row.OrderID != s.Wizard.Draft().OrderID {
		t.Errorf("stored order = %q, want %q", row.OrderID, s.Wizard.Draft().OrderID)
	}
	if row.DealerID != "dealer-1" {
		t.Errorf("stored dealer = %q", row.DealerID)
	}
}

func TestManagerRebuildsFromStore(t *testing.T) {
	b := newFakeBackend()
	b.addStock("VF8", "Eco", "Đen", 5, 800_000_000)
	store := newMemStore()
	ctx := context.Background()

	first := NewManager(testDeps(b), store)
	s := first.Create(ctx)
	reachVehicles(t, s.Wizard)
	if err := s.Wizard.AddToCart(ctx, "VF8", "Eco", "Đen", 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	first.Persist(ctx, s)

	// a restarted process shares the store but not the registry
	second := NewManager(testDeps(b), store)
	got, ok := second.Get(ctx, s.ID)
	if !ok {
		t.Fatal("stored session not rebuilt")
	}
	d := got.Wizard.Draft()
	if d.OrderID != s.Wizard.Draft().OrderID {
		t.Errorf("rebuilt order = %q, want %q", d.OrderID, s.Wizard.Draft().OrderID)
	}
	if len(d.Lines) != 1 {
		t.Errorf("rebuilt lines = %d, want 1", len(d.Lines))
	}
	if got.Wizard.Step() != domain.StepPromotion {
		t.Errorf("rebuilt step = %v, want promotion", got.Wizard.Step())
	}
}

func TestManagerCreateResumed(t *testing.T) {
	b := newFakeBackend()
	b.addStock("VF8", "Eco", "Đen", 5, 800_000_000)
	ctx := context.Background()
	m := NewManager(testDeps(b), nil)

	s := m.Create(ctx)
	reachVehicles(t, s.Wizard)
	if err := s.Wizard.AddToCart(ctx, "VF8", "Eco", "Đen", 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	orderID := s.Wizard.Draft().OrderID

	resumed, err := m.CreateResumed(ctx, orderID)
	if err != nil {
		t.Fatalf("create resumed: %v", err)
	}
	if resumed.ID == s.ID {
		t.Error("resumed session reused the original id")
	}
	if resumed.Wizard.Draft().OrderID != orderID {
		t.Error("resumed wizard bound to wrong order")
	}

	if _, err := m.CreateResumed(ctx, "order-404"); err == nil {
		t.Error("resume of unknown order must fail")
	}
}

func TestManagerPerSessionNotifier(t *testing.T) {
	b := newFakeBackend()
	m := NewManager(testDeps(b), nil)
	var made int
	m.NewNotifier = func() domain.Notifier {
		made++
		return b
	}
	ctx := context.Background()
	a, c := m.Create(ctx), m.Create(ctx)
	if made != 2 {
		t.Errorf("notifier factory calls = %d, want one per session", made)
	}
	if a.Notifier == nil || c.Notifier == nil {
		t.Error("session notifier not recorded")
	}
}

func TestManagerCloseDeletesAnchor(t *testing.T) {
	b := newFakeBackend()
	store := newMemStore()
	m := NewManager(testDeps(b), store)
	ctx := context.Background()

	s := m.Create(ctx)
	m.Close(ctx, s.ID)
	if _, ok := m.Get(ctx, s.ID); ok {
		t.Error("closed session still resolvable")
	}
	if _, err := store.Find(ctx, s.ID.String()); err == nil {
		t.Error("anchor row not deleted")
	}
}

func TestSweepDropsIdleSessions(t *testing.T) {
	b := newFakeBackend()
	m := NewManager(testDeps(b), nil)
	ctx := context.Background()

	idle := m.Create(ctx)
	fresh := m.Create(ctx)
	idle.LastSeen = time.Now().Add(-3 * time.Hour)

	if n := m.Sweep(2 * time.Hour); n != 1 {
		t.Errorf("swept = %d, want 1", n)
	}
	if _, ok := m.Get(ctx, idle.ID); ok {
		t.Error("idle session survived sweep")
	}
	if _, ok := m.Get(ctx, fresh.ID); !ok {
		t.Error("fresh session swept")
	}
}
