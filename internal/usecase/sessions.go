package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/evdms/dealer-console/internal/domain"
)

// Session is one console session holding exactly one wizard, and therefore
// at most one draft at a time. Concurrent tabs sharing a session are
// serialized by the wizard's own lock; two distinct sessions resuming the
// same order are not coordinated.
type Session struct {
	ID       uuid.UUID
	Wizard   *Wizard
	Notifier domain.Notifier
	Created  time.Time
	LastSeen time.Time
}

// Manager is the in-memory session registry. When a SessionStore is
// configured it persists a thin identifier row per session so a console can
// find its draft order again after a restart; cart state is never stored
// locally, the order service holds it.
type Manager struct {
	mu       sync.Mutex
	deps     WizardDeps
	store    domain.SessionStore
	sessions map[uuid.UUID]*Session

	// NewNotifier, when set, gives each session its own notifier (the
	// server uses a per-session toast buffer). Nil keeps the shared one.
	NewNotifier func() domain.Notifier
}

func NewManager(deps WizardDeps, store domain.SessionStore) *Manager {
	return &Manager{
		deps:     deps,
		store:    store,
		sessions: map[uuid.UUID]*Session{},
	}
}

func (m *Manager) newSession(id uuid.UUID, created time.Time) *Session {
	deps := m.deps
	if m.NewNotifier != nil {
		deps.Notifier = m.NewNotifier()
	}
	return &Session{
		ID:       id,
		Wizard:   NewWizard(deps),
		Notifier: deps.Notifier,
		Created:  created,
		LastSeen: time.Now(),
	}
}

func (m *Manager) Create(ctx context.Context) *Session {
	s := m.newSession(uuid.New(), time.Now())
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	m.Persist(ctx, s)
	return s
}

// CreateResumed opens a new session against an existing draft order.
func (m *Manager) CreateResumed(ctx context.Context, orderID string) (*Session, error) {
	s := m.newSession(uuid.New(), time.Now())
	if err := s.Wizard.Resume(ctx, orderID); err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	m.Persist(ctx, s)
	return s, nil
}

// Get returns a live session. If the registry lost it (restart) but a
// persisted anchor exists with a bound order, the wizard is rebuilt by
// resuming that order.
func (m *Manager) Get(ctx context.Context, id uuid.UUID) (*Session, bool) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		s.LastSeen = time.Now()
	}
	m.mu.Unlock()
	if ok {
		return s, true
	}
	if m.store == nil {
		return nil, false
	}
	row, err := m.store.Find(ctx, id.String())
	if err != nil || row.OrderID == "" {
		return nil, false
	}
	s = m.newSession(id, row.CreatedAt)
	if err := s.Wizard.Resume(ctx, row.OrderID); err != nil {
		m.deps.Log.Warn().Err(err).Str("order_id", row.OrderID).Msg("stored session resume failed")
		return nil, false
	}
	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()
	return s, true
}

// Persist writes the session's current identifiers. The generation check
// drops a write that raced a reset or resume: if the draft was replaced
// while saving, the fresh identifiers are written instead of the stale ones.
func (m *Manager) Persist(ctx context.Context, s *Session) {
	if m.store == nil {
		return
	}
	for range 2 {
		gen := s.Wizard.Generation()
		row := &domain.WizardSession{
			ID:       s.ID,
			DealerID: m.deps.DealerID,
			OrderID:  s.Wizard.Draft().OrderID,
		}
		if err := m.store.Save(ctx, row); err != nil {
			m.deps.Log.Warn().Err(err).Msg("session persist failed")
			return
		}
		if s.Wizard.Generation() == gen {
			return
		}
	}
}

func (m *Manager) Close(ctx context.Context, id uuid.UUID) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	if m.store != nil {
		if err := m.store.Delete(ctx, id.String()); err != nil {
			m.deps.Log.Warn().Err(err).Msg("session delete failed")
		}
	}
}

// Sweep drops sessions idle longer than maxIdle. The persisted anchors stay
// so the draft order remains resumable.
func (m *Manager) Sweep(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.sessions {
		if s.LastSeen.Before(cutoff) {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}

// StartJanitor sweeps idle sessions until ctx is cancelled.
func (m *Manager) StartJanitor(ctx context.Context, every, maxIdle time.Duration) {
	go func() {
		t := time.NewTicker(every)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if n := m.Sweep(maxIdle); n > 0 {
					m.deps.Log.Debug().Int("count", n).Msg("idle wizard sessions swept")
				}
			}
		}
	}()
}
