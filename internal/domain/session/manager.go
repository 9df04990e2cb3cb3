package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/isoplan/planner/internal/ai"
	"github.com/isoplan/planner/internal/domain/plan"
	"github.com/isoplan/planner/internal/infrastructure/monitoring"
	"github.com/isoplan/planner/internal/shared/id"
)

// ErrTooManySessions is returned by Create when MaxSessions live sessions
// already exist and none of them has expired.
var ErrTooManySessions = errors.New("too many active sessions")

// Loader produces the starting document for a new session.
type Loader func() *plan.Document

// State is the mutable per-session data handed to interactions.
type State struct {
	Document *plan.Document
	Chat     []ai.Turn
}

// ResetChat clears the chat history.
func (s *State) ResetChat() {
	s.Chat = []ai.Turn{}
}

// Session is one client's working copy of the plan.
type Session struct {
	ID        string
	CreatedAt time.Time

	// Held for the full length of an interaction
	mu       sync.Mutex
	state    State
	lastSeen atomic.Int64
}

// Do runs fn with exclusive access to the session state.
func (s *Session) Do(fn func(st *State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&s.state)
}

// LastSeen returns the time of the most recent access.
func (s *Session) LastSeen() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

func (s *Session) touch(now time.Time) {
	s.lastSeen.Store(now.UnixNano())
}

// Config controls session expiry. MaxSessions <= 0 means no limit.
type Config struct {
	TTL           time.Duration
	SweepInterval time.Duration
	MaxSessions   int
}

// Stats summarizes the live sessions.
type Stats struct {
	Active  int `json:"active"`
	Created int `json:"created"`
	Expired int `json:"expired"`
}

// Manager keeps sessions in memory keyed by ID.
type Manager struct {
	sessions sync.Map
	loader   Loader
	cfg      Config
	metrics  *monitoring.Metrics
	logger   *zap.Logger
	now      func() time.Time

	active  atomic.Int64
	created atomic.Int64
	expired atomic.Int64
}

// NewManager creates a manager. metrics and logger may be nil.
func NewManager(loader Loader, cfg Config, metrics *monitoring.Metrics, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loader == nil {
		loader = plan.Default
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}
	return &Manager{
		loader:  loader,
		cfg:     cfg,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// Get returns a live session and marks it used. Expired sessions are
// evicted and reported as missing.
func (m *Manager) Get(sessionID string) (*Session, bool) {
	value, ok := m.sessions.Load(sessionID)
	if !ok {
		return nil, false
	}
	s := value.(*Session)
	now := m.now()
	if m.expiredAt(s, now) {
		if m.remove(sessionID) {
			m.recordExpired(1)
		}
		return nil, false
	}
	s.touch(now)
	return s, true
}

// Create starts a new session from the loader's document. At the session
// limit it sweeps expired sessions once before giving up.
func (m *Manager) Create() (*Session, error) {
	now := m.now()
	if !m.reserve() {
		m.Sweep(now)
		if !m.reserve() {
			m.logger.Warn("Session limit reached", zap.Int("max_sessions", m.cfg.MaxSessions))
			return nil, ErrTooManySessions
		}
	}

	s := &Session{
		ID:        id.NewSessionID().String(),
		CreatedAt: now,
		state: State{
			Document: m.loader(),
			Chat:     []ai.Turn{},
		},
	}
	s.touch(now)
	m.sessions.Store(s.ID, s)

	m.created.Add(1)
	if m.metrics != nil {
		m.metrics.IncSessionsCreated()
		m.metrics.SetSessionsActive(int(m.active.Load()))
	}
	m.logger.Debug("Session created", zap.String("session_id", s.ID))
	return s, nil
}

// reserve claims a slot in the active count.
func (m *Manager) reserve() bool {
	if m.cfg.MaxSessions <= 0 {
		m.active.Add(1)
		return true
	}
	for {
		n := m.active.Load()
		if n >= int64(m.cfg.MaxSessions) {
			return false
		}
		if m.active.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

// Resolve returns the session for sessionID, creating a new one when the
// ID is unknown, expired or malformed. created reports which happened.
func (m *Manager) Resolve(sessionID string) (s *Session, created bool, err error) {
	if id.ValidSessionID(sessionID) {
		if s, ok := m.Get(sessionID); ok {
			return s, false, nil
		}
	}
	s, err = m.Create()
	if err != nil {
		return nil, false, err
	}
	return s, true, nil
}

// Delete removes a session and frees its slot.
func (m *Manager) Delete(sessionID string) bool {
	return m.remove(sessionID)
}

// Stats returns session counters.
func (m *Manager) Stats() Stats {
	return Stats{
		Active:  int(m.active.Load()),
		Created: int(m.created.Load()),
		Expired: int(m.expired.Load()),
	}
}

// Sweep evicts every session idle since before now minus the TTL and
// returns how many were removed.
func (m *Manager) Sweep(now time.Time) int {
	removed := 0
	m.sessions.Range(func(key, value any) bool {
		if m.expiredAt(value.(*Session), now) && m.remove(key.(string)) {
			removed++
		}
		return true
	})
	if removed > 0 {
		m.recordExpired(removed)
		m.logger.Info("Expired idle sessions", zap.Int("count", removed))
	}
	return removed
}

// Run sweeps expired sessions until ctx is cancelled.
func (m *Manager) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.Sweep(m.now())
		}
	}
}

func (m *Manager) expiredAt(s *Session, now time.Time) bool {
	return m.cfg.TTL > 0 && now.Sub(s.LastSeen()) > m.cfg.TTL
}

func (m *Manager) remove(sessionID string) bool {
	if _, loaded := m.sessions.LoadAndDelete(sessionID); !loaded {
		return false
	}
	active := m.active.Add(-1)
	if m.metrics != nil {
		m.metrics.SetSessionsActive(int(active))
	}
	return true
}

func (m *Manager) recordExpired(n int) {
	m.expired.Add(int64(n))
	if m.metrics != nil {
		m.metrics.AddSessionsExpired(n)
	}
}
