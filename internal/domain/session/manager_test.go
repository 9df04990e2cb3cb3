package session

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/isoplan/planner/internal/ai"
	"github.com/isoplan/planner/internal/domain/plan"
	"github.com/isoplan/planner/internal/infrastructure/monitoring"
)

func TestMain(m *testing.M) {
	// genai, reached through ai.Turn, starts an opencensus worker at init.
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestManager(ttl time.Duration) (*Manager, *clock) {
	c := &clock{now: time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)}
	m := NewManager(nil, Config{TTL: ttl, SweepInterval: time.Millisecond}, nil, nil)
	m.now = c.Now
	return m, c
}

func mustCreate(t *testing.T, m *Manager) *Session {
	t.Helper()
	s, err := m.Create()
	require.NoError(t, err)
	return s
}

func TestCreateStartsFromLoader(t *testing.T) {
	loaded := plan.Default()
	loaded.Organisation.Name = "Acme"
	m := NewManager(func() *plan.Document { return loaded.Clone() }, Config{TTL: time.Hour}, nil, nil)

	s := mustCreate(t, m)

	require.NoError(t, s.Do(func(st *State) error {
		assert.Equal(t, "Acme", st.Document.Organisation.Name)
		assert.Empty(t, st.Chat)
		return nil
	}))
	assert.Equal(t, 1, m.Stats().Active)
}

func TestSessionsAreIsolated(t *testing.T) {
	m, _ := newTestManager(time.Hour)
	a := mustCreate(t, m)
	b := mustCreate(t, m)
	require.NotEqual(t, a.ID, b.ID)

	require.NoError(t, a.Do(func(st *State) error {
		return st.Document.SetChecklistItem("scope", "scope_definierat", true)
	}))

	require.NoError(t, b.Do(func(st *State) error {
		assert.False(t, st.Document.Checklists["scope"]["scope_definierat"])
		return nil
	}))
}

func TestResolve(t *testing.T) {
	m, _ := newTestManager(time.Hour)

	first, created, err := m.Resolve("")
	require.NoError(t, err)
	assert.True(t, created)

	again, created, err := m.Resolve(first.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Same(t, first, again)

	other, created, err := m.Resolve("not-a-session")
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, first.ID, other.ID)
}

func TestGetEvictsExpired(t *testing.T) {
	m, c := newTestManager(time.Hour)
	s := mustCreate(t, m)

	c.Advance(59 * time.Minute)
	_, ok := m.Get(s.ID)
	require.True(t, ok)

	c.Advance(61 * time.Minute)
	_, ok = m.Get(s.ID)
	assert.False(t, ok)
	assert.Equal(t, Stats{Active: 0, Created: 1, Expired: 1}, m.Stats())
}

func TestSweep(t *testing.T) {
	m, c := newTestManager(time.Hour)
	old := mustCreate(t, m)
	c.Advance(2 * time.Hour)
	fresh := mustCreate(t, m)

	removed := m.Sweep(c.Now())

	assert.Equal(t, 1, removed)
	_, ok := m.Get(old.ID)
	assert.False(t, ok)
	_, ok = m.Get(fresh.ID)
	assert.True(t, ok)
}

func TestDelete(t *testing.T) {
	m, _ := newTestManager(time.Hour)
	s := mustCreate(t, m)

	assert.True(t, m.Delete(s.ID))
	assert.False(t, m.Delete(s.ID))
	assert.Equal(t, 0, m.Stats().Active)
}

func TestDoSerializesAccess(t *testing.T) {
	m, _ := newTestManager(time.Hour)
	s := mustCreate(t, m)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Do(func(st *State) error {
				st.Chat = append(st.Chat, ai.Turn{Role: ai.RoleUser, Text: "hej"})
				return nil
			})
		}()
	}
	wg.Wait()

	require.NoError(t, s.Do(func(st *State) error {
		assert.Len(t, st.Chat, 50)
		st.ResetChat()
		assert.Empty(t, st.Chat)
		return nil
	}))
}

func TestRunStopsOnCancel(t *testing.T) {
	m, c := newTestManager(time.Hour)
	mustCreate(t, m)
	c.Advance(2 * time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	require.Eventually(t, func() bool { return m.Stats().Active == 0 }, time.Second, time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestMetricsTrackSessions(t *testing.T) {
	metrics := monitoring.NewMetrics()
	m := NewManager(nil, Config{TTL: time.Hour}, metrics, nil)

	a := mustCreate(t, m)
	mustCreate(t, m)
	m.Delete(a.ID)

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.SessionsCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SessionsActive))
}

func TestCreateRespectsMaxSessions(t *testing.T) {
	var loads atomic.Int32
	c := &clock{now: time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)}
	m := NewManager(func() *plan.Document {
		loads.Add(1)
		return plan.Default()
	}, Config{TTL: time.Hour, MaxSessions: 2}, nil, nil)
	m.now = c.Now

	first := mustCreate(t, m)
	mustCreate(t, m)

	_, err := m.Create()
	assert.ErrorIs(t, err, ErrTooManySessions)
	_, _, err = m.Resolve("")
	assert.ErrorIs(t, err, ErrTooManySessions)
	assert.Equal(t, int32(2), loads.Load())
	assert.Equal(t, 2, m.Stats().Active)

	// Known sessions still resolve at the limit.
	s, created, err := m.Resolve(first.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Same(t, first, s)

	m.Delete(first.ID)
	mustCreate(t, m)

	c.Advance(2 * time.Hour)
	mustCreate(t, m)
	assert.Equal(t, 1, m.Stats().Active)
	assert.Equal(t, 2, m.Stats().Expired)
}

func TestCreateLimitUnderContention(t *testing.T) {
	m := NewManager(nil, Config{TTL: time.Hour, MaxSessions: 10}, nil, nil)

	var (
		wg      sync.WaitGroup
		created atomic.Int32
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.Create(); err == nil {
				created.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(10), created.Load())
	assert.Equal(t, 10, m.Stats().Active)
}
