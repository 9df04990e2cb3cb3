// Package session keeps per-client planning state in memory.
//
// Every client gets its own Session holding a plan document and a chat
// history. Interactions run through Session.Do, which serializes access so
// each session behaves like a single logical thread. Saving to disk is an
// explicit, separate step; sessions themselves are never persisted.
//
// Sessions idle for longer than the configured TTL are evicted, either
// lazily on lookup or by the sweeper started with Manager.Run. When
// Config.MaxSessions is set, Create fails with ErrTooManySessions once that
// many sessions are live.
//
// Example Usage:
//
//	load := func() *plan.Document { doc, _ := store.Load(); return doc }
//	manager := session.NewManager(load, session.Config{TTL: 12 * time.Hour, MaxSessions: 1000}, metrics, log)
//	s, _, err := manager.Resolve(r.Header.Get("X-Session-ID"))
//	if err != nil {
//		return err
//	}
//	err = s.Do(func(st *session.State) error {
//		return st.Document.SetStep("1", true)
//	})
package session
