package store

import (
	"sync"
	"time"

	"campus-support-backend/internal/agent"
)

const (
	// sessionTTL matches the session cookie lifetime; a conversation idle
	// this long is abandoned and its state can go.
	sessionTTL   = 30 * time.Minute
	reapInterval = time.Minute
)

// MemoryStore is the in-process session store. Each session carries its own
// mutex so that two in-flight turns for the same session id are serialized
// and the second one sees the first's effects; unrelated sessions never
// contend. Sessions idle past sessionTTL are reaped together with their
// locks, so discarded session ids do not accumulate.
type MemoryStore struct {
	mu          sync.RWMutex
	sessions    map[string]*agent.Session
	locks       map[string]*sync.Mutex
	lastSeen    map[string]time.Time
	lastReap    time.Time
	maxMessages int
}

// NewMemoryStore creates a store that keeps at most maxMessages history
// entries per session (0 means unbounded).
func NewMemoryStore(maxMessages int) *MemoryStore {
	return &MemoryStore{
		sessions:    make(map[string]*agent.Session),
		locks:       make(map[string]*sync.Mutex),
		lastSeen:    make(map[string]time.Time),
		lastReap:    time.Now(),
		maxMessages: maxMessages,
	}
}

// Acquire takes the per-session lock and returns its release func. If the
// reaper removed the lock between lookup and lock, a fresh one is taken so
// two holders of the same session id can never run concurrently.
func (m *MemoryStore) Acquire(sessionID string) func() {
	for {
		m.mu.Lock()
		m.reapLocked()
		l, ok := m.locks[sessionID]
		if !ok {
			l = &sync.Mutex{}
			m.locks[sessionID] = l
		}
		m.lastSeen[sessionID] = time.Now()
		m.mu.Unlock()

		l.Lock()
		m.mu.RLock()
		current := m.locks[sessionID]
		m.mu.RUnlock()
		if current == l {
			return l.Unlock
		}
		l.Unlock()
	}
}

// reapLocked drops sessions idle past the TTL. Caller holds the write lock.
// A session whose per-session mutex is held has a turn in flight and is
// skipped regardless of its idle time.
func (m *MemoryStore) reapLocked() {
	if time.Since(m.lastReap) < reapInterval {
		return
	}
	m.lastReap = time.Now()
	for id, seen := range m.lastSeen {
		if time.Since(seen) < sessionTTL {
			continue
		}
		if l, ok := m.locks[id]; ok {
			if !l.TryLock() {
				continue
			}
			l.Unlock()
		}
		delete(m.sessions, id)
		delete(m.locks, id)
		delete(m.lastSeen, id)
	}
}

// GetOrCreate returns the session, creating an idle one on first use.
func (m *MemoryStore) GetOrCreate(sessionID string) *agent.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastSeen[sessionID] = time.Now()
	if s, ok := m.sessions[sessionID]; ok {
		return s
	}
	s := &agent.Session{
		ID:    sessionID,
		Mode:  agent.ModeAuto,
		State: agent.StateIdle,
		Slots: map[string]string{},
	}
	m.sessions[sessionID] = s
	return s
}

func (m *MemoryStore) Append(sessionID string, msg agent.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return
	}
	m.lastSeen[sessionID] = time.Now()
	s.History = append(s.History, msg)
	if m.maxMessages > 0 && len(s.History) > m.maxMessages {
		s.History = s.History[len(s.History)-m.maxMessages:]
	}
}

// History returns a copy of the session's message history.
func (m *MemoryStore) History(sessionID string) []agent.Message {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil
	}
	out := make([]agent.Message, len(s.History))
	copy(out, s.History)
	return out
}

func (m *MemoryStore) SetPending(sessionID string, d *agent.Draft) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[sessionID]; ok {
		s.Pending = d
	}
}

// Reset clears history, pending draft and slot state but keeps the session
// id and requester identity.
func (m *MemoryStore) Reset(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return
	}
	s.History = nil
	s.Pending = nil
	s.State = agent.StateIdle
	s.ActiveIntent = ""
	s.Slots = map[string]string{}
	s.LastAsked = ""
}
