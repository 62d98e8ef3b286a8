package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/opsdeck/incident-assistant/internal/domain/entities"
	"github.com/opsdeck/incident-assistant/internal/domain/providers"
)

// TurnState tracks where a session's current turn is in its lifecycle.
// Failure is per-turn; a failed session stays usable.
type TurnState string

const (
	StateIdle       TurnState = "idle"
	StateRetrieving TurnState = "retrieving"
	StateGenerating TurnState = "generating"
	StateDone       TurnState = "done"
	StateFailed     TurnState = "failed"
)

const defaultSessionTTL = 30 * time.Minute

// Session owns one conversation's dialogue memory: an append-only log
// of completed turns. All access goes through the orchestrator, which
// serializes turns per session via the embedded mutex.
type Session struct {
	ID string

	mu    sync.Mutex
	state TurnState
	turns []entities.ConversationTurn
}

// History returns a copy of the completed turns, oldest first.
// Callers must hold the session lock.
func (s *Session) History() []entities.ConversationTurn {
	history := make([]entities.ConversationTurn, len(s.turns))
	copy(history, s.turns)
	return history
}

// State returns the current turn state. Callers must hold the lock.
func (s *Session) State() TurnState {
	return s.state
}

func (s *Session) appendTurn(turn entities.ConversationTurn) {
	s.turns = append(s.turns, turn)
}

type sessionEntry struct {
	session  *Session
	lastSeen time.Time
}

// SessionManager hands out sessions by ID, creating them on first use.
// Histories are written through to the cache so sessions survive a
// restart; the cache is optional and failures degrade to memory-only.
// The in-process map mirrors the cache TTL: sessions idle past the TTL
// are evicted, their history still restorable from the cache.
type SessionManager struct {
	mu        sync.Mutex
	sessions  map[string]*sessionEntry
	nextSweep time.Time

	cache providers.CacheProvider
	ttl   time.Duration
	now   func() time.Time
}

// NewSessionManager creates a session manager. cache may be nil.
func NewSessionManager(cache providers.CacheProvider, ttlSeconds int) *SessionManager {
	ttl := time.Duration(ttlSeconds) * time.Second
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &SessionManager{
		sessions: make(map[string]*sessionEntry),
		cache:    cache,
		ttl:      ttl,
		now:      time.Now,
	}
}

// NewSessionID returns a fresh session identifier.
func NewSessionID() string {
	return uuid.NewString()
}

// Get returns the session for id, restoring history from the cache or
// creating a new session as needed. An empty id gets a fresh session.
func (m *SessionManager) Get(ctx context.Context, id string) *Session {
	if id == "" {
		id = NewSessionID()
	}

	m.mu.Lock()
	m.sweepLocked()
	if entry, ok := m.sessions[id]; ok {
		entry.lastSeen = m.now()
		m.mu.Unlock()
		return entry.session
	}
	m.mu.Unlock()

	// The cache read runs outside the manager lock so one slow restore
	// cannot stall first access for unrelated sessions.
	session := &Session{ID: id, state: StateIdle}
	if m.cache != nil {
		if data, err := m.cache.Get(ctx, sessionKey(id)); err == nil {
			var turns []entities.ConversationTurn
			if json.Unmarshal(data, &turns) == nil {
				session.turns = turns
			}
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if entry, ok := m.sessions[id]; ok {
		// Another goroutine restored the same id first; its session wins.
		entry.lastSeen = m.now()
		return entry.session
	}
	m.sessions[id] = &sessionEntry{session: session, lastSeen: m.now()}
	return session
}

// sweepLocked evicts sessions idle past the TTL so a long-running
// server does not hold one Session per id forever. Runs at most once
// per quarter TTL. Callers must hold the manager lock.
func (m *SessionManager) sweepLocked() {
	now := m.now()
	if now.Before(m.nextSweep) {
		return
	}
	m.nextSweep = now.Add(m.ttl / 4)
	for id, entry := range m.sessions {
		if now.Sub(entry.lastSeen) > m.ttl {
			delete(m.sessions, id)
		}
	}
}

// persist writes the session history through to the cache. Callers must
// hold the session lock.
func (m *SessionManager) persist(ctx context.Context, session *Session) {
	if m.cache == nil {
		return
	}
	data, err := json.Marshal(session.turns)
	if err != nil {
		return
	}
	_ = m.cache.Set(ctx, sessionKey(session.ID), data, int(m.ttl.Seconds()))
}

func sessionKey(id string) string {
	return "chat:session:" + id
}
