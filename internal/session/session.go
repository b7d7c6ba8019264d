// Package session owns the process-wide cache of active games. Exactly
// one *Session exists per game id while that game is in memory; the turn
// engine and delta engine only ever operate on the GameState a Session
// holds. Persistence is checkpoint-only: nothing hits the store on a
// normal turn, only on pause, disconnect, idle eviction, shutdown drain, or
// a terminal status.
package session

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/alexswiontek/dungeon-crawler/internal/idgen"
	"github.com/alexswiontek/dungeon-crawler/internal/state"
	"github.com/alexswiontek/dungeon-crawler/internal/store"
	"go.uber.org/zap"
)

// ErrTransportMismatch is returned by Resume when a game is already
// claimed by a different, still-attached transport.
var ErrTransportMismatch = errors.New("session: game already attached to another connection")

// Session is one in-memory game plus the bookkeeping the manager needs to
// checkpoint and evict it.
type Session struct {
	mu sync.Mutex

	GameState *state.GameState
	Rng       *rand.Rand
	EnemyIDs  *idgen.Generator
	ItemIDs   *idgen.Generator

	transportID  string
	lastActivity time.Time
	paused       bool
}

// Lock/Unlock let callers hold a session for the duration of one turn so
// two connections can never race the same GameState.
func (s *Session) Lock()   { s.mu.Lock() }
func (s *Session) Unlock() { s.mu.Unlock() }

// Touch records activity now, preventing idle eviction.
func (s *Session) Touch() {
	s.lastActivity = time.Now()
}

// Manager is the process-wide game-id -> Session cache.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	store       store.CheckpointStore
	idleTimeout time.Duration
	log         *zap.Logger

	stopCh chan struct{}
	once   sync.Once
}

// NewManager creates a Manager and starts its idle-eviction timer.
func NewManager(st store.CheckpointStore, idleTimeout time.Duration, log *zap.Logger) *Manager {
	m := &Manager{
		sessions:    make(map[string]*Session),
		store:       st,
		idleTimeout: idleTimeout,
		log:         log,
		stopCh:      make(chan struct{}),
	}
	go m.evictLoop()
	return m
}

// Register adds a freshly created game to the cache.
func (m *Manager) Register(gs *state.GameState, rng *rand.Rand, enemyIDs, itemIDs *idgen.Generator, transportID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess := &Session{
		GameState:    gs,
		Rng:          rng,
		EnemyIDs:     enemyIDs,
		ItemIDs:      itemIDs,
		transportID:  transportID,
		lastActivity: time.Now(),
	}
	m.sessions[gs.ID] = sess
	return sess
}

// Get returns the session for gameID, if present.
func (m *Manager) Get(gameID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[gameID]
	return sess, ok
}

// Resume reattaches a new transport connection to gameID's session,
// loading it from the checkpoint store if it isn't already in memory. It
// refuses to hand back a session already claimed by a different,
// currently-attached transport.
func (m *Manager) Resume(ctx context.Context, gameID, transportID string) (*Session, error) {
	m.mu.Lock()
	sess, ok := m.sessions[gameID]
	m.mu.Unlock()
	if ok {
		sess.Lock()
		defer sess.Unlock()
		if sess.transportID != "" && sess.transportID != transportID && !sess.paused {
			return nil, ErrTransportMismatch
		}
		sess.transportID = transportID
		sess.paused = false
		sess.Touch()
		return sess, nil
	}

	rec, err := m.store.LoadGame(ctx, gameID)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	restored := &Session{
		GameState:    rec.State,
		Rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		EnemyIDs:     idgen.New("enemy"),
		ItemIDs:      idgen.New("item"),
		transportID:  transportID,
		lastActivity: time.Now(),
	}
	m.sessions[gameID] = restored
	return restored, nil
}

// Pause detaches the current transport from a session without evicting
// it, so a later Resume with any transport id may reclaim it.
func (m *Manager) Pause(gameID string) {
	m.mu.Lock()
	sess, ok := m.sessions[gameID]
	m.mu.Unlock()
	if !ok {
		return
	}
	sess.Lock()
	sess.paused = true
	sess.transportID = ""
	sess.Unlock()
}

// Checkpoint persists the current state of gameID without removing it
// from the in-memory cache.
func (m *Manager) Checkpoint(ctx context.Context, gameID string) error {
	m.mu.Lock()
	sess, ok := m.sessions[gameID]
	m.mu.Unlock()
	if !ok {
		return nil
	}
	sess.Lock()
	rec := store.CheckpointRecord{
		GameID:     sess.GameState.ID,
		PlayerName: sess.GameState.PlayerName,
		State:      sess.GameState,
	}
	sess.Unlock()
	return m.store.SaveGame(ctx, rec)
}

// Unregister checkpoints and removes gameID from the in-memory cache. If
// the game ended in a terminal state, the store's checkpoint is removed
// instead of kept, since a dead or won run is never resumed.
func (m *Manager) Unregister(ctx context.Context, gameID string) error {
	m.mu.Lock()
	sess, ok := m.sessions[gameID]
	delete(m.sessions, gameID)
	m.mu.Unlock()
	if !ok {
		return nil
	}

	sess.Lock()
	terminal := sess.GameState.Status != state.StatusActive
	rec := store.CheckpointRecord{
		GameID:     sess.GameState.ID,
		PlayerName: sess.GameState.PlayerName,
		State:      sess.GameState,
	}
	sess.Unlock()

	if terminal {
		return m.store.DeleteGame(ctx, gameID)
	}
	return m.store.SaveGame(ctx, rec)
}

// Stop halts the idle-eviction timer. Safe to call multiple times.
func (m *Manager) Stop() {
	m.once.Do(func() { close(m.stopCh) })
}

// DrainAll checkpoints every in-memory session, used on graceful shutdown.
func (m *Manager) DrainAll(ctx context.Context) {
	m.mu.Lock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		if err := m.Checkpoint(ctx, id); err != nil {
			m.log.Error("checkpoint during drain failed", zap.String("gameId", id), zap.Error(err))
		}
	}
}

func (m *Manager) evictLoop() {
	ticker := time.NewTicker(m.idleTimeout / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.evictIdle()
		case <-m.stopCh:
			return
		}
	}
}

// evictIdle drops sessions that have been idle past the timeout. Paused
// sessions are exempt: a paused game waits in memory for its owner to
// resume from any transport, however long that takes.
func (m *Manager) evictIdle() {
	m.mu.Lock()
	var stale []string
	now := time.Now()
	for id, sess := range m.sessions {
		sess.Lock()
		idle := !sess.paused && now.Sub(sess.lastActivity) >= m.idleTimeout
		sess.Unlock()
		if idle {
			stale = append(stale, id)
		}
	}
	m.mu.Unlock()

	for _, id := range stale {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := m.Unregister(ctx, id); err != nil {
			// The store being unreachable must not keep a dead session
			// pinned in memory forever; log and evict anyway.
			m.log.Error("idle eviction checkpoint failed", zap.String("gameId", id), zap.Error(err))
			m.mu.Lock()
			delete(m.sessions, id)
			m.mu.Unlock()
		}
		cancel()
	}
}
