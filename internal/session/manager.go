package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/shift-planner-api/pkg/errors"
)

// Gauge receives the number of open sessions.
type Gauge interface {
	SetActiveSessions(n int)
}

// ManagerConfig tunes session eviction.
type ManagerConfig struct {
	IdleTTL time.Duration
}

// Manager owns every open planning session.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*State
	idleTTL  time.Duration
	gauge    Gauge
	logger   *zap.Logger
	now      func() time.Time
}

// NewManager constructs an empty session manager.
func NewManager(cfg ManagerConfig, gauge Gauge, logger *zap.Logger) *Manager {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 2 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		sessions: make(map[string]*State),
		idleTTL:  cfg.IdleTTL,
		gauge:    gauge,
		logger:   logger,
		now:      time.Now,
	}
}

// Create opens a new session.
func (m *Manager) Create() *State {
	state := newState(uuid.NewString(), m.now())

	m.mu.Lock()
	m.sessions[state.ID] = state
	n := len(m.sessions)
	m.mu.Unlock()

	m.report(n)
	m.logger.Sugar().Infow("session opened", "session_id", state.ID)
	return state
}

// Get returns an open session and records activity on it.
func (m *Manager) Get(id string) (*State, error) {
	m.mu.RLock()
	state, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, appErrors.ErrSessionNotFound
	}
	state.Touch()
	return state, nil
}

// Close tears a session down and cancels its poll loop.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	state, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	n := len(m.sessions)
	m.mu.Unlock()

	if !ok {
		return appErrors.ErrSessionNotFound
	}
	state.close()
	m.report(n)
	m.logger.Sugar().Infow("session closed", "session_id", id)
	return nil
}

// Len reports the number of open sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// StartCleanup boots a goroutine that evicts idle sessions periodically.
func (m *Manager) StartCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.EvictIdle()
			}
		}
	}()
}

// EvictIdle closes sessions idle for longer than the configured TTL. Sessions
// with a running poll loop are kept.
func (m *Manager) EvictIdle() int {
	cutoff := m.now().Add(-m.idleTTL)

	m.mu.RLock()
	var stale []string
	for id, state := range m.sessions {
		if state.LastSeen().Before(cutoff) && !state.LoopRunning() {
			stale = append(stale, id)
		}
	}
	m.mu.RUnlock()

	evicted := 0
	for _, id := range stale {
		if err := m.Close(id); err == nil {
			evicted++
		}
	}
	if evicted > 0 {
		m.logger.Sugar().Infow("idle sessions evicted", "count", evicted)
	}
	return evicted
}

// Shutdown closes every session.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	states := make([]*State, 0, len(m.sessions))
	for id, state := range m.sessions {
		states = append(states, state)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	for _, state := range states {
		state.close()
	}
	m.report(0)
	m.logger.Sugar().Infow("sessions shut down", "count", len(states))
}

func (m *Manager) report(n int) {
	if m.gauge != nil {
		m.gauge.SetActiveSessions(n)
	}
}
