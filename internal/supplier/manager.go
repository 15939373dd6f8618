package supplier

import (
	"sync"
	"time"

	"github.com/compranal/supplier_portal/internal/logging"
)

// Manager hands out one Session per token. Sessions hold only view state;
// losing one costs a re-validation and a re-fetch, nothing more.
type Manager struct {
	api    OrdersAPI
	logger *logging.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a session manager.
func NewManager(api OrdersAPI, logger *logging.Logger) *Manager {
	if logger == nil {
		logger = logging.NewDefault("supplier")
	}
	return &Manager{
		api:      api,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// Session returns the session for token, creating it on first use.
func (m *Manager) Session(token string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[token]; ok {
		return s
	}
	s := NewSession(token, m.api, m.logger)
	m.sessions[token] = s
	return s
}

// Cleanup drops sessions idle longer than maxIdle.
func (m *Manager) Cleanup(maxIdle time.Duration) {
	cutoff := time.Now().Add(-maxIdle)

	m.mu.Lock()
	defer m.mu.Unlock()
	for token, s := range m.sessions {
		if s.LastSeen().Before(cutoff) {
			delete(m.sessions, token)
		}
	}
}

// StartCleanup starts a background goroutine that prunes idle sessions
// until stop is closed.
func (m *Manager) StartCleanup(interval, maxIdle time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.Cleanup(maxIdle)
			case <-stop:
				return
			}
		}
	}()
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
