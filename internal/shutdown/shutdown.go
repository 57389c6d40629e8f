package shutdown

import (
	"context"
	"sync"
	"time"
)

// Manager collects cleanup functions to run once the job has finished.
// Functions run in reverse registration order (LIFO).
type Manager struct {
	cleanupFuncs []func(context.Context) error
	mu           sync.Mutex
	timeout      time.Duration
	once         sync.Once
}

// New creates a cleanup manager with an overall timeout
func New(timeout time.Duration) *Manager {
	return &Manager{timeout: timeout}
}

// Register adds a cleanup function
func (m *Manager) Register(fn func(context.Context) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleanupFuncs = append(m.cleanupFuncs, fn)
}

// Run executes all registered cleanup functions exactly once.
// Errors are collected rather than aborting the sequence.
func (m *Manager) Run() []error {
	var errs []error
	m.once.Do(func() {
		m.mu.Lock()
		defer m.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()

		for i := len(m.cleanupFuncs) - 1; i >= 0; i-- {
			if err := m.cleanupFuncs[i](ctx); err != nil {
				errs = append(errs, err)
			}
		}
	})
	return errs
}
