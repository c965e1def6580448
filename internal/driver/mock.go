package driver

import (
	"context"
	"sync"
)

// MockController is a test double for the Controller interface
type MockController struct {
	name string

	// Function mocks - set these to customize behavior
	StartFunc   func(ctx context.Context) error
	StopFunc    func(ctx context.Context) error
	RestartFunc func(ctx context.Context) error
	ReloadFunc  func(ctx context.Context) error
	TestFunc    func(ctx context.Context) error

	// Call tracking - check these to verify interactions
	mu    sync.Mutex
	Calls []Verb
}

// NewMockController creates a new MockController with no-op implementations
func NewMockController(name string) *MockController {
	return &MockController{name: name, Calls: make([]Verb, 0)}
}

// Name returns the driver name
func (m *MockController) Name() string {
	return m.name
}

func (m *MockController) record(ctx context.Context, verb Verb, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	m.Calls = append(m.Calls, verb)
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx)
	}
	return nil
}

// Start records the call and invokes the mock function if set
func (m *MockController) Start(ctx context.Context) error {
	return m.record(ctx, VerbStart, m.StartFunc)
}

// Stop records the call and invokes the mock function if set
func (m *MockController) Stop(ctx context.Context) error {
	return m.record(ctx, VerbStop, m.StopFunc)
}

// Restart records the call and invokes the mock function if set
func (m *MockController) Restart(ctx context.Context) error {
	return m.record(ctx, VerbRestart, m.RestartFunc)
}

// Reload records the call and invokes the mock function if set
func (m *MockController) Reload(ctx context.Context) error {
	return m.record(ctx, VerbReload, m.ReloadFunc)
}

// Test records the call and invokes the mock function if set
func (m *MockController) Test(ctx context.Context) error {
	return m.record(ctx, VerbTest, m.TestFunc)
}

// Count returns how many times verb was called
func (m *MockController) Count(verb Verb) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, v := range m.Calls {
		if v == verb {
			n++
		}
	}
	return n
}

// Reset clears all call tracking
func (m *MockController) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = make([]Verb, 0)
}
