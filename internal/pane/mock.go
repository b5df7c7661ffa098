package pane

import (
	"context"
	"sync"
)

// MockRunner is a configurable Runner for tests. Behavior is scripted
// per call through DispatchResults or overridden wholesale with
// DispatchFunc.
type MockRunner struct {
	mu sync.Mutex

	// DispatchFunc, when set, handles every Dispatch call.
	DispatchFunc func(ctx context.Context, promptPath string) error

	// DispatchResults are returned in order; calls past the end return
	// nil.
	DispatchResults []error

	// DispatchCalls records the prompt path of each Dispatch call.
	DispatchCalls []string

	// InterruptCalls counts Interrupt invocations.
	InterruptCalls int
}

// NewMockRunner creates a MockRunner whose calls all succeed.
func NewMockRunner() *MockRunner {
	return &MockRunner{}
}

// Dispatch records the call and returns the next scripted result.
func (m *MockRunner) Dispatch(ctx context.Context, promptPath string) error {
	m.mu.Lock()
	m.DispatchCalls = append(m.DispatchCalls, promptPath)
	n := len(m.DispatchCalls)
	fn := m.DispatchFunc
	var scripted error
	if n <= len(m.DispatchResults) {
		scripted = m.DispatchResults[n-1]
	}
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, promptPath)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return scripted
}

// Interrupt records the call.
func (m *MockRunner) Interrupt(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InterruptCalls++
	return nil
}

// Calls returns how many times Dispatch was invoked.
func (m *MockRunner) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.DispatchCalls)
}
