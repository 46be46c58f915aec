package snowflake

import "sync"

// MockGenerator is a test implementation of Generator.
// Use in unit tests that should not depend on the wall clock.
type MockGenerator struct {
	AllocateFunc func() (ID, error)

	mu   sync.Mutex
	next ID
}

// Allocate implements Generator.
func (m *MockGenerator) Allocate() (ID, error) {
	if m.AllocateFunc != nil {
		return m.AllocateFunc()
	}
	// Default: sequential IDs on node 1 at 1000ms past Epoch
	m.mu.Lock()
	defer m.mu.Unlock()
	id := Compose(1000, 1, uint64(m.next))
	m.next++
	return id, nil
}

// Ensure compile-time interface compliance.
var _ Generator = (*MockGenerator)(nil)
