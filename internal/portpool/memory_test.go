package portpool

import "context"

// MemoryReclaimed is an in-memory ReclaimedStore for tests.
type MemoryReclaimed struct {
	Ports []int
}

// TakeReclaimed removes and returns the oldest port.
func (m *MemoryReclaimed) TakeReclaimed(ctx context.Context) (int, bool, error) {
	if len(m.Ports) == 0 {
		return 0, false, nil
	}
	port := m.Ports[0]
	m.Ports = m.Ports[1:]
	return port, true, nil
}

// PutReclaimed appends port.
func (m *MemoryReclaimed) PutReclaimed(ctx context.Context, port int) error {
	m.Ports = append(m.Ports, port)
	return nil
}

// Reclaimed returns a copy of the list.
func (m *MemoryReclaimed) Reclaimed(ctx context.Context) ([]int, error) {
	return append([]int(nil), m.Ports...), nil
}
