package mqtt

import (
	"context"
	"fmt"
	"sync"

	"github.com/kilianp07/ridedispatch/core/model"
)

// MockNotifier records assignments instead of publishing them.
type MockNotifier struct {
	Sent    []model.Outcome
	FailIDs map[int]bool
	mu      sync.Mutex
}

// NewMockNotifier creates a new MockNotifier.
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{FailIDs: make(map[int]bool)}
}

// NotifyAssignment records the outcome or returns an error if the vehicle
// is configured to fail.
func (m *MockNotifier) NotifyAssignment(_ context.Context, out model.Outcome) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailIDs[out.VehicleID] {
		return fmt.Errorf("publish to vehicle %d failed", out.VehicleID)
	}
	m.Sent = append(m.Sent, out)
	return nil
}

// Outcomes returns a copy of the recorded assignments.
func (m *MockNotifier) Outcomes() []model.Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Outcome, len(m.Sent))
	copy(out, m.Sent)
	return out
}
