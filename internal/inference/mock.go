package inference

import (
	"context"
	"fmt"
	"time"
)

// MockClient is a canned inference client for development and tests.
type MockClient struct {
	// Reply overrides the default canned response when set.
	Reply func(prompt string) (string, error)
	// Delay simulates backend latency before answering.
	Delay time.Duration
}

// NewMockClient creates a mock client with the default canned reply.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// Generate implements Client. It honors ctx cancellation during the
// simulated delay.
func (m *MockClient) Generate(ctx context.Context, prompt string) (string, error) {
	if m.Delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(m.Delay):
		}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if m.Reply != nil {
		return m.Reply(prompt)
	}
	return fmt.Sprintf("I hear you. Hang in there, one craving at a time! (prompt length: %d)", len(prompt)), nil
}
