package testutils

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/alchemorsel/fridgechef/internal/ports/outbound"
	"github.com/stretchr/testify/mock"
)

// MockChatBackend provides a mock implementation of outbound.ChatBackend
type MockChatBackend struct {
	mock.Mock
}

// Stream returns the body configured for the call
func (m *MockChatBackend) Stream(ctx context.Context, req outbound.ChatRequest) (io.ReadCloser, error) {
	args := m.Called(ctx, req)
	if args.Error(1) != nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), nil
}

// Ping checks reachability
func (m *MockChatBackend) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// NDJSONBody joins lines into a closable NDJSON body
func NDJSONBody(lines ...string) io.ReadCloser {
	return io.NopCloser(strings.NewReader(strings.Join(lines, "\n") + "\n"))
}

// MockMetrics counts what the application reports
type MockMetrics struct {
	mu           sync.Mutex
	ChatEvents   map[string]int
	ChatTurns    map[string]int
	RecipesSaved int
}

// NewMockMetrics creates an empty recorder
func NewMockMetrics() *MockMetrics {
	return &MockMetrics{
		ChatEvents: make(map[string]int),
		ChatTurns:  make(map[string]int),
	}
}

var _ outbound.MetricsRecorder = (*MockMetrics)(nil)

// RecordChatEvent counts a reduced chat event
func (m *MockMetrics) RecordChatEvent(eventType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ChatEvents[eventType]++
}

// RecordChatTurn counts a finished turn
func (m *MockMetrics) RecordChatTurn(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ChatTurns[outcome]++
}

// RecordRecipeSaved counts a saved recipe
func (m *MockMetrics) RecordRecipeSaved() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RecipesSaved++
}
