package inbound

import (
	"context"
	"io"

	"github.com/alchemorsel/fridgechef/internal/domain/chat"
	"github.com/alchemorsel/fridgechef/internal/ports/outbound"
)

// ChatService runs chat turns against the recipe suggestion backend
type ChatService interface {
	// Open validates the request and starts an upstream turn. The returned
	// body must be closed by the caller.
	Open(ctx context.Context, req outbound.ChatRequest) (io.ReadCloser, error)

	// Relay copies body to w unchanged while reducing every event on the way.
	// The reduced state is returned even when the copy stops early.
	Relay(ctx context.Context, body io.Reader, w io.Writer) (chat.State, error)

	// Run executes a whole turn and calls onUpdate with a fresh view after
	// every applied event.
	Run(ctx context.Context, req outbound.ChatRequest, onUpdate func(chat.TurnView) error) (chat.State, error)
}
