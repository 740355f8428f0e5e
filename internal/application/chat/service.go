// Package chat provides the application layer for chat turns against the
// recipe suggestion backend.
package chat

import (
	"context"
	"encoding/base64"
	stderrors "errors"
	"io"
	"strings"

	"github.com/alchemorsel/fridgechef/internal/domain/chat"
	"github.com/alchemorsel/fridgechef/internal/ports/inbound"
	"github.com/alchemorsel/fridgechef/internal/ports/outbound"
	"github.com/alchemorsel/fridgechef/pkg/errors"
	"go.uber.org/zap"
)

// Turn outcomes reported to metrics and logs
const (
	OutcomeComplete   = "complete"
	OutcomeError      = "error"
	OutcomeMessage    = "message"
	OutcomeIncomplete = "incomplete"
	OutcomeAborted    = "aborted"
)

// maxLoggedLine caps how much of a malformed line ends up in the log
const maxLoggedLine = 256

// ChatService implements inbound.ChatService
type ChatService struct {
	backend       outbound.ChatBackend
	metrics       outbound.MetricsRecorder
	maxImageBytes int64
	logger        *zap.Logger
}

// NewChatService creates a new chat service. metrics may be nil.
func NewChatService(
	backend outbound.ChatBackend,
	metrics outbound.MetricsRecorder,
	maxImageBytes int64,
	logger *zap.Logger,
) *ChatService {
	return &ChatService{
		backend:       backend,
		metrics:       metrics,
		maxImageBytes: maxImageBytes,
		logger:        logger.Named("chat-service"),
	}
}

var _ inbound.ChatService = (*ChatService)(nil)

// Validate checks a request before it is forwarded
func (s *ChatService) Validate(req outbound.ChatRequest) error {
	if strings.TrimSpace(req.Message) == "" && strings.TrimSpace(req.ImageBase64) == "" {
		return errors.NewValidationError("Message or image is required")
	}
	if s.maxImageBytes > 0 && imageSize(req.ImageBase64) > s.maxImageBytes {
		return errors.NewValidationError("Image too large")
	}
	return nil
}

// Open validates the request and starts the upstream turn
func (s *ChatService) Open(ctx context.Context, req outbound.ChatRequest) (io.ReadCloser, error) {
	if err := s.Validate(req); err != nil {
		return nil, err
	}

	s.logger.Info("Starting chat turn",
		zap.Bool("has_message", req.Message != ""),
		zap.Bool("has_image", req.ImageBase64 != ""),
	)

	body, err := s.backend.Stream(ctx, req)
	if err != nil {
		s.record(OutcomeAborted)
		if _, ok := errors.As(err); ok {
			return nil, err
		}
		return nil, errors.NewExternalServiceError("chat backend", err)
	}
	return body, nil
}

// Relay copies body to w as it is read and reduces every event it carries
func (s *ChatService) Relay(ctx context.Context, body io.Reader, w io.Writer) (chat.State, error) {
	t := s.newTurn()
	err := chat.ReadEvents(ctx, io.TeeReader(body, w), t.decoder, func(ev chat.Event) error {
		t.apply(ev)
		return nil
	})
	return s.finish(t, err)
}

// Run executes a whole turn, reporting a view after every applied event
func (s *ChatService) Run(ctx context.Context, req outbound.ChatRequest, onUpdate func(chat.TurnView) error) (chat.State, error) {
	body, err := s.Open(ctx, req)
	if err != nil {
		return chat.NewState(), err
	}
	defer body.Close()

	t := s.newTurn()
	err = chat.ReadEvents(ctx, body, t.decoder, func(ev chat.Event) error {
		if !t.apply(ev) {
			return nil
		}
		return onUpdate(t.state.View())
	})
	return s.finish(t, err)
}

// turn is the mutable wrapper around one reduced turn
type turn struct {
	state   chat.State
	decoder *chat.Decoder
	logger  *zap.Logger
	metrics outbound.MetricsRecorder
}

func (s *ChatService) newTurn() *turn {
	t := &turn{
		state:   chat.NewState(),
		logger:  s.logger,
		metrics: s.metrics,
	}
	t.decoder = chat.NewDecoder(func(line []byte, err error) {
		if len(line) > maxLoggedLine {
			line = line[:maxLoggedLine]
		}
		t.logger.Warn("Skipping malformed chat line",
			zap.ByteString("line", line),
			zap.Error(err),
		)
	})
	return t
}

// apply folds ev into the turn and reports whether the state changed
func (t *turn) apply(ev chat.Event) bool {
	next, err := chat.Apply(t.state, ev)
	if err != nil {
		fields := []zap.Field{zap.String("type", string(ev.Type)), zap.Error(err)}
		if ev.Step != nil {
			fields = append(fields, zap.String("step", ev.Step.StepName))
		}
		t.logger.Warn("Ignoring chat event", fields...)
		return false
	}

	t.state = next
	if t.metrics != nil {
		t.metrics.RecordChatEvent(string(ev.Type))
	}
	return true
}

func (s *ChatService) finish(t *turn, err error) (chat.State, error) {
	outcome := Outcome(t.state)
	if err != nil {
		outcome = OutcomeAborted
	}
	s.record(outcome)

	fields := []zap.Field{
		zap.String("outcome", outcome),
		zap.Int("recipes", len(t.state.Recipes)),
	}
	for _, step := range chat.Steps {
		fields = append(fields, zap.String(step.String(), string(t.state.Step(step).Status)))
	}

	if err != nil {
		if stderrors.Is(err, context.Canceled) {
			s.logger.Info("Chat turn cancelled", fields...)
		} else {
			s.logger.Warn("Chat turn aborted", append(fields, zap.Error(err))...)
		}
		return t.state, errors.NewExternalServiceError("chat backend", err)
	}

	s.logger.Info("Chat turn finished", fields...)
	return t.state, nil
}

func (s *ChatService) record(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordChatTurn(outcome)
	}
}

// Outcome classifies a finished turn
func Outcome(s chat.State) string {
	switch {
	case s.Complete:
		return OutcomeComplete
	case s.Reply != "":
		return OutcomeMessage
	case s.Error != "":
		return OutcomeError
	}
	for _, step := range chat.Steps {
		if s.Step(step).Status == chat.StatusError {
			return OutcomeError
		}
	}
	return OutcomeIncomplete
}

// imageSize estimates the decoded size of a base64 image, accepting an
// optional data URL prefix.
func imageSize(image string) int64 {
	if strings.HasPrefix(image, "data:") {
		if i := strings.IndexByte(image, ','); i >= 0 {
			image = image[i+1:]
		}
	}
	image = strings.TrimRight(strings.TrimSpace(image), "=")
	return int64(base64.RawStdEncoding.DecodedLen(len(image)))
}
