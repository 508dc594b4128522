package transcript

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/modules/topics"
	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/pubsub"
)

// OutboxLog follows the system side of every conversation on the outbox bus,
// the way a transport would.
type OutboxLog struct {
	logger *slog.Logger

	mu     sync.Mutex
	counts map[string]int // userID -> messages delivered
	last   map[string][]string
}

// NewOutboxLog creates an empty outbox follower.
func NewOutboxLog(logger *slog.Logger) *OutboxLog {
	if logger == nil {
		logger = slog.Default().With("component", "outbox_log")
	}
	return &OutboxLog{
		logger: logger,
		counts: make(map[string]int),
		last:   make(map[string][]string),
	}
}

// Subscribe starts following sys_utterance messages on sub until ctx is cancelled.
func (o *OutboxLog) Subscribe(ctx context.Context, sub pubsub.Subscriber) error {
	if err := sub.Subscribe(ctx, topics.SysUtterance.Name(), o.handle); err != nil {
		return fmt.Errorf("failed to subscribe to outbox: %w", err)
	}
	return nil
}

func (o *OutboxLog) handle(ctx context.Context, msg pubsub.Message) error {
	messages, err := pubsub.Decode[[]string](msg)
	if err != nil {
		// The fallback is published as a plain string.
		text, serr := pubsub.Decode[string](msg)
		if serr != nil {
			return err
		}
		messages = []string{text}
	}

	o.mu.Lock()
	o.counts[msg.UserID]++
	o.last[msg.UserID] = messages
	o.mu.Unlock()

	o.logger.Info("System utterance delivered",
		"user_id", msg.UserID,
		"turn_id", msg.Metadata[pubsub.MetaTurnID],
		"messages", messages)
	return nil
}

// Delivered returns how many outbox messages userID has received.
func (o *OutboxLog) Delivered(userID string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.counts[userID]
}

// Last returns the most recent messages delivered to userID.
func (o *OutboxLog) Last(userID string) []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.last[userID]
}
