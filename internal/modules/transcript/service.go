package transcript

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/modules/acts"
	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/modules/topics"
	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/service"
	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/sessionstore"
)

// Name is the service name and state namespace.
const Name = "transcript"

// DefaultMaxEntries bounds the transcript kept per session.
const DefaultMaxEntries = 200

const entriesKey = "entries"

// Speaker identifies who said something.
type Speaker string

const (
	SpeakerUser   Speaker = "user"
	SpeakerSystem Speaker = "system"
)

// Entry is one line of the conversation.
type Entry struct {
	Speaker Speaker   `json:"speaker"`
	Text    string    `json:"text"`
	At      time.Time `json:"at"`
}

// Service records both sides of every conversation in its session state.
type Service struct {
	service.Base
	max    int
	now    func() time.Time
	logger *slog.Logger
}

// Compile-time interface compliance check
var _ service.DialogStarter = (*Service)(nil)

// New creates a transcript recorder keeping at most maxEntries per session.
// Non-positive values use DefaultMaxEntries.
func New(maxEntries int) *Service {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Service{
		Base:   service.NewBase(Name),
		max:    maxEntries,
		now:    sessionstore.Now,
		logger: slog.Default().With("service", Name),
	}
}

// Register declares one recording handler per side of the conversation.
func (s *Service) Register(r *service.Registrar) error {
	if err := r.Handle("record_user", s.recordUser,
		service.Consumes(topics.UserUtterance.Name())); err != nil {
		return err
	}
	return r.Handle("record_system", s.recordSystem,
		service.Consumes(topics.SysUtterance.Name()))
}

// DialogStart clears the previous conversation.
func (s *Service) DialogStart(ctx context.Context, userID string) error {
	s.State().Delete(userID, entriesKey)
	return nil
}

// Transcript returns a copy of the recorded conversation of userID.
func (s *Service) Transcript(userID string) []Entry {
	entries, _ := sessionstore.GetAs[[]Entry](s.State(), userID, entriesKey)
	return slices.Clone(entries)
}

func (s *Service) recordUser(ctx context.Context, userID string, in service.Inputs) (service.Outputs, error) {
	text := in.String(topics.UserUtterance.Name())
	if text == "" {
		return nil, nil
	}
	s.append(userID, Entry{Speaker: SpeakerUser, Text: text, At: s.now()})
	return nil, nil
}

func (s *Service) recordSystem(ctx context.Context, userID string, in service.Inputs) (service.Outputs, error) {
	messages, err := acts.Decode[[]string](in[topics.SysUtterance.Name()])
	if err != nil {
		return nil, fmt.Errorf("invalid system utterance: %w", err)
	}
	now := s.now()
	for _, m := range messages {
		s.append(userID, Entry{Speaker: SpeakerSystem, Text: m, At: now})
	}
	return nil, nil
}

func (s *Service) append(userID string, e Entry) {
	entries, _ := sessionstore.GetAs[[]Entry](s.State(), userID, entriesKey)
	entries = append(slices.Clone(entries), e)
	if len(entries) > s.max {
		entries = entries[len(entries)-s.max:]
	}
	s.State().Set(userID, entriesKey, entries)
	s.logger.Debug("Transcript entry", "user_id", userID, "speaker", e.Speaker, "text", e.Text)
}
