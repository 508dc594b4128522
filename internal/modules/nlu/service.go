package nlu

import (
	"context"
	"log/slog"
	"strings"
	"unicode"

	"golang.org/x/text/cases"

	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/modules/acts"
	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/modules/topics"
	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/service"
)

// Name is the service name and state namespace.
const Name = "nlu"

// keywords maps case-folded tokens to intents. Checked in declaration order.
var keywords = []struct {
	intent acts.Intent
	words  []string
}{
	{acts.IntentGreet, []string{"hello", "hi", "hey", "hallo", "moin", "servus"}},
	{acts.IntentHelp, []string{"help", "hilfe", "how", "wie"}},
	{acts.IntentThanks, []string{"thanks", "thank", "danke"}},
	{acts.IntentBye, []string{"bye", "goodbye", "tschüss", "ciao", "exit"}},
}

// Service extracts user acts from utterances by keyword matching.
type Service struct {
	service.Base
	logger *slog.Logger
}

// New creates the keyword NLU.
func New() *Service {
	return &Service{
		Base:   service.NewBase(Name),
		logger: slog.Default().With("service", Name),
	}
}

// Register declares the extraction handler.
func (s *Service) Register(r *service.Registrar) error {
	return r.Handle("extract", s.extract,
		service.Consumes(topics.UserUtterance.Name()),
		service.Produces(topics.UserActs.Name()))
}

func (s *Service) extract(ctx context.Context, userID string, in service.Inputs) (service.Outputs, error) {
	text := in.String(topics.UserUtterance.Name())
	userActs := Parse(text)
	s.logger.Debug("Extracted user acts", "user_id", userID, "acts", userActs)
	return service.Outputs{topics.UserActs.Name(): userActs}, nil
}

// Parse recognises acts in text. Blank text opens a dialog; text without any
// keyword is a single bad act.
func Parse(text string) []acts.UserAct {
	if strings.TrimSpace(text) == "" {
		return []acts.UserAct{{Intent: acts.IntentStart}}
	}

	tokens := map[string]bool{}
	fold := cases.Fold()
	for _, tok := range strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		tokens[fold.String(tok)] = true
	}

	var found []acts.UserAct
	for _, kw := range keywords {
		for _, w := range kw.words {
			if tokens[fold.String(w)] {
				found = append(found, acts.UserAct{Intent: kw.intent, Text: text})
				break
			}
		}
	}
	if len(found) == 0 {
		return []acts.UserAct{{Intent: acts.IntentBad, Text: text}}
	}
	return found
}
