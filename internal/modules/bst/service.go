package bst

import (
	"context"
	"fmt"

	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/modules/acts"
	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/modules/topics"
	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/service"
	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/sessionstore"
)

// Name is the service name and state namespace.
const Name = "bst"

const beliefKey = "beliefstate"

// Service tracks the belief state of each session.
type Service struct {
	service.Base
}

// Compile-time interface compliance check
var _ service.DialogStarter = (*Service)(nil)

// New creates the belief state tracker.
func New() *Service {
	return &Service{Base: service.NewBase(Name)}
}

// Register declares the update handler.
func (s *Service) Register(r *service.Registrar) error {
	return r.Handle("update", s.update,
		service.Consumes(topics.UserActs.Name()),
		service.Produces(topics.BeliefState.Name()))
}

// DialogStart resets the belief state.
func (s *Service) DialogStart(ctx context.Context, userID string) error {
	s.State().Set(userID, beliefKey, newBelief())
	return nil
}

func newBelief() acts.BeliefState {
	return acts.BeliefState{Intents: map[acts.Intent]int{}}
}

func (s *Service) update(ctx context.Context, userID string, in service.Inputs) (service.Outputs, error) {
	userActs, err := acts.Decode[[]acts.UserAct](in[topics.UserActs.Name()])
	if err != nil {
		return nil, fmt.Errorf("invalid user acts: %w", err)
	}

	bs, ok := sessionstore.GetAs[acts.BeliefState](s.State(), userID, beliefKey)
	if !ok {
		bs = newBelief()
	}

	next := acts.BeliefState{
		LastIntent: bs.LastIntent,
		Turns:      bs.Turns + 1,
		Intents:    make(map[acts.Intent]int, len(bs.Intents)+len(userActs)),
	}
	for intent, n := range bs.Intents {
		next.Intents[intent] = n
	}
	for _, a := range userActs {
		next.Intents[a.Intent]++
		next.LastIntent = a.Intent
	}

	s.State().Set(userID, beliefKey, next)
	return service.Outputs{topics.BeliefState.Name(): next}, nil
}
