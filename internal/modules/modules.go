package modules

import (
	"fmt"

	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/modules/bst"
	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/modules/nlg"
	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/modules/nlu"
	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/modules/policy"
	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/modules/transcript"
	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/script"
	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/service"
)

// Dependencies holds what the pipeline services need from the application.
type Dependencies struct {
	ScriptEngine         *script.TengoEngine
	NLGOptions           []nlg.Option
	TranscriptMaxEntries int
}

// Pipeline bundles the services of the demonstration pipeline.
type Pipeline struct {
	NLU        *nlu.Service
	BST        *bst.Service
	Policy     *script.Service
	NLG        *nlg.Service
	Transcript *transcript.Service
}

// New creates every service of the pipeline.
func New(deps Dependencies) (*Pipeline, error) {
	pol, err := policy.New(deps.ScriptEngine)
	if err != nil {
		return nil, fmt.Errorf("failed to create policy: %w", err)
	}
	gen, err := nlg.New(deps.NLGOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to create nlg: %w", err)
	}

	return &Pipeline{
		NLU:        nlu.New(),
		BST:        bst.New(),
		Policy:     pol,
		NLG:        gen,
		Transcript: transcript.New(deps.TranscriptMaxEntries),
	}, nil
}

// Services returns the services in registration order.
// This is the single source of truth for which features are enabled.
func (p *Pipeline) Services() []service.Service {
	return []service.Service{
		p.NLU,
		p.BST,
		p.Policy,
		p.NLG,
		p.Transcript,
	}
}
