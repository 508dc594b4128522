// Package simulation replays scripted conversations against a dialog system.
//
// A script is a YAML document:
//
//	user_id: student
//	seed_topic: user_utterance
//	turns:
//	  - ""
//	  - hello
//	  - {user_utterance: bye}
//
// Plain string turns are sent on seed_topic; mapping turns are used as the
// seed as they are. The first turn starts the dialog.
package simulation

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/dialog"
)

// DefaultSeedTopic is used for plain string turns when the script names none.
const DefaultSeedTopic = "user_utterance"

// ErrEmptyTurn is returned for a mapping turn without any topic.
var ErrEmptyTurn = errors.New("turn has no topics")

var validate = validator.New()

// Script is a recorded conversation.
type Script struct {
	UserID    string `yaml:"user_id" validate:"required"`
	SeedTopic string `yaml:"seed_topic"`
	Turns     []Turn `yaml:"turns" validate:"required,min=1"`
}

// Turn is one user turn: either text for the seed topic or a full seed.
type Turn struct {
	Text string
	Seed map[string]any
}

// UnmarshalYAML accepts a scalar or a mapping.
func (t *Turn) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		return node.Decode(&t.Text)
	case yaml.MappingNode:
		if err := node.Decode(&t.Seed); err != nil {
			return err
		}
		if len(t.Seed) == 0 {
			return fmt.Errorf("line %d: %w", node.Line, ErrEmptyTurn)
		}
		return nil
	default:
		return fmt.Errorf("line %d: turn must be a string or a mapping", node.Line)
	}
}

// Seeds converts the turns into dialog seeds.
func (s *Script) Seeds() []dialog.Seed {
	topic := s.SeedTopic
	if topic == "" {
		topic = DefaultSeedTopic
	}
	seeds := make([]dialog.Seed, 0, len(s.Turns))
	for _, t := range s.Turns {
		if t.Seed != nil {
			seeds = append(seeds, dialog.Seed(t.Seed))
			continue
		}
		seeds = append(seeds, dialog.Seed{topic: t.Text})
	}
	return seeds
}

// Parse decodes and validates a script.
func Parse(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse script: %w", err)
	}
	if err := validate.Struct(&s); err != nil {
		return nil, fmt.Errorf("invalid script: %w", err)
	}
	return &s, nil
}

// Load reads a script from fs.
func Load(fs afero.Fs, path string) (*Script, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script %s: %w", path, err)
	}
	return Parse(data)
}

// Runner plays a whole conversation. *dialog.System implements it.
type Runner interface {
	RunDialog(ctx context.Context, userID string, seeds []dialog.Seed) ([]*dialog.TurnResult, error)
}

// Exchange pairs a turn's seed with its result.
type Exchange struct {
	Seed   dialog.Seed
	Result *dialog.TurnResult
}

// Run replays the script. Exchanges are returned for every turn that ran,
// also when the conversation failed.
func Run(ctx context.Context, r Runner, s *Script) ([]Exchange, error) {
	seeds := s.Seeds()
	results, err := r.RunDialog(ctx, s.UserID, seeds)

	exchanges := make([]Exchange, 0, len(results))
	for i, res := range results {
		exchanges = append(exchanges, Exchange{Seed: seeds[i], Result: res})
	}
	return exchanges, err
}
