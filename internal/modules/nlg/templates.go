package nlg

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/modules/acts"
)

var (
	// ErrNoTemplates is returned when a template file defines no act.
	ErrNoTemplates = errors.New("template file defines no system acts")

	// ErrUnknownAct is returned when no template exists for a system act.
	ErrUnknownAct = errors.New("no template for system act")
)

// TemplateSet maps each system act type to the messages it renders.
type TemplateSet struct {
	acts map[acts.SysActType][]*template.Template
}

// templateData is what a template sees.
type templateData struct {
	UserID string
	Slots  map[string]any
}

// ParseTemplates reads a YAML document of the form
//
//	greet:
//	  - "Hi!"
//	bad:
//	  - "Sorry ({{.Slots.count}})"
func ParseTemplates(data []byte) (*TemplateSet, error) {
	var raw map[string][]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	if len(raw) == 0 {
		return nil, ErrNoTemplates
	}

	set := &TemplateSet{acts: make(map[acts.SysActType][]*template.Template, len(raw))}
	for actType, texts := range raw {
		if len(texts) == 0 {
			return nil, fmt.Errorf("system act %q has no messages", actType)
		}
		for i, text := range texts {
			tmpl, err := template.New(fmt.Sprintf("%s[%d]", actType, i)).
				Option("missingkey=zero").
				Parse(text)
			if err != nil {
				return nil, fmt.Errorf("failed to parse template for %q: %w", actType, err)
			}
			set.acts[acts.SysActType(actType)] = append(set.acts[acts.SysActType(actType)], tmpl)
		}
	}
	return set, nil
}

// Render produces the messages for act.
func (t *TemplateSet) Render(userID string, act acts.SysAct) ([]string, error) {
	tmpls, ok := t.acts[act.Type]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownAct, act.Type)
	}

	data := templateData{UserID: userID, Slots: act.Slots}
	if data.Slots == nil {
		data.Slots = map[string]any{}
	}

	messages := make([]string, 0, len(tmpls))
	for _, tmpl := range tmpls {
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, data); err != nil {
			return nil, fmt.Errorf("failed to render %s: %w", tmpl.Name(), err)
		}
		messages = append(messages, buf.String())
	}
	return messages, nil
}

// Acts lists the act types that have templates, sorted.
func (t *TemplateSet) Acts() []string {
	names := make([]string, 0, len(t.acts))
	for a := range t.acts {
		names = append(names, string(a))
	}
	sort.Strings(names)
	return names
}
