package policy

import (
	_ "embed"
	"fmt"

	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/modules/topics"
	"github.com/SE-Stuttgart/kib3-moodle-chatbot-backend-sub000/internal/script"
)

// Name is the service name and state namespace.
const Name = "policy"

// MaxBadTurns is how many unrecognised messages in a row end the dialog.
const MaxBadTurns = 3

//go:embed policy.tengo
var source string

// Definition returns the scripted policy: beliefstate in, sys_act and
// sys_end_dialog out.
func Definition() script.Definition {
	return script.Definition{
		Name:              Name,
		Handler:           "choose",
		Consumes:          []string{topics.BeliefState.Name()},
		Produces:          []string{topics.SysAct.Name(), topics.SysEndDialog.Name()},
		Source:            fmt.Sprintf("max_bad := %d\n%s", MaxBadTurns, source),
		ResetStateOnStart: true,
	}
}

// New compiles the policy on engine. A nil engine uses the default limits.
func New(engine *script.TengoEngine) (*script.Service, error) {
	return script.NewService(Definition(), engine)
}
