package model

import "time"

// RunState is a state of the deployment state machine.
type RunState string

const (
	RunStart     RunState = "Start"
	RunRewritten RunState = "Rewritten"
	RunSubmitted RunState = "Submitted"
	RunVerified  RunState = "Verified"
	RunFailed    RunState = "Failed"
)

// Run operations.
const (
	RunOpFile   = "file"
	RunOpMeta   = "meta"
	RunOpRender = "render"
)

// Run is the journal entry for one invocation. It never carries document contents.
type Run struct {
	ID         string
	Operation  string
	Source     string
	State      RunState
	Error      string
	Digest     string
	Documents  []string
	StartedAt  time.Time
	FinishedAt time.Time
}
