package cycle

import (
	"time"

	"autonomous_spa_agent/generator"
	"autonomous_spa_agent/validator"
)

// State is a step of the cycle state machine.
type State string

const (
	StateIdeaPending   State = "idea_pending"
	StateAttempting    State = "attempting"
	StateAccepted      State = "accepted"
	StateExhausted     State = "exhausted"
	StateIdeaFailed    State = "idea_failed"
	StatePersistFailed State = "persist_failed"
)

// Outcome records what one cycle did.
type Outcome struct {
	CycleID    string              `json:"cycle_id"`
	Status     State               `json:"status"`
	Idea       generator.Idea      `json:"idea"`
	Artifact   *generator.Artifact `json:"-"`
	Attempts   []AttemptReport     `json:"attempts"`
	Err        error               `json:"-"`
	Error      string              `json:"error,omitempty"`
	StartedAt  time.Time           `json:"started_at"`
	FinishedAt time.Time           `json:"finished_at"`
}

// Succeeded reports whether the cycle published an app.
func (o *Outcome) Succeeded() bool { return o.Status == StateAccepted }

// AttemptUsed is the 1-indexed attempt that was accepted, or 0.
func (o *Outcome) AttemptUsed() int {
	if o.Artifact == nil {
		return 0
	}
	return o.Artifact.Attempt
}

func (o *Outcome) fail(s State, err error) {
	o.Status = s
	o.Err = err
	o.Error = err.Error()
}

// AttemptReport is the retained summary of a discarded or accepted attempt.
type AttemptReport struct {
	N           int                   `json:"n"`
	Temperature float64               `json:"temperature"`
	Error       string                `json:"error,omitempty"`
	Violations  []validator.Violation `json:"violations,omitempty"`
}

// attempt is built fresh for every iteration and dropped afterwards.
type attempt struct {
	n           int
	temperature float64
	draft       generator.Draft
	verdict     validator.Verdict
	err         error
}

func (a *attempt) report() AttemptReport {
	r := AttemptReport{N: a.n, Temperature: a.temperature, Violations: a.verdict.Violations}
	if a.err != nil {
		r.Error = a.err.Error()
	}
	return r
}

func (a *attempt) artifact() generator.Artifact {
	return generator.Artifact{
		HTML:        a.draft.HTML,
		Plan:        a.draft.Plan,
		Bytes:       len(a.draft.HTML),
		Timings:     a.draft.Timings,
		Attempt:     a.n,
		Temperature: a.temperature,
	}
}
