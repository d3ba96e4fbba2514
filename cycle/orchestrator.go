// Package cycle drives one generation cycle from idea to published app.
package cycle

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"autonomous_spa_agent/generator"
	"autonomous_spa_agent/publisher"
	"autonomous_spa_agent/validator"
)

// ErrExhausted is the cycle error when every attempt failed.
var ErrExhausted = errors.New("all generation attempts failed")

// IdeaSource produces the single idea of a cycle.
type IdeaSource interface {
	Generate(ctx context.Context) (generator.Idea, error)
}

// Drafter runs both generation phases for an idea at a temperature.
type Drafter interface {
	Generate(ctx context.Context, idea generator.Idea, temperature float64) (generator.Draft, error)
}

// Checker classifies an extracted document.
type Checker interface {
	Validate(doc string) validator.Verdict
}

// Persister stores an accepted app.
type Persister interface {
	Publish(ctx context.Context, rec publisher.Record) error
}

// Options controls attempt count and temperature escalation.
type Options struct {
	MaxRetries           int
	Temperature          float64
	TemperatureIncrement float64
}

// TemperatureFor returns the sampling temperature of attempt n (1-indexed).
func (o Options) TemperatureFor(n int) float64 {
	return o.Temperature + float64(n-1)*o.TemperatureIncrement
}

// Orchestrator runs cycles sequentially; it is not safe for concurrent Run calls.
type Orchestrator struct {
	ideas      IdeaSource
	drafter    Drafter
	checker    Checker
	persister  Persister
	provenance generator.ProvenanceReporter
	opts       Options
	logger     *log.Logger
	now        func() time.Time
}

func New(ideas IdeaSource, drafter Drafter, checker Checker, persister Persister, opts Options, logger *log.Logger) (*Orchestrator, error) {
	if ideas == nil || drafter == nil || checker == nil || persister == nil {
		return nil, errors.New("idea source, drafter, checker and persister are required")
	}
	if opts.MaxRetries < 1 {
		return nil, fmt.Errorf("max retries must be at least 1, got %d", opts.MaxRetries)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Orchestrator{
		ideas:     ideas,
		drafter:   drafter,
		checker:   checker,
		persister: persister,
		opts:      opts,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// WithProvenance sets where backend provenance is read from after acceptance.
func (o *Orchestrator) WithProvenance(p generator.ProvenanceReporter) *Orchestrator {
	o.provenance = p
	return o
}

// Run executes one cycle. The returned outcome is always non-nil; Outcome.Err is
// set when the cycle did not publish an app.
func (o *Orchestrator) Run(ctx context.Context) *Outcome {
	out := &Outcome{
		CycleID:   uuid.NewString(),
		Status:    StateIdeaPending,
		StartedAt: o.now(),
	}
	defer func() { out.FinishedAt = o.now() }()

	o.logger.Printf("[cycle %s] === starting generation cycle ===", out.CycleID)

	idea, err := o.ideas.Generate(ctx)
	if err != nil {
		o.logger.Printf("[cycle %s] [ERROR] idea generation failed (%s): %v", out.CycleID, errorKind(err), err)
		out.fail(StateIdeaFailed, fmt.Errorf("idea generation: %w", err))
		return out
	}
	out.Idea = idea

	artifact, ok := o.attempts(ctx, out)
	if !ok {
		o.logger.Printf("[cycle %s] [ERROR] all %d attempts failed for %q", out.CycleID, o.opts.MaxRetries, idea.Title)
		out.fail(StateExhausted, ErrExhausted)
		return out
	}

	rec := publisher.Record{
		Idea:       idea,
		Artifact:   artifact,
		Provenance: o.collectProvenance(ctx),
		Date:       out.StartedAt,
	}
	if err := o.persister.Publish(ctx, rec); err != nil {
		o.logger.Printf("[cycle %s] [ERROR] persisting %q failed: %v", out.CycleID, idea.Slug, err)
		out.fail(StatePersistFailed, fmt.Errorf("publish: %w", err))
		return out
	}

	out.Status = StateAccepted
	out.Artifact = &artifact
	o.logger.Printf("[cycle %s] === successfully generated: %s (attempt %d) ===", out.CycleID, idea.Title, artifact.Attempt)
	return out
}

// attempts runs Attempting(1..MaxRetries) and returns the first accepted artifact.
func (o *Orchestrator) attempts(ctx context.Context, out *Outcome) (generator.Artifact, bool) {
	for n := 1; n <= o.opts.MaxRetries; n++ {
		out.Status = StateAttempting
		a := o.attempt(ctx, out.CycleID, out.Idea, n)
		out.Attempts = append(out.Attempts, a.report())

		if a.err != nil {
			o.logger.Printf("[cycle %s] attempt %d failed (%s): %v", out.CycleID, n, errorKind(a.err), a.err)
			continue
		}
		o.logger.Printf("[cycle %s] validation passed on attempt %d", out.CycleID, n)
		return a.artifact(), true
	}
	return generator.Artifact{}, false
}

func (o *Orchestrator) attempt(ctx context.Context, cycleID string, idea generator.Idea, n int) *attempt {
	a := &attempt{n: n, temperature: o.opts.TemperatureFor(n)}
	o.logger.Printf("[cycle %s] generation attempt %d/%d (temperature=%.2f)", cycleID, n, o.opts.MaxRetries, a.temperature)

	draft, err := o.drafter.Generate(ctx, idea, a.temperature)
	if err != nil {
		a.err = err
		return a
	}
	a.draft = draft
	a.verdict = o.checker.Validate(draft.HTML)
	a.err = a.verdict.Err()
	return a
}

func (o *Orchestrator) collectProvenance(ctx context.Context) generator.Provenance {
	if o.provenance == nil {
		return generator.Provenance{}
	}
	return o.provenance.Provenance(ctx)
}

func errorKind(err error) string {
	var rej *validator.Rejection
	switch {
	case generator.IsBackendError(err):
		return "backend error"
	case errors.As(err, &rej):
		return "validation rejected"
	case errors.Is(err, generator.ErrDuplicateIdea):
		return "duplicate idea"
	case errors.Is(err, generator.ErrMalformedIdea):
		return "malformed idea"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}
