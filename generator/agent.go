package generator

import (
	"context"
	"errors"
	"log"
)

// Agent runs the two-phase protocol: an architecture plan, then the full document
// generated from that plan.
type Agent struct {
	llm       LLMClient
	maxTokens int
	verbose   bool
	logger    *log.Logger
}

func NewAgent(llm LLMClient, maxTokens int, verbose bool, logger *log.Logger) (*Agent, error) {
	if llm == nil {
		return nil, errors.New("llm client is required")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Agent{llm: llm, maxTokens: maxTokens, verbose: verbose, logger: logger}, nil
}

// Generate runs both phases at the given temperature and extracts the document.
// Either phase failing fails the whole call; nothing is reused across calls.
func (a *Agent) Generate(ctx context.Context, idea Idea, temperature float64) (Draft, error) {
	planPrompt, err := BuildPlanPrompt(idea)
	if err != nil {
		return Draft{}, err
	}

	a.logger.Printf("[gen] phase 1: architecture plan for %q", idea.Title)
	plan, err := a.llm.Complete(ctx, Request{Prompt: planPrompt, Temperature: temperature, MaxTokens: a.maxTokens})
	if err != nil {
		return Draft{}, err
	}
	if a.verbose {
		a.logger.Printf("[gen] plan excerpt:\n%s", truncate(plan.Text, maxErrorBody))
	}

	codePrompt, err := BuildCodePrompt(idea, plan.Text)
	if err != nil {
		return Draft{}, err
	}

	a.logger.Printf("[gen] phase 2: full document for %q", idea.Title)
	code, err := a.llm.Complete(ctx, Request{Prompt: codePrompt, Temperature: temperature, MaxTokens: a.maxTokens})
	if err != nil {
		return Draft{}, err
	}

	html, via := ExtractHTMLWith(code.Text)
	a.logger.Printf("[gen] extracted %d bytes of HTML (via %s)", len(html), via)

	return Draft{
		Plan: plan.Text,
		Raw:  code.Text,
		HTML: html,
		Timings: Timings{
			Plan:  plan.Duration,
			Code:  code.Duration,
			Total: plan.Duration + code.Duration,
		},
	}, nil
}
