package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"strings"
	"unicode"
)

// ErrDuplicateIdea is returned when the model proposes a title that already exists.
var ErrDuplicateIdea = errors.New("duplicate idea")

// TitleSource lists the titles of previously accepted apps.
type TitleSource interface {
	ExistingTitles(ctx context.Context) ([]string, error)
}

// IdeaOptions holds the sampling settings and category list for idea requests.
type IdeaOptions struct {
	Categories  []string
	Temperature float64
	MaxTokens   int
	Verbose     bool
}

// IdeaGenerator asks the backend for one new idea per call.
type IdeaGenerator struct {
	llm    LLMClient
	titles TitleSource
	opts   IdeaOptions
	pick   func(n int) int
	logger *log.Logger
}

func NewIdeaGenerator(llm LLMClient, titles TitleSource, opts IdeaOptions, logger *log.Logger) (*IdeaGenerator, error) {
	if llm == nil {
		return nil, errors.New("llm client is required")
	}
	if titles == nil {
		return nil, errors.New("title source is required")
	}
	if len(opts.Categories) == 0 {
		return nil, errors.New("at least one category is required")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &IdeaGenerator{llm: llm, titles: titles, opts: opts, pick: rand.IntN, logger: logger}, nil
}

// WithPicker replaces the random category picker; tests use it for determinism.
func (g *IdeaGenerator) WithPicker(pick func(n int) int) *IdeaGenerator {
	g.pick = pick
	return g
}

// Generate produces one idea whose title is not among the existing titles.
// It does not retry: a duplicate or malformed reply is returned as an error.
func (g *IdeaGenerator) Generate(ctx context.Context) (Idea, error) {
	existing, err := g.titles.ExistingTitles(ctx)
	if err != nil {
		return Idea{}, fmt.Errorf("list existing titles: %w", err)
	}
	seen := make(map[string]struct{}, len(existing))
	lowered := make([]string, 0, len(existing))
	for _, t := range existing {
		k := strings.ToLower(t)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		lowered = append(lowered, k)
	}

	category := g.opts.Categories[g.pick(len(g.opts.Categories))]
	resp, err := g.llm.Complete(ctx, Request{
		Prompt:      BuildIdeaPrompt(category, lowered),
		Temperature: g.opts.Temperature,
		MaxTokens:   g.opts.MaxTokens,
	})
	if err != nil {
		return Idea{}, err
	}
	if g.opts.Verbose {
		g.logger.Printf("[idea] raw response: %s", strings.TrimSpace(resp.Text))
	}

	idea, err := ParseIdea(resp.Text)
	if err != nil {
		return Idea{}, err
	}
	if _, dup := seen[strings.ToLower(idea.Title)]; dup {
		return Idea{}, fmt.Errorf("%w: %s", ErrDuplicateIdea, idea.Title)
	}

	g.logger.Printf("[idea] generated %q (%s) slug=%s", idea.Title, idea.Category, idea.Slug)
	return idea, nil
}

// ParseIdea decodes a model reply into an Idea, unwrapping a code fence first
// and normalizing the slug.
func ParseIdea(raw string) (Idea, error) {
	var fields map[string]any
	if err := json.Unmarshal([]byte(unwrapFence(raw)), &fields); err != nil {
		return Idea{}, fmt.Errorf("%w: invalid JSON: %v", ErrMalformedIdea, err)
	}

	get := func(key string) (string, error) {
		v, ok := fields[key]
		if !ok || v == nil {
			return "", fmt.Errorf("%w: missing field %s", ErrMalformedIdea, key)
		}
		s, ok := v.(string)
		if !ok {
			return "", fmt.Errorf("%w: field %s is not a string", ErrMalformedIdea, key)
		}
		if strings.TrimSpace(s) == "" {
			return "", fmt.Errorf("%w: field %s is empty", ErrMalformedIdea, key)
		}
		return s, nil
	}

	var idea Idea
	var err error
	if idea.Title, err = get("title"); err != nil {
		return Idea{}, err
	}
	if idea.Description, err = get("description"); err != nil {
		return Idea{}, err
	}
	if idea.Category, err = get("category"); err != nil {
		return Idea{}, err
	}
	if idea.Slug, err = get("slug"); err != nil {
		return Idea{}, err
	}
	idea.Slug = NormalizeSlug(idea.Slug)
	if idea.Slug == "" {
		return Idea{}, fmt.Errorf("%w: slug is empty after normalization", ErrMalformedIdea)
	}
	return idea, nil
}

// NormalizeSlug lowercases, turns spaces into hyphens and drops anything that is
// not a letter, digit or hyphen.
func NormalizeSlug(s string) string {
	s = strings.ReplaceAll(strings.ToLower(s), " ", "-")
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
