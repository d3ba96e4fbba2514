// Package validator decides whether an extracted document is structurally
// complete enough to publish.
package validator

import (
	"fmt"
	"log"
	"regexp"
	"strings"
)

const (
	MinBytes = 200
	MaxBytes = 500_000
)

// Rule identifies one structural check.
type Rule string

const (
	RuleTooSmall          Rule = "too_small"
	RuleTooLarge          Rule = "too_large"
	RuleMissingElement    Rule = "missing_element"
	RuleMissingClosingTag Rule = "missing_closing_tag"
	RuleEmptyTitle        Rule = "empty_title"
	RuleNoTitle           Rule = "no_title"
	RuleUnbalancedBlock   Rule = "unbalanced_block"
)

// Violation is a single failed rule. Subject names the element or block the
// rule was applied to, when there is one.
type Violation struct {
	Rule    Rule   `json:"rule"`
	Subject string `json:"subject,omitempty"`
	Detail  string `json:"detail"`
}

func (v Violation) String() string { return v.Detail }

// Verdict is the result of one Validate call. Warnings never affect Accepted.
type Verdict struct {
	Accepted   bool        `json:"accepted"`
	Bytes      int         `json:"bytes"`
	Violations []Violation `json:"violations,omitempty"`
	Warnings   []string    `json:"warnings,omitempty"`
}

// Err returns a *Rejection for a rejected verdict and nil otherwise.
func (v Verdict) Err() error {
	if v.Accepted {
		return nil
	}
	return &Rejection{Violations: v.Violations}
}

// Rejection is the error form of a failed verdict.
type Rejection struct {
	Violations []Violation
}

func (r *Rejection) Error() string {
	details := make([]string, len(r.Violations))
	for i, v := range r.Violations {
		details[i] = v.Detail
	}
	return "validation rejected: " + strings.Join(details, "; ")
}

// Has reports whether the rejection includes a violation of the given rule.
func (r *Rejection) Has(rule Rule) bool {
	for _, v := range r.Violations {
		if v.Rule == rule {
			return true
		}
	}
	return false
}

// rule inspects the original document and its lowercased form.
type rule func(doc, lower string) []Violation

type element struct {
	name  string
	token string
}

var requiredElements = []element{
	{"doctype", "<!doctype html>"},
	{"html", "<html"},
	{"head", "<head"},
	{"title", "<title"},
	{"body", "<body"},
}

var closingTags = []string{"html", "head", "body"}

var titleRe = regexp.MustCompile(`(?is)<title>(.*?)</title>`)

type block struct {
	name  string
	open  *regexp.Regexp
	close *regexp.Regexp
}

var blocks = []block{
	{"style", regexp.MustCompile(`<style[\s>]`), regexp.MustCompile(`</style>`)},
	{"script", regexp.MustCompile(`<script[\s>]`), regexp.MustCompile(`</script>`)},
}

type dependencyPattern struct {
	what string
	re   *regexp.Regexp
}

var externalPatterns = []dependencyPattern{
	{"absolute src attribute", regexp.MustCompile(`(?i)src=["']https?://`)},
	{"absolute stylesheet link", regexp.MustCompile(`(?i)href=["']https?://[^"']*\.css`)},
	{"absolute @import", regexp.MustCompile(`(?i)@import\s+url\(["']?https?://`)},
}

var rules = []rule{
	checkSize,
	checkRequiredElements,
	checkClosingTags,
	checkTitle,
	checkBlocks,
}

func checkSize(doc, _ string) []Violation {
	n := len(doc)
	switch {
	case n < MinBytes:
		return []Violation{{Rule: RuleTooSmall, Detail: fmt.Sprintf("too small: %d bytes, min %d", n, MinBytes)}}
	case n > MaxBytes:
		return []Violation{{Rule: RuleTooLarge, Detail: fmt.Sprintf("too large: %d bytes, max %d", n, MaxBytes)}}
	}
	return nil
}

func checkRequiredElements(_, lower string) []Violation {
	var out []Violation
	for _, el := range requiredElements {
		if !strings.Contains(lower, el.token) {
			out = append(out, Violation{
				Rule:    RuleMissingElement,
				Subject: el.name,
				Detail:  "missing required element: " + el.token,
			})
		}
	}
	return out
}

func checkClosingTags(_, lower string) []Violation {
	var out []Violation
	for _, tag := range closingTags {
		if !strings.Contains(lower, "</"+tag+">") {
			out = append(out, Violation{
				Rule:    RuleMissingClosingTag,
				Subject: tag,
				Detail:  "missing closing tag: " + tag,
			})
		}
	}
	return out
}

func checkTitle(doc, _ string) []Violation {
	m := titleRe.FindStringSubmatch(doc)
	if m == nil {
		return []Violation{{Rule: RuleNoTitle, Subject: "title", Detail: "no title element found"}}
	}
	if strings.TrimSpace(m[1]) == "" {
		return []Violation{{Rule: RuleEmptyTitle, Subject: "title", Detail: "empty title"}}
	}
	return nil
}

func checkBlocks(_, lower string) []Violation {
	var out []Violation
	for _, b := range blocks {
		opened := len(b.open.FindAllStringIndex(lower, -1))
		closed := len(b.close.FindAllStringIndex(lower, -1))
		if opened != closed {
			out = append(out, Violation{
				Rule:    RuleUnbalancedBlock,
				Subject: b.name,
				Detail:  fmt.Sprintf("mismatched <%s> tags: %d opened, %d closed", b.name, opened, closed),
			})
		}
	}
	return out
}

// ExternalDependencies lists which absolute-URL resource patterns occur in doc.
func ExternalDependencies(doc string) []string {
	var found []string
	for _, p := range externalPatterns {
		if p.re.MatchString(doc) {
			found = append(found, p.what)
		}
	}
	return found
}

// Check runs every rule against doc. It is a pure function of doc.
func Check(doc string) Verdict {
	lower := strings.ToLower(doc)
	var violations []Violation
	for _, r := range rules {
		violations = append(violations, r(doc, lower)...)
	}
	return Verdict{
		Accepted:   len(violations) == 0,
		Bytes:      len(doc),
		Violations: violations,
		Warnings:   ExternalDependencies(doc),
	}
}

// Validator wraps Check with logging.
type Validator struct {
	logger *log.Logger
}

func New(logger *log.Logger) *Validator {
	if logger == nil {
		logger = log.Default()
	}
	return &Validator{logger: logger}
}

// Validate checks doc and logs warnings and the outcome.
func (v *Validator) Validate(doc string) Verdict {
	verdict := Check(doc)
	for _, w := range verdict.Warnings {
		v.logger.Printf("[validate] [WARN] external dependency detected: %s", w)
	}
	if verdict.Accepted {
		v.logger.Printf("[validate] passed (%d bytes)", verdict.Bytes)
		return verdict
	}
	for _, viol := range verdict.Violations {
		v.logger.Printf("[validate] [%s] %s", viol.Rule, viol.Detail)
	}
	return verdict
}
