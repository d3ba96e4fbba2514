package generator

import (
	"regexp"
	"strings"
)

// extractor is one heuristic for recovering a document from free-form model output.
// It reports false when its signal is absent so the next heuristic can run.
type extractor struct {
	name string
	fn   func(raw string) (string, bool)
}

var (
	htmlFenceRe = regexp.MustCompile("(?s)```html?\\s*\\n(.*?)```")
	documentRe  = regexp.MustCompile(`(?is)(<!DOCTYPE html>.*</html>)`)
)

// extractors run in order; the first match wins.
var extractors = []extractor{
	{name: "fence", fn: fromFence},
	{name: "document", fn: fromDocumentSpan},
	{name: "lines", fn: fromFirstMarkupLine},
}

// ExtractHTML recovers the best candidate document from raw model output.
// It never fails; deciding whether the result is usable is the validator's job.
func ExtractHTML(raw string) string {
	html, _ := ExtractHTMLWith(raw)
	return html
}

// ExtractHTMLWith is ExtractHTML that also names the heuristic that matched.
func ExtractHTMLWith(raw string) (string, string) {
	for _, e := range extractors {
		if out, ok := e.fn(raw); ok {
			return out, e.name
		}
	}
	return strings.TrimSpace(raw), "none"
}

func fromFence(raw string) (string, bool) {
	m := htmlFenceRe.FindStringSubmatch(raw)
	if len(m) < 2 {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

func fromDocumentSpan(raw string) (string, bool) {
	m := documentRe.FindStringSubmatch(raw)
	if len(m) < 2 {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// fromFirstMarkupLine always matches: without a markup line it returns the whole input.
func fromFirstMarkupLine(raw string) (string, bool) {
	lines := strings.Split(strings.TrimSpace(raw), "\n")
	start := 0
	for i, line := range lines {
		l := strings.ToLower(strings.TrimSpace(line))
		if strings.HasPrefix(l, "<!doctype") || strings.HasPrefix(l, "<html") {
			start = i
			break
		}
	}
	return strings.TrimSpace(strings.Join(lines[start:], "\n")), true
}

// unwrapFence strips a surrounding code fence (optionally tagged json) from a model reply.
func unwrapFence(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "```") {
		return raw
	}
	parts := strings.Split(raw, "```")
	inner := parts[1]
	inner = strings.TrimPrefix(inner, "json")
	return strings.TrimSpace(inner)
}
