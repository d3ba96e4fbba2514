package generator

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrMalformedIdea is returned when an idea lacks a required field.
var ErrMalformedIdea = errors.New("malformed idea")

const (
	ideaPromptMarker = "Generate a unique single-page web application idea."
	planPromptMarker = "Plan the architecture for this single-page web application"
)

func checkIdea(idea Idea) error {
	for _, f := range []struct{ name, value string }{
		{"title", idea.Title},
		{"description", idea.Description},
		{"category", idea.Category},
	} {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Errorf("%w: missing %s", ErrMalformedIdea, f.name)
		}
	}
	return nil
}

func writeIdeaHeader(sb *strings.Builder, idea Idea) {
	sb.WriteString(fmt.Sprintf("Title: %s\n", idea.Title))
	sb.WriteString(fmt.Sprintf("Description: %s\n", idea.Description))
	sb.WriteString(fmt.Sprintf("Category: %s\n", idea.Category))
}

// BuildPlanPrompt renders the phase-one architecture plan prompt.
func BuildPlanPrompt(idea Idea) (string, error) {
	if err := checkIdea(idea); err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.WriteString("You are an expert web developer. " + planPromptMarker + ":\n\n")
	writeIdeaHeader(&sb, idea)
	sb.WriteString("\nRequirements:\n")
	sb.WriteString("- Single HTML file with ALL CSS and JS inline (no external files or CDNs)\n")
	sb.WriteString("- Must work completely offline\n")
	sb.WriteString("- Interactive and visually polished\n")
	sb.WriteString("- Responsive design\n")
	sb.WriteString("- Clean, modern UI\n")
	sb.WriteString("\nOutline:\n")
	sb.WriteString("1. Key UI components and layout\n")
	sb.WriteString("2. Core JavaScript logic and state management\n")
	sb.WriteString("3. CSS styling approach\n")
	sb.WriteString("4. User interactions and animations\n")
	sb.WriteString("\nBe specific and detailed. This plan will guide the code generation.")
	return sb.String(), nil
}

// BuildCodePrompt renders the phase-two prompt that asks for the full document.
func BuildCodePrompt(idea Idea, plan string) (string, error) {
	if err := checkIdea(idea); err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.WriteString("You are an expert web developer. Generate a COMPLETE single-page web application.\n\n")
	writeIdeaHeader(&sb, idea)
	sb.WriteString("\nArchitecture Plan:\n")
	sb.WriteString(plan)
	sb.WriteString("\n\nCRITICAL REQUIREMENTS:\n")
	sb.WriteString("- Output a COMPLETE, valid HTML5 document\n")
	sb.WriteString("- ALL CSS must be in a <style> tag inside <head>\n")
	sb.WriteString("- ALL JavaScript must be in a <script> tag before </body>\n")
	sb.WriteString("- NO external dependencies (no CDNs, no imports, no fetch to external URLs)\n")
	sb.WriteString("- Must work completely offline when opened in a browser\n")
	sb.WriteString("- Include a proper <title> tag\n")
	sb.WriteString("- Make it visually appealing with modern CSS (gradients, shadows, animations)\n")
	sb.WriteString("- Make it fully interactive and functional\n")
	sb.WriteString("- Responsive design that works on mobile and desktop\n")
	sb.WriteString("\nOutput ONLY the complete HTML code inside a ```html code block. No explanations before or after.")
	return sb.String(), nil
}

// BuildIdeaPrompt renders the idea request for a category, listing titles to avoid.
func BuildIdeaPrompt(category string, existing []string) string {
	avoid := "none yet"
	if len(existing) > 0 {
		sorted := append([]string(nil), existing...)
		sort.Strings(sorted)
		avoid = strings.Join(sorted, ", ")
	}

	var sb strings.Builder
	sb.WriteString(ideaPromptMarker + "\n\n")
	sb.WriteString(fmt.Sprintf("Category: %s\n", category))
	sb.WriteString("\nRequirements:\n")
	sb.WriteString("- Must be a self-contained single HTML file with inline CSS and JS\n")
	sb.WriteString("- No external dependencies (no CDNs, no frameworks)\n")
	sb.WriteString("- Should be interactive and visually appealing\n")
	sb.WriteString("- Must work offline in a browser\n")
	sb.WriteString(fmt.Sprintf("\nExisting apps (avoid duplicates): %s\n", avoid))
	sb.WriteString("\nRespond with ONLY valid JSON, no other text:\n")
	sb.WriteString(fmt.Sprintf(`{"title": "App Title", "description": "One sentence description", "category": "%s", "slug": "app-title-slug"}`, category))
	return sb.String()
}
