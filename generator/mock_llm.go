package generator

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// MockLLM is a placeholder backend for local dry runs; it never calls a model.
// It answers the idea, plan and code prompts with canned but valid output.
type MockLLM struct{}

func (MockLLM) Name() string { return "mock" }

func (MockLLM) Complete(_ context.Context, req Request) (Response, error) {
	var text string
	switch {
	case strings.Contains(req.Prompt, ideaPromptMarker):
		stamp := time.Now().UTC().Format("20060102-150405")
		text = fmt.Sprintf("```json\n{\"title\": \"Mock Counter %s\", \"description\": \"A click counter with a reset button.\", \"category\": \"tool\", \"slug\": \"mock-counter-%s\"}\n```", stamp, stamp)
	case strings.Contains(req.Prompt, planPromptMarker):
		text = "1. Layout: a centered card with a number and two buttons.\n2. Logic: a single integer in memory.\n3. CSS: flexbox and a soft gradient.\n4. Interactions: increment and reset."
	default:
		text = "```html\n" + mockDocument + "\n```"
	}
	return Response{Text: text}, nil
}

func (MockLLM) Provenance(context.Context) Provenance {
	return Provenance{Provider: "mock", Model: "mock"}
}

const mockDocument = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Mock Counter</title>
<style>
body { display: flex; align-items: center; justify-content: center; min-height: 100vh; margin: 0; font-family: sans-serif; background: linear-gradient(135deg, #667eea, #764ba2); }
.card { background: #fff; padding: 2rem 3rem; border-radius: 1rem; box-shadow: 0 10px 30px rgba(0,0,0,.2); text-align: center; }
button { margin: .5rem; padding: .5rem 1rem; border: 0; border-radius: .5rem; cursor: pointer; }
</style>
</head>
<body>
<div class="card">
<h1 id="count">0</h1>
<button id="inc">+1</button>
<button id="reset">Reset</button>
</div>
<script>
let n = 0;
const out = document.getElementById('count');
document.getElementById('inc').onclick = () => { out.textContent = ++n; };
document.getElementById('reset').onclick = () => { n = 0; out.textContent = n; };
</script>
</body>
</html>`
