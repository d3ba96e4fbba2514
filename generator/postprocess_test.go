package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractHTML(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
		via  string
	}{
		{
			name: "fenced html block",
			raw:  "Here you go:\n```html\n<!DOCTYPE html><html><body>hi</body></html>\n```\nEnjoy!",
			want: "<!DOCTYPE html><html><body>hi</body></html>",
			via:  "fence",
		},
		{
			name: "fenced htm block",
			raw:  "```htm\n<html>x</html>\n```",
			want: "<html>x</html>",
			via:  "fence",
		},
		{
			name: "fence wins over a bare document outside it",
			raw:  "<!DOCTYPE html><html>outside</html>\n```html\n<p>inside</p>\n```",
			want: "<p>inside</p>",
			via:  "fence",
		},
		{
			name: "bare document span with prose around it",
			raw:  "Sure!\n<!doctype HTML>\n<html>\n<body>x</body>\n</html>\nHope this helps.",
			want: "<!doctype HTML>\n<html>\n<body>x</body>\n</html>",
			via:  "document",
		},
		{
			name: "untagged fence is not a markup fence",
			raw:  "```\n<!DOCTYPE html><html></html>\n```",
			want: "<!DOCTYPE html><html></html>",
			via:  "document",
		},
		{
			name: "line fallback from root element without closing tag",
			raw:  "Explanation first\n  <html lang=\"en\">\n<body>unterminated",
			want: "<html lang=\"en\">\n<body>unterminated",
			via:  "lines",
		},
		{
			name: "no markup returns the trimmed input",
			raw:  "  just some prose\nwith two lines  ",
			want: "just some prose\nwith two lines",
			via:  "lines",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, via := ExtractHTMLWith(tt.raw)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.via, via)
			assert.Equal(t, got, ExtractHTML(tt.raw))
		})
	}
}

func TestUnwrapFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, unwrapFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, unwrapFence("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, unwrapFence("  {\"a\":1}  "))
}
