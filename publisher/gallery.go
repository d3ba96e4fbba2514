package publisher

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"

	"github.com/yuin/goldmark"
)

const (
	GalleryFile   = "index.html"
	BenchmarkFile = "benchmark.html"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var pageTemplates = template.Must(template.New("").Funcs(template.FuncMap{
	"markdown": markdown,
	"vram":     formatVRAM,
}).ParseFS(templateFS, "templates/*.tmpl"))

type galleryData struct {
	Apps       []Metadata
	Categories []string
}

// mdToHTML renders app descriptions, which models often write in markdown.
func mdToHTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// markdown is safe to mark as trusted because goldmark drops raw HTML by default.
func markdown(md string) template.HTML {
	out, err := mdToHTML(md)
	if err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(out)
}

func formatVRAM(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.1f GB", *v)
}

func categories(apps []Metadata) []string {
	seen := make(map[string]bool)
	var out []string
	for _, a := range apps {
		c := a.Category
		if c == "" {
			c = "other"
		}
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out
}

// RenderGallery writes index.html and benchmark.html for apps into root.
func RenderGallery(root string, apps []Metadata) error {
	pages := []struct {
		file string
		tmpl string
		data any
	}{
		{GalleryFile, "gallery.html.tmpl", galleryData{Apps: apps, Categories: categories(apps)}},
		{BenchmarkFile, "benchmark.html.tmpl", galleryData{Apps: apps}},
	}
	for _, p := range pages {
		var buf bytes.Buffer
		if err := pageTemplates.ExecuteTemplate(&buf, p.tmpl, p.data); err != nil {
			return fmt.Errorf("render %s: %w", p.file, err)
		}
		if err := os.WriteFile(filepath.Join(root, p.file), buf.Bytes(), 0o644); err != nil {
			return err
		}
	}
	return nil
}
