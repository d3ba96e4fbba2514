package publisher

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sort"
)

// AppSummary is the persisted title and category of one accepted app.
type AppSummary struct {
	Title    string
	Category string
}

// Catalog reads the metadata of every app stored under a repository root.
type Catalog struct {
	root   string
	logger *log.Logger
}

func NewCatalog(root string, logger *log.Logger) *Catalog {
	if logger == nil {
		logger = log.Default()
	}
	return &Catalog{root: root, logger: logger}
}

// Scan returns all readable metadata, newest first. Unreadable entries are
// logged and skipped.
func (c *Catalog) Scan() ([]Metadata, error) {
	paths, err := filepath.Glob(filepath.Join(c.root, "*", "metadata.json"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	apps := make([]Metadata, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			c.logger.Printf("[catalog] [WARN] failed to read %s: %v", path, err)
			continue
		}
		var m Metadata
		if err := json.Unmarshal(data, &m); err != nil {
			c.logger.Printf("[catalog] [WARN] failed to parse %s: %v", path, err)
			continue
		}
		m.DirName = filepath.Base(filepath.Dir(path))
		apps = append(apps, m)
	}

	sort.SliceStable(apps, func(i, j int) bool { return apps[i].Date > apps[j].Date })
	return apps, nil
}

// ExistingApps lists title and category of every stored app.
func (c *Catalog) ExistingApps(context.Context) ([]AppSummary, error) {
	apps, err := c.Scan()
	if err != nil {
		return nil, err
	}
	out := make([]AppSummary, len(apps))
	for i, a := range apps {
		out[i] = AppSummary{Title: a.Title, Category: a.Category}
	}
	return out, nil
}

// ExistingTitles lists the title of every stored app.
func (c *Catalog) ExistingTitles(ctx context.Context) ([]string, error) {
	apps, err := c.ExistingApps(ctx)
	if err != nil {
		return nil, err
	}
	titles := make([]string, 0, len(apps))
	for _, a := range apps {
		if a.Title != "" {
			titles = append(titles, a.Title)
		}
	}
	return titles, nil
}
