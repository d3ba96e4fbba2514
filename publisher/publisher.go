// Package publisher stores accepted apps in the gallery repository: the app
// files, their metadata, the regenerated summary pages and a git commit.
package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"autonomous_spa_agent/config"
	"autonomous_spa_agent/generator"
)

// ErrSlugExists is returned when an app directory for the slug is already present.
var ErrSlugExists = errors.New("app slug already exists")

// Publisher persists accepted apps into the gallery repository.
type Publisher struct {
	root    string
	catalog *Catalog
	git     *Committer
	mirror  Mirror
	verbose bool
	logger  *log.Logger
}

// New prepares the repository directory, opening or initialising its git
// repository. mirror may be nil.
func New(cfg config.GitConfig, mirror Mirror, verbose bool, logger *log.Logger) (*Publisher, error) {
	if cfg.RepoPath == "" {
		return nil, errors.New("git repo_path is required")
	}
	if logger == nil {
		logger = log.Default()
	}
	if err := os.MkdirAll(cfg.RepoPath, 0o755); err != nil {
		return nil, err
	}

	repo, created, err := OpenOrInitRepo(cfg.RepoPath)
	if err != nil {
		return nil, err
	}
	if created {
		logger.Printf("[publish] initialized git repo at %s", cfg.RepoPath)
	}

	return &Publisher{
		root:    cfg.RepoPath,
		catalog: NewCatalog(cfg.RepoPath, logger),
		git:     NewCommitter(repo, cfg.AuthorName, cfg.AuthorEmail, cfg.AutoPush, cfg.Remote),
		mirror:  mirror,
		verbose: verbose,
		logger:  logger,
	}, nil
}

func (p *Publisher) infof(format string, args ...interface{}) {
	if !p.verbose {
		return
	}
	p.logger.Printf("[INFO] "+format, args...)
}

// Root is the repository directory.
func (p *Publisher) Root() string { return p.root }

// Catalog reads back what has been published.
func (p *Publisher) Catalog() *Catalog { return p.catalog }

// Publish writes rec to <slug>/, regenerates the summary pages and commits.
// A mirror failure is logged and does not fail the publish.
func (p *Publisher) Publish(ctx context.Context, rec Record) error {
	slug := rec.Idea.Slug
	if slug == "" || slug != generator.NormalizeSlug(slug) {
		return fmt.Errorf("invalid slug %q", slug)
	}

	dir := filepath.Join(p.root, slug)
	if _, err := os.Stat(dir); err == nil {
		return fmt.Errorf("%w: %s", ErrSlugExists, slug)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	meta, err := json.MarshalIndent(NewMetadata(rec), "", "  ")
	if err != nil {
		return err
	}
	files := []struct {
		name        string
		content     []byte
		contentType string
	}{
		{"index.html", []byte(rec.Artifact.HTML), "text/html; charset=utf-8"},
		{"metadata.json", append(meta, '\n'), "application/json"},
		{"plan.md", []byte(rec.Artifact.Plan), "text/markdown; charset=utf-8"},
	}
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(dir, f.name), f.content, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", f.name, err)
		}
	}
	p.logger.Printf("[publish] wrote app to %s", dir)

	if err := p.RefreshGallery(); err != nil {
		p.discard(dir)
		return fmt.Errorf("update gallery: %w", err)
	}

	hash, err := p.git.CommitApp(ctx, slug, rec.Idea.Title)
	if err != nil {
		if hash.IsZero() {
			p.discard(dir)
		}
		return err
	}
	p.logger.Printf("[publish] committed %s: Add %s (%s)", hash.String()[:7], rec.Idea.Title, slug)

	if p.mirror != nil {
		for _, f := range files {
			key := slug + "/" + f.name
			if err := p.mirror.Put(ctx, key, f.content, f.contentType); err != nil {
				p.logger.Printf("[publish] [WARN] mirror upload %s failed: %v", key, err)
				break
			}
			p.infof("mirrored %s", key)
		}
	}
	return nil
}

// discard removes an app directory that never made it into a commit so the
// slug stays free and the summary pages stop listing it.
func (p *Publisher) discard(dir string) {
	if err := os.RemoveAll(dir); err != nil {
		p.logger.Printf("[publish] [WARN] removing %s failed: %v", dir, err)
		return
	}
	if err := p.RefreshGallery(); err != nil {
		p.infof("gallery not refreshed after discarding %s: %v", dir, err)
	}
}

// RefreshGallery regenerates index.html and benchmark.html from all stored metadata.
func (p *Publisher) RefreshGallery() error {
	apps, err := p.catalog.Scan()
	if err != nil {
		return err
	}
	if err := RenderGallery(p.root, apps); err != nil {
		return err
	}
	p.infof("updated gallery with %d apps", len(apps))
	return nil
}
