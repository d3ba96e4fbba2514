package publisher

import (
	"context"
	"errors"
	"fmt"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Committer records published apps in the repository's git history.
type Committer struct {
	repo        *gogit.Repository
	authorName  string
	authorEmail string
	autoPush    bool
	remote      string
	now         func() time.Time
}

// OpenOrInitRepo opens the git repository at path, initialising one if absent.
func OpenOrInitRepo(path string) (*gogit.Repository, bool, error) {
	repo, err := gogit.PlainOpen(path)
	if err == nil {
		return repo, false, nil
	}
	if !errors.Is(err, gogit.ErrRepositoryNotExists) {
		return nil, false, fmt.Errorf("open git repo %s: %w", path, err)
	}
	repo, err = gogit.PlainInit(path, false)
	if err != nil {
		return nil, false, fmt.Errorf("init git repo %s: %w", path, err)
	}
	return repo, true, nil
}

func NewCommitter(repo *gogit.Repository, authorName, authorEmail string, autoPush bool, remote string) *Committer {
	if remote == "" {
		remote = gogit.DefaultRemoteName
	}
	return &Committer{
		repo:        repo,
		authorName:  authorName,
		authorEmail: authorEmail,
		autoPush:    autoPush,
		remote:      remote,
		now:         time.Now,
	}
}

// CommitApp stages the app directory and both summary pages, then commits them.
// With auto-push enabled the commit is pushed to the configured remote.
func (c *Committer) CommitApp(ctx context.Context, slug, title string) (plumbing.Hash, error) {
	w, err := c.repo.Worktree()
	if err != nil {
		return plumbing.ZeroHash, err
	}
	for _, path := range []string{slug, GalleryFile, BenchmarkFile} {
		if _, err := w.Add(path); err != nil {
			return plumbing.ZeroHash, fmt.Errorf("git add %s: %w", path, err)
		}
	}

	msg := fmt.Sprintf("Add %s (%s)", title, slug)
	hash, err := w.Commit(msg, &gogit.CommitOptions{
		Author: &object.Signature{
			Name:  c.authorName,
			Email: c.authorEmail,
			When:  c.now(),
		},
	})
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("git commit: %w", err)
	}

	if c.autoPush {
		err := c.repo.PushContext(ctx, &gogit.PushOptions{RemoteName: c.remote})
		if err != nil && !errors.Is(err, gogit.NoErrAlreadyUpToDate) {
			return hash, fmt.Errorf("git push %s: %w", c.remote, err)
		}
	}
	return hash, nil
}
