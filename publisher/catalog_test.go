package publisher

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeMeta(t *testing.T, root, dir, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(root, dir), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, dir, "metadata.json"), []byte(body), 0o644))
}

func TestCatalogScanNewestFirst(t *testing.T) {
	root := t.TempDir()
	writeMeta(t, root, "b-app", `{"title": "B", "category": "tool", "date": "2026-01-02"}`)
	writeMeta(t, root, "a-app", `{"title": "A", "category": "game", "date": "2026-01-02"}`)
	writeMeta(t, root, "old", `{"title": "Old", "category": "game", "date": "2025-12-31"}`)
	writeMeta(t, root, "new", `{"title": "New", "category": "puzzle", "date": "2026-02-01"}`)
	writeMeta(t, root, "broken", `{"title": `)
	require.NoError(t, os.WriteFile(filepath.Join(root, "metadata.json"), []byte(`{"title": "root level"}`), 0o644))

	apps, err := NewCatalog(root, quietLogger()).Scan()
	require.NoError(t, err)

	var dirs []string
	for _, a := range apps {
		dirs = append(dirs, a.DirName)
	}
	// Same-date entries keep directory order.
	assert.Equal(t, []string{"new", "a-app", "b-app", "old"}, dirs)
}

func TestCatalogExistingAppsAndTitles(t *testing.T) {
	root := t.TempDir()
	writeMeta(t, root, "snake", `{"title": "Snake", "category": "game", "date": "2026-01-01"}`)
	writeMeta(t, root, "untitled", `{"category": "tool", "date": "2026-01-01"}`)
	c := NewCatalog(root, quietLogger())

	apps, err := c.ExistingApps(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []AppSummary{{Title: "Snake", Category: "game"}, {Category: "tool"}}, apps)

	titles, err := c.ExistingTitles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Snake"}, titles)
}

func TestCatalogEmptyRoot(t *testing.T) {
	titles, err := NewCatalog(t.TempDir(), quietLogger()).ExistingTitles(context.Background())
	require.NoError(t, err)
	assert.Empty(t, titles)
}

func TestRenderGalleryCategories(t *testing.T) {
	root := t.TempDir()
	apps := []Metadata{
		{Title: "Z", Category: "tool", DirName: "z"},
		{Title: "<b>X</b>", Category: "", DirName: "x"},
		{Title: "Y", Category: "game", DirName: "y"},
	}
	require.NoError(t, RenderGallery(root, apps))

	assert.Equal(t, []string{"game", "other", "tool"}, categories(apps))
	page, err := os.ReadFile(filepath.Join(root, GalleryFile))
	require.NoError(t, err)
	assert.Contains(t, string(page), `data-category="game"`)
	assert.Contains(t, string(page), "&lt;b&gt;X&lt;/b&gt;")
	assert.NotContains(t, string(page), "No apps yet.")

	require.NoError(t, RenderGallery(root, nil))
	page, err = os.ReadFile(filepath.Join(root, GalleryFile))
	require.NoError(t, err)
	assert.Contains(t, string(page), "No apps yet.")
}
