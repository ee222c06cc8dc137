package service_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storyblocks/internal/service"
)

func TestImportable(t *testing.T) {
	assert.True(t, service.Importable("a.md"))
	assert.True(t, service.Importable("a.MARKDOWN"))
	assert.True(t, service.Importable("/x/y.json"))
	assert.False(t, service.Importable("a.txt"))
	assert.False(t, service.Importable(".md.swp"))
}

func TestImportFile_ByExtension(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, nil)
	w := service.NewImportWatcher(svc, t.TempDir(), 0, nil)

	dir := t.TempDir()
	md := filepath.Join(dir, "Road Trip.md")
	require.NoError(t, os.WriteFile(md, []byte("# Day 1\n"), 0644))
	st, err := w.ImportFile(ctx, md)
	require.NoError(t, err)
	assert.Equal(t, "Road Trip", st.Title)
	assert.Equal(t, "road-trip", st.Slug)

	js := filepath.Join(dir, "export.json")
	require.NoError(t, os.WriteFile(js, []byte(`{"title":"Named","blocks":[{"type":"text","content":"hi"}]}`), 0644))
	st, err = w.ImportFile(ctx, js)
	require.NoError(t, err)
	assert.Equal(t, "named", st.Slug)

	_, err = w.ImportFile(ctx, filepath.Join(dir, "missing.md"))
	assert.Error(t, err)
}

func TestImportWatcher_Run(t *testing.T) {
	svc, _ := newService(t, nil)
	dir := t.TempDir()

	// Present before start: imported by the initial scan.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "existing.md"), []byte("old\n"), 0644))

	w := service.NewImportWatcher(svc, dir, 20*time.Millisecond, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	findContent := func(slug string) string {
		st, err := svc.ResolveStory(context.Background(), slug)
		if err != nil {
			return ""
		}
		state, err := svc.GetStory(context.Background(), st.ID)
		if err != nil || len(state.Blocks) == 0 {
			return ""
		}
		return state.Blocks[0].Content
	}

	require.Eventually(t, func() bool { return findContent("existing") == "old" }, 2*time.Second, 10*time.Millisecond)

	// Ignored extension.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fresh.md"), []byte("new\n"), 0644))
	require.Eventually(t, func() bool { return findContent("fresh") == "new" }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "existing.md"), []byte("rewritten\n"), 0644))
	require.Eventually(t, func() bool { return findContent("existing") == "rewritten" }, 2*time.Second, 10*time.Millisecond)

	_, err := svc.ResolveStory(context.Background(), "notes")
	assert.Error(t, err)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
