package dropwatch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccepts(t *testing.T) {
	w, err := New([]string{".pdf", "docx", " .HTML "})
	require.NoError(t, err)
	defer w.Stop()

	assert.True(t, w.Accepts("a.PDF"))
	assert.True(t, w.Accepts("dir/b.docx"))
	assert.True(t, w.Accepts("c.html"))
	assert.False(t, w.Accepts("d.txt"))
	assert.False(t, w.Accepts("pdf"))
}

func TestWatchReportsAcceptedFiles(t *testing.T) {
	dir := t.TempDir()
	w, err := New([]string{".pdf"})
	require.NoError(t, err)
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	found := make(chan string, 8)
	require.NoError(t, w.Watch(ctx, dir, func(path string) { found <- path }, nil))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "skip.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "report.pdf"), []byte("x"), 0o644))

	select {
	case path := <-found:
		assert.Equal(t, "report.pdf", filepath.Base(path))
	case <-time.After(5 * time.Second):
		t.Fatal("no event for report.pdf")
	}
}

func TestWatchMissingDir(t *testing.T) {
	w, err := New(nil)
	require.NoError(t, err)
	defer w.Stop()

	err = w.Watch(context.Background(), filepath.Join(t.TempDir(), "nope"), func(string) {}, nil)
	assert.Error(t, err)
}
