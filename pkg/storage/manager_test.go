package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	mirrorerrors "coursemirror/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Notes/Page", "Notes"},
		{"Lecture Notes\nPage", "Lecture Notes"},
		{`a\b:c*d?e"f<g>h|i`, "abcdefghi"},
		{"  Week 1  ", "Week 1"},
		{"HOMEPAGE", "HOME"},
		{"Notes Page Page", "Notes"},
		{"Lecture Page ", "Lecture"},
		{"page", ""},
		{"", ""},
		{"02.Folder", "02.Folder"},
		{"Ders Notları", "Ders Notları"},
		{"tab\tname", "tabname"},
		{"..", ""},
		{" . ", ""},
		{"v1.2", "v1.2"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.in))
		})
	}
}

func TestSanitizeIdempotent(t *testing.T) {
	inputs := []string{
		"Notes/Page", "Xpagepage", "  page  Page ", "a/b\\c", "Lecture Page ",
		"PaGe", "p/age", "pa:ge", "Slides (1)", "ü page", "\x00page", "",
	}
	for _, in := range inputs {
		once := Sanitize(in)
		assert.Equal(t, once, Sanitize(once), "input %q", in)
		assert.False(t, strings.ContainsAny(once, `\/:*?"<>|`), "input %q", in)
	}
}

func TestNewManager(t *testing.T) {
	root := filepath.Join(t.TempDir(), "mirror")

	m, err := NewManager(root, 0)
	require.NoError(t, err)
	assert.Equal(t, root, m.Root())
	assert.Equal(t, DefaultChunkSize, m.chunkSize)
	assert.DirExists(t, root)

	_, err = NewManager("", 16)
	assert.True(t, mirrorerrors.IsType(err, mirrorerrors.ErrorTypeFilesystem))
}

func TestManagerSave(t *testing.T) {
	root := t.TempDir()
	m, err := NewManager(root, 4)
	require.NoError(t, err)

	dir := filepath.Join(root, "Lecture Notes", "Week 1")
	data := []byte("%PDF-1.4 slide deck")

	path, n, err := m.Save(context.Background(), bytes.NewReader(data), dir, "slides.pdf")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "slides.pdf"), path)
	assert.Equal(t, int64(len(data)), n)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, data, content)
	assert.NoFileExists(t, path+".part")
	assert.Equal(t, 1, m.WrittenCount())
}

func TestManagerSaveCollision(t *testing.T) {
	root := t.TempDir()
	m, err := NewManager(root, 0)
	require.NoError(t, err)

	first, _, err := m.Save(context.Background(), strings.NewReader("one"), root, "hw.pdf")
	require.NoError(t, err)
	second, _, err := m.Save(context.Background(), strings.NewReader("two"), root, "hw.pdf")
	require.NoError(t, err)
	third, _, err := m.Save(context.Background(), strings.NewReader("three"), root, "hw.pdf")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "hw.pdf"), first)
	assert.Equal(t, filepath.Join(root, "hw (2).pdf"), second)
	assert.Equal(t, filepath.Join(root, "hw (3).pdf"), third)
}

func TestManagerSaveOverwritesPreviousRun(t *testing.T) {
	root := t.TempDir()
	existing := filepath.Join(root, "hw.pdf")
	require.NoError(t, os.WriteFile(existing, []byte("old"), 0644))

	m, err := NewManager(root, 0)
	require.NoError(t, err)

	path, _, err := m.Save(context.Background(), strings.NewReader("new"), root, "hw.pdf")
	require.NoError(t, err)
	assert.Equal(t, existing, path)

	content, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "new", string(content))
}

type failingReader struct {
	sent bool
}

func (r *failingReader) Read(p []byte) (int, error) {
	if !r.sent {
		r.sent = true
		return copy(p, "partial"), nil
	}
	return 0, errors.New("connection reset by peer")
}

func TestManagerSaveRemovesPartialFile(t *testing.T) {
	root := t.TempDir()
	m, err := NewManager(root, 0)
	require.NoError(t, err)

	_, _, err = m.Save(context.Background(), &failingReader{}, root, "broken.pdf")
	require.Error(t, err)
	assert.True(t, mirrorerrors.IsType(err, mirrorerrors.ErrorTypeNetwork))

	assert.NoFileExists(t, filepath.Join(root, "broken.pdf"))
	assert.NoFileExists(t, filepath.Join(root, "broken.pdf.part"))
	assert.Equal(t, 0, m.WrittenCount())

	// The failed name is free again.
	path, _, err := m.Save(context.Background(), strings.NewReader("ok"), root, "broken.pdf")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "broken.pdf"), path)
}

func TestManagerSaveCancelled(t *testing.T) {
	root := t.TempDir()
	m, err := NewManager(root, 0)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err = m.Save(ctx, io.LimitReader(strings.NewReader("data"), 4), root, "x.pdf")
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, filepath.Join(root, "x.pdf.part"))
}
