package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumerag/internal/adapter/chunker"
)

func TestLoad_Text(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alice.txt")
	require.NoError(t, os.WriteFile(path, []byte("Skills\nGo, Rust\n"), 0644))

	doc, err := New().Load(path)
	require.NoError(t, err)
	assert.Equal(t, "alice.txt", doc.Name)
	assert.Equal(t, "Skills\nGo, Rust\n", doc.Text)
	assert.Equal(t, "txt", doc.Meta[MetaType])
	assert.Equal(t, path, doc.Meta[MetaSource])
}

func TestLoad_Markdown(t *testing.T) {
	src := "# Jane Doe\n\n## Skills\n\n- **Go** and Rust\n- Kubernetes\n\n## Experience\n\nBuilt a *scheduler* for\nAcme.\n\n```\nmake deploy\n```\n"
	path := filepath.Join(t.TempDir(), "jane.md")
	require.NoError(t, os.WriteFile(path, []byte(src), 0644))

	doc, err := New().Load(path)
	require.NoError(t, err)
	assert.Equal(t, "md", doc.Meta[MetaType])

	assert.NotContains(t, doc.Text, "#")
	assert.NotContains(t, doc.Text, "**")
	assert.Contains(t, doc.Text, "Go and Rust")
	assert.Contains(t, doc.Text, "Built a scheduler for\nAcme.")
	assert.Contains(t, doc.Text, "make deploy")

	// Markdown headings become standalone lines the segmenter recognises.
	chunks := chunker.NewSectionChunker(1000, 0).Segment(doc.Text, doc.Name)
	var sections []string
	for _, ch := range chunks {
		sections = append(sections, ch.Section)
	}
	assert.Equal(t, []string{"BODY", "Skills", "Experience"}, sections)
}

func TestLoad_Unsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resume.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF"), 0644))

	_, err := New().Load(path)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestLoad_Missing(t *testing.T) {
	_, err := New().Load(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("a.TXT"))
	assert.True(t, Supported("dir/b.markdown"))
	assert.False(t, Supported("c.docx"))
}
