package usecase

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumerag/internal/adapter/fs"
	"resumerag/internal/adapter/loader"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestIndexUseCase_Index(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, nil, nil, Options{})

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "alice.txt"), "Skills\nGo, Rust\n\nExperience\nBuilt a scheduler.")
	writeFile(t, filepath.Join(root, "team", "bob.md"), "# Bob\n\n## Skills\n\nPython and Django\n")
	writeFile(t, filepath.Join(root, "empty.txt"), "   \n")
	writeFile(t, filepath.Join(root, "photo.png"), "not text")
	writeFile(t, filepath.Join(root, "other", "alice.txt"), "Skills\nCOBOL")

	uc := NewIndexUseCase(env.svc, fs.NewWalker([]string{"**/*"}, nil), loader.New())

	var calls int
	var lastDone, lastTotal int
	result, err := uc.Index(ctx, root, func(done, total int, path string) {
		calls++
		lastDone, lastTotal = done, total
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.FilesIngested)
	assert.Equal(t, 3, result.FilesSkipped)
	assert.Equal(t, 4, result.ChunksWritten)
	assert.ElementsMatch(t, []string{"alice.txt", "bob.md"}, result.Documents)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], `document name "alice.txt" already taken`)

	assert.Equal(t, 6, calls)
	assert.Equal(t, 5, lastDone)
	assert.Equal(t, 5, lastTotal)

	names, err := env.svc.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice.txt", "bob.md"}, names)
}

func TestIndexUseCase_MissingRoot(t *testing.T) {
	env := newTestEnv(t, nil, nil, Options{})
	uc := NewIndexUseCase(env.svc, fs.NewWalker(nil, nil), loader.New())

	_, err := uc.Index(context.Background(), filepath.Join(t.TempDir(), "missing"), nil)
	assert.Error(t, err)
}

func TestIndexUseCase_CanceledContext(t *testing.T) {
	env := newTestEnv(t, nil, nil, Options{})
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "alice.txt"), "Skills\nGo")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	uc := NewIndexUseCase(env.svc, fs.NewWalker(nil, nil), loader.New())
	_, err := uc.Index(ctx, root, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
