package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"readmekb/enhancer"
	"readmekb/loader/internal"
	"readmekb/parser"
	"readmekb/qa"
	"readmekb/store"
	"readmekb/types"
)

const readme = "# Tool\n\nA small tool.\n\n## Installation\n\nRun the installer.\n\n## Usage\n\nCall it.\n"

type nopEmbedder struct{}

func (nopEmbedder) Embed(context.Context, string) ([]float32, error) { return nil, nil }

type failingStore struct {
	*store.MemoryStore
}

func (failingStore) UpsertChunk(context.Context, *types.KnowledgeChunk) error {
	return errors.New("disk full")
}

type fixture struct {
	cfg    types.Config
	parser *parser.Parser
	loader *internal.MDLoader
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	cfg := types.DefaultConfig()
	cfg.SourceDir = filepath.Join(root, "in")
	cfg.ArchiveDir = filepath.Join(root, "archive")
	cfg.BadDir = filepath.Join(root, "bad")
	cfg.MonitoringTime = time.Millisecond

	p, err := parser.New(parser.DefaultConfig())
	require.NoError(t, err)
	chunker := internal.NewChunker(4096, &internal.TokenCounter{}, enhancer.New(enhancer.DefaultConfig()), qa.New(qa.DefaultConfig()))
	l, err := internal.NewMDLoader(cfg, p, chunker, nopEmbedder{})
	require.NoError(t, err)
	return &fixture{cfg: cfg, parser: p, loader: l}
}

func (f *fixture) write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(f.cfg.SourceDir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (f *fixture) load(t *testing.T, name, content string) *types.Document {
	t.Helper()
	doc, err := f.loader.LoadFile(context.Background(), f.write(t, name, content))
	require.NoError(t, err)
	return doc
}

func TestService_SaveDocument(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	mem := store.NewMemoryStore()
	svc := New(mem, f.loader)

	doc := f.load(t, "README.md", readme)
	require.NoError(t, svc.SaveDocument(ctx, doc))

	chunks, err := mem.ListBySource(ctx, "README.md", 0, 0)
	require.NoError(t, err)
	assert.Len(t, chunks, len(doc.Chunks))
	_, err = mem.GetChunkByExternalID(ctx, "README.md", "README.md#Tool/Usage")
	require.NoError(t, err)

	assert.False(t, svc.ShouldUpdateFile(ctx, doc.ID, doc.UpdatedAt))

	// same mod time: skipped
	unchanged := *doc
	unchanged.Chunks = nil
	require.NoError(t, svc.SaveDocument(ctx, &unchanged))
	chunks, err = mem.ListBySource(ctx, "README.md", 0, 0)
	require.NoError(t, err)
	assert.Len(t, chunks, len(doc.Chunks))

	// newer version without the Usage section: stale chunks are pruned
	updated := f.load(t, "README.md", "# Tool\n\nA small tool.\n\n## Installation\n\nRun the installer.\n")
	updated.UpdatedAt = doc.UpdatedAt.Add(time.Minute)
	require.NoError(t, svc.SaveDocument(ctx, updated))

	_, err = mem.GetChunkByExternalID(ctx, "README.md", "README.md#Tool/Usage")
	assert.ErrorIs(t, err, store.ErrNotFound)
	chunks, err = mem.ListBySource(ctx, "README.md", 0, 0)
	require.NoError(t, err)
	assert.Len(t, chunks, len(updated.Chunks))
}

func TestService_DocumentSave(t *testing.T) {
	f := newFixture(t)
	today := time.Now().Format("2006-01-02")

	good := f.load(t, "README.md", readme)
	docChan := make(chan *types.Document, 1)
	docChan <- good
	close(docChan)
	require.NoError(t, New(store.NewMemoryStore(), f.loader).DocumentSave(context.Background(), docChan))
	assert.FileExists(t, filepath.Join(f.cfg.ArchiveDir, today, "README.md"))

	bad := f.load(t, "OTHER.md", readme)
	docChan = make(chan *types.Document, 1)
	docChan <- bad
	close(docChan)
	require.NoError(t, New(failingStore{store.NewMemoryStore()}, f.loader).DocumentSave(context.Background(), docChan))
	assert.FileExists(t, filepath.Join(f.cfg.BadDir, today, "OTHER.md"))
}

func TestService_LoadDir(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.write(t, "README.md", readme)
	f.write(t, "GUIDE.md", "# Guide\n\n## Usage\n\nRead it.\n")
	f.write(t, "notes.txt", "ignored")

	mem := store.NewMemoryStore()
	saved, err := New(mem, f.loader).LoadDir(ctx, f.parser, f.cfg.SourceDir)
	require.NoError(t, err)
	assert.Equal(t, 2, saved)

	for _, source := range []string{"README.md", "GUIDE.md"} {
		chunks, err := mem.ListBySource(ctx, source, 0, 0)
		require.NoError(t, err)
		assert.NotEmpty(t, chunks, source)
	}
	assert.FileExists(t, filepath.Join(f.cfg.SourceDir, "README.md"))
}

func TestService_Run(t *testing.T) {
	f := newFixture(t)
	f.write(t, "README.md", readme)
	mem := store.NewMemoryStore()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		New(mem, f.loader).Run(ctx)
	}()

	require.Eventually(t, func() bool {
		_, err := mem.GetChunkByExternalID(context.Background(), "README.md", "README.md#summary")
		return err == nil
	}, 10*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("service did not stop")
	}
	assert.NoFileExists(t, filepath.Join(f.cfg.SourceDir, "README.md"))
}
