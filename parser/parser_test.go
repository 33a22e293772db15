package parser

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleReadme = `# Sample Project

**Version:** 2.1.0

![Build](https://img.shields.io/badge/build-passing.svg)

## Installation

Install with:

` + "```bash\npip install sample-project\n```" + `

## Usage

Call ` + "`sample.run()`" + ` from your code. See [the docs](https://docs.example.com).

| Flag | Meaning |
|------|---------|
| -v   | verbose |

### Deployment Pipeline

1. Build the image
2. Push the image
3. Roll out
`

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestParse_Document(t *testing.T) {
	p := newTestParser(t)
	doc := p.Parse("/tmp/docs/README.md", sampleReadme)

	assert.Equal(t, "/tmp/docs/README.md", doc.FilePath)
	assert.Equal(t, "README.md", doc.FileName)
	assert.Equal(t, "Sample Project", doc.Title)

	require.Len(t, doc.Sections, 1)
	root := doc.Sections[0]
	assert.Equal(t, []string{"Installation", "Usage"}, titles(root.Subsections))
	assert.Equal(t, "installation", root.Subsections[0].SectionType)

	usage := root.Subsections[1]
	assert.Equal(t, "usage", usage.SectionType)
	require.Len(t, usage.Subsections, 1)
	assert.Equal(t, "Deployment Pipeline", usage.Subsections[0].Title)
	assert.Len(t, usage.Tables, 1)
	assert.Contains(t, inlineOnly(usage.CodeBlocks), "sample.run()")

	assert.Equal(t, []string{"2.1.0"}, doc.SpecialContent.Versions)
	assert.Len(t, doc.SpecialContent.Images, 1)
	assert.Nil(t, doc.SpecialContent.Mermaid)

	assert.Equal(t, []string{
		"1. Build the image\n2. Push the image\n3. Roll out",
		"\n1. Build the image\n2. Push the image\n3. Roll out\n",
	}, doc.Workflows)

	md := doc.Metadata
	assert.Equal(t, len(strings.Split(sampleReadme, "\n")), md.TotalLines)
	assert.Equal(t, 4, md.TotalSections)
	assert.Equal(t, len(doc.CodeBlocks), md.TotalCodeBlocks)
	assert.Equal(t, 1, md.TotalTables)
	assert.Equal(t, 2, md.TotalLinks)
	assert.True(t, md.HasVersion)
	assert.False(t, md.HasMermaid)
}

func TestParse_NormalizesLineEndings(t *testing.T) {
	p := newTestParser(t)
	doc := p.Parse("crlf.md", "\uFEFF# Title\r\n## Setup\r\nline one\r\nline two\r\n")

	assert.Equal(t, "Title", doc.Title)
	require.Len(t, doc.Sections, 1)
	setup := doc.Sections[0].Subsections[0]
	assert.Equal(t, "line one\nline two", setup.Content)
}

func TestParse_JSONOmitsAbsentSpecialContent(t *testing.T) {
	p := newTestParser(t)
	doc := p.Parse("plain.md", "# Plain\n\ntext")

	data, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"special_content":{}`)
}

func TestParseFile_EncodingFallback(t *testing.T) {
	dir := t.TempDir()
	// "Café" and "naïve" in latin-1, invalid as UTF-8
	latin1 := []byte("# Caf\xe9\n\n## Notes\nna\xefve approach\n")
	path := writeFile(t, dir, "latin.md", latin1)

	p := newTestParser(t)
	doc, err := p.ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Café", doc.Title)
	assert.Equal(t, "naïve approach", doc.Sections[0].Subsections[0].Content)
}

func TestDecodeText(t *testing.T) {
	logger := newTestParser(t).logger

	assert.Equal(t, "héllo", decodeText([]byte("\xef\xbb\xbfhéllo"), "utf-8", nil, logger))
	assert.Equal(t, "a\nb\nc", decodeText([]byte("a\r\nb\rc"), "utf-8", nil, logger))
	assert.Equal(t, "€", decodeText([]byte{0x80}, "utf-8", []string{"cp1252"}, logger))
	// unknown encodings only: lossy utf-8
	assert.Equal(t, "x\uFFFDy", decodeText([]byte("x\xffy"), "utf-8", []string{"klingon"}, logger))
}

func TestCheckEligibility(t *testing.T) {
	dir := t.TempDir()
	md := writeFile(t, dir, "README.MD", []byte("# Upper case extension"))
	txt := writeFile(t, dir, "notes.txt", []byte("text"))
	empty := writeFile(t, dir, "empty.md", nil)
	big := writeFile(t, dir, "big.md", []byte(strings.Repeat("x", 64)))

	p := newTestParser(t)
	assert.NoError(t, p.CheckEligibility(md))
	assert.NoError(t, p.CheckEligibility(empty))
	assert.NoError(t, p.CheckEligibility(big))
	assert.ErrorIs(t, p.CheckEligibility(txt), ErrUnsupportedExtension)
	assert.ErrorIs(t, p.CheckEligibility(filepath.Join(dir, "missing.md")), ErrFileNotFound)

	cfg := DefaultConfig()
	cfg.HandleEmptyFiles = false
	cfg.HandleLargeFiles = false
	cfg.MaxFileSizeBytes = 32
	strict, err := New(cfg)
	require.NoError(t, err)

	assert.ErrorIs(t, strict.CheckEligibility(empty), ErrEmptyFile)
	err = strict.CheckEligibility(big)
	assert.ErrorIs(t, err, ErrFileTooLarge)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, big, verr.Path)
}

func TestParseBytes(t *testing.T) {
	p := newTestParser(t)
	doc, err := p.ParseBytes("README.md", []byte("\xef\xbb\xbf# Upload\r\n\r\n## Usage\r\n\r\nRun it.\r\n"))
	require.NoError(t, err)
	assert.Equal(t, "Upload", doc.Title)
	assert.Equal(t, "README.md", doc.FileName)
	require.Len(t, doc.Sections, 1)
	assert.Equal(t, "Run it.", doc.Sections[0].Subsections[0].Content)

	_, err = p.ParseBytes("notes.txt", []byte("# x"))
	assert.ErrorIs(t, err, ErrUnsupportedExtension)

	cfg := DefaultConfig()
	cfg.HandleEmptyFiles = false
	cfg.HandleLargeFiles = false
	cfg.MaxFileSizeBytes = 4
	strict, err := New(cfg)
	require.NoError(t, err)
	_, err = strict.ParseBytes("README.md", nil)
	assert.ErrorIs(t, err, ErrEmptyFile)
	_, err = strict.ParseBytes("README.md", []byte("# too long"))
	assert.ErrorIs(t, err, ErrFileTooLarge)
}

func TestParseFile_RejectsBeforeRead(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "notes.txt", []byte("# Title"))

	p := newTestParser(t)
	p.readFile = func(string) ([]byte, error) {
		t.Fatal("file must not be read")
		return nil, nil
	}
	doc, err := p.ParseFile(path)
	assert.Nil(t, doc)
	assert.ErrorIs(t, err, ErrUnsupportedExtension)
}

func TestParseAll_SkipsFailingFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "c.md", []byte("# C"))
	writeFile(t, dir, "broken.md", []byte("# Broken"))
	writeFile(t, dir, "B.md", []byte("# B"))
	writeFile(t, dir, "a.md", []byte("# A"))
	writeFile(t, dir, "skip.txt", []byte("# not markdown"))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.md"), 0o755))

	p := newTestParser(t)
	p.readFile = func(path string) ([]byte, error) {
		if filepath.Base(path) == "broken.md" {
			panic("unexpected parser state")
		}
		return os.ReadFile(path)
	}

	docs, err := p.ParseAll(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, docs, 3)

	var names []string
	for _, d := range docs {
		names = append(names, d.FileName)
	}
	assert.Equal(t, []string{"a.md", "B.md", "c.md"}, names)
	assert.Equal(t, "B", docs[1].Title)
}

func TestParseAll_ReadErrorIsSkipped(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "one.md", []byte("# One"))
	writeFile(t, dir, "two.md", []byte("# Two"))

	cfg := DefaultConfig()
	cfg.Workers = 1
	p, err := New(cfg)
	require.NoError(t, err)
	p.readFile = func(path string) ([]byte, error) {
		if filepath.Base(path) == "one.md" {
			return nil, os.ErrPermission
		}
		return os.ReadFile(path)
	}

	docs, err := p.ParseAll(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "two.md", docs[0].FileName)
}

func TestParseAll_MissingDirectory(t *testing.T) {
	p := newTestParser(t)
	_, err := p.ParseAll(context.Background(), filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestParseAll_Cancelled(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.md", []byte("# A"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := newTestParser(t)
	_, err := p.ParseAll(ctx, dir)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxNestingDepth = 0
	_, err := New(cfg)
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.DetectionPatterns = []CategoryPatterns{{Category: "usage", Patterns: []string{"(unclosed"}}}
	_, err = New(cfg)
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.Extensions = []string{"md"}
	_, err = New(cfg)
	assert.Error(t, err)
}

func TestNew_CustomDepth(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxNestingDepth = 2
	p, err := New(cfg)
	require.NoError(t, err)

	doc := p.Parse("depth.md", "# A\n## B\n### C\ntext")
	require.Len(t, doc.Sections, 1)
	b := doc.Sections[0].Subsections[0]
	assert.Empty(t, b.Subsections)
	assert.Equal(t, "### C\ntext", b.Content)
}
