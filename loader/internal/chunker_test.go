package internal

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"readmekb/enhancer"
	"readmekb/parser"
	"readmekb/qa"
	"readmekb/types"
)

const chunkReadme = "# Tool\n\n**Version:** 1.2.0\n\nA small tool.\n\n" +
	"## Installation\n\nRun the installer.\n\n```bash\nmake install\n```\n\n" +
	"## Notes\n\nFirst note.\n\n" +
	"## Notes\n\nSecond note.\n"

func newTestChunker(maxTokens int) *Chunker {
	return NewChunker(maxTokens, &TokenCounter{}, enhancer.New(enhancer.DefaultConfig()), qa.New(qa.DefaultConfig()))
}

func parseReadme(t *testing.T, name, md string) *parser.ParsedReadme {
	t.Helper()
	p, err := parser.New(parser.DefaultConfig())
	require.NoError(t, err)
	return p.Parse(name, md)
}

func byExternalID(chunks []types.KnowledgeChunk) map[string]types.KnowledgeChunk {
	m := make(map[string]types.KnowledgeChunk, len(chunks))
	for _, c := range chunks {
		m[c.ExternalID] = c
	}
	return m
}

func TestChunker_Chunks(t *testing.T) {
	chunks := newTestChunker(4096).Chunks(parseReadme(t, "README.md", chunkReadme))
	require.NotEmpty(t, chunks)

	summary := chunks[0]
	assert.Equal(t, "README.md#summary", summary.ExternalID)
	assert.Equal(t, types.ChunkSummary, summary.Metadata.Kind)
	assert.Equal(t, "Tool", summary.Title)
	assert.Contains(t, summary.Content, "Version: 1.2.0")
	assert.Contains(t, summary.Content, "- Installation")

	ids := byExternalID(chunks)
	install, ok := ids["README.md#Tool/Installation"]
	require.True(t, ok)
	assert.Equal(t, types.ChunkSection, install.Metadata.Kind)
	assert.Equal(t, "installation", install.Metadata.SectionType)
	assert.Equal(t, "Tool/Installation", install.Metadata.SectionPath)
	assert.Equal(t, 2, install.Metadata.Level)
	assert.Equal(t, 7, install.Metadata.LineNumber)
	assert.Equal(t, "1.2.0", install.Metadata.Version)
	assert.True(t, strings.HasPrefix(install.Content, "## Installation\n\n"))

	assert.Contains(t, ids, "README.md#Tool")
	assert.Contains(t, ids, "README.md#Tool/Notes")
	assert.Contains(t, ids["README.md#Tool/Notes~2"].Content, "Second note.")

	faq, ok := ids["README.md#faq/1"]
	require.True(t, ok)
	assert.Equal(t, types.ChunkQA, faq.Metadata.Kind)
	assert.True(t, strings.HasPrefix(faq.Content, "Q: "+faq.Title+"\n\nA: "))

	for _, c := range chunks {
		assert.Equal(t, types.DocumentID("README.md"), c.DocID)
		assert.Equal(t, "README.md", c.Source)
		assert.Positive(t, c.Metadata.Tokens, c.ExternalID)
	}
}

func TestChunker_SplitsLongSections(t *testing.T) {
	para := strings.TrimSpace(strings.Repeat("word ", 20))
	md := "## Notes\n\n" + para + "\n\n" + para + "\n\n" + para + "\n"

	ids := byExternalID(newTestChunker(32).Chunks(parseReadme(t, "NOTES.md", md)))
	assert.NotContains(t, ids, "NOTES.md#Notes")
	for i, id := range []string{"NOTES.md#Notes:1", "NOTES.md#Notes:2", "NOTES.md#Notes:3"} {
		c, ok := ids[id]
		require.True(t, ok, id)
		assert.Equal(t, i+1, c.Metadata.Part)
	}
	assert.True(t, strings.HasPrefix(ids["NOTES.md#Notes:1"].Content, "## Notes\n\n"))
}

func TestChunker_Split(t *testing.T) {
	c := newTestChunker(10)
	text := "a b c\n\nd e f\n\ng h i j k l m n o p q r s"
	assert.Equal(t, []string{"a b c\n\nd e f", "g h i j k l m", "n o p q r s"}, c.split(text))
	assert.Equal(t, []string{"short"}, c.split("  short  "))
}

func TestTokenCounter_Estimate(t *testing.T) {
	var tc *TokenCounter
	assert.Equal(t, 4, tc.Count("one two three"))
	assert.Equal(t, 0, (&TokenCounter{}).Count(""))
}
