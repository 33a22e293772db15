package internal

import (
	"fmt"
	"log"
	"strings"

	"github.com/pkoukk/tiktoken-go"

	"readmekb/enhancer"
	"readmekb/parser"
	"readmekb/qa"
	"readmekb/types"
)

const tokenEncoding = "cl100k_base"

// TokenCounter counts tokens with tiktoken. When the encoding cannot be
// loaded (it is fetched on first use) it estimates from the word count.
type TokenCounter struct {
	enc *tiktoken.Tiktoken
}

func NewTokenCounter() *TokenCounter {
	enc, err := tiktoken.GetEncoding(tokenEncoding)
	if err != nil {
		log.Printf("[TOKENS] %s encoding unavailable, estimating from words: %v", tokenEncoding, err)
		return &TokenCounter{}
	}
	return &TokenCounter{enc: enc}
}

func (t *TokenCounter) Count(text string) int {
	if t == nil || t.enc == nil {
		return (len(strings.Fields(text))*4 + 2) / 3
	}
	return len(t.enc.Encode(text, nil, nil))
}

// Chunker turns a parsed README into knowledge chunks: one summary chunk,
// one chunk per non-empty section (split when it exceeds the token budget)
// and one chunk per generated question.
type Chunker struct {
	maxTokens int
	counter   *TokenCounter
	enhancer  *enhancer.Enhancer
	qa        *qa.Generator
}

func NewChunker(maxTokens int, counter *TokenCounter, enh *enhancer.Enhancer, gen *qa.Generator) *Chunker {
	return &Chunker{
		maxTokens: maxTokens,
		counter:   counter,
		enhancer:  enh,
		qa:        gen,
	}
}

func (c *Chunker) Chunks(doc *parser.ParsedReadme) []types.KnowledgeChunk {
	docID := types.DocumentID(doc.FileName)
	version := ""
	if v := doc.SpecialContent.Versions; len(v) > 0 {
		version = v[0]
	}

	newChunk := func(externalID, title, content string, meta types.ChunkMetadata) types.KnowledgeChunk {
		meta.Tokens = c.counter.Count(content)
		meta.Version = version
		return types.KnowledgeChunk{
			DocID:      docID,
			Source:     doc.FileName,
			ExternalID: externalID,
			Title:      title,
			Content:    content,
			Metadata:   meta,
		}
	}

	chunks := []types.KnowledgeChunk{
		newChunk(doc.FileName+"#summary", documentTitle(doc), summary(doc), types.ChunkMetadata{Kind: types.ChunkSummary}),
	}

	seen := make(map[string]int)
	walkPaths(doc.Sections, "", func(s *parser.Section, path string) {
		if strings.TrimSpace(s.Content) == "" {
			return
		}
		id := doc.FileName + "#" + path
		if n := seen[id]; n > 0 {
			seen[id] = n + 1
			id = fmt.Sprintf("%s~%d", id, n+1)
		} else {
			seen[id] = 1
		}

		parts := c.split(c.enhancer.EnhanceSection(s))
		for i, part := range parts {
			meta := types.ChunkMetadata{
				Kind:        types.ChunkSection,
				SectionType: s.SectionType,
				SectionPath: path,
				Level:       s.Level,
				LineNumber:  s.LineNumber,
			}
			partID := id
			if len(parts) > 1 {
				meta.Part = i + 1
				partID = fmt.Sprintf("%s:%d", id, i+1)
			}
			chunks = append(chunks, newChunk(partID, s.Title, part, meta))
		}
	})

	for i, p := range c.qa.GenerateForDocument(doc) {
		chunks = append(chunks, newChunk(
			fmt.Sprintf("%s#faq/%d", doc.FileName, i+1),
			p.Question,
			"Q: "+p.Question+"\n\nA: "+p.Answer,
			types.ChunkMetadata{Kind: types.ChunkQA, SectionType: p.SectionType, SectionPath: p.SourceSection, Category: p.Category},
		))
	}
	return chunks
}

// walkPaths visits sections depth-first with their title path ("A/B/C").
func walkPaths(sections []*parser.Section, prefix string, fn func(*parser.Section, string)) {
	for _, s := range sections {
		path := s.Title
		if prefix != "" {
			path = prefix + "/" + s.Title
		}
		fn(s, path)
		walkPaths(s.Subsections, path, fn)
	}
}

// split packs paragraphs into parts of at most maxTokens. A paragraph that is
// too long on its own is cut into word windows.
func (c *Chunker) split(text string) []string {
	text = strings.TrimSpace(text)
	if c.maxTokens <= 0 || c.counter.Count(text) <= c.maxTokens {
		return []string{text}
	}

	var (
		parts   []string
		current []string
	)
	flush := func() {
		if len(current) > 0 {
			parts = append(parts, strings.Join(current, "\n\n"))
			current = nil
		}
	}
	for _, para := range strings.Split(text, "\n\n") {
		if strings.TrimSpace(para) == "" {
			continue
		}
		if c.counter.Count(para) > c.maxTokens {
			flush()
			parts = append(parts, c.windows(para)...)
			continue
		}
		candidate := append(current, para)
		if c.counter.Count(strings.Join(candidate, "\n\n")) > c.maxTokens {
			flush()
			candidate = []string{para}
		}
		current = candidate
	}
	flush()
	return parts
}

func (c *Chunker) windows(para string) []string {
	words := strings.Fields(para)
	var out []string
	for start := 0; start < len(words); {
		end := start + 1
		for end < len(words) && c.counter.Count(strings.Join(words[start:end+1], " ")) <= c.maxTokens {
			end++
		}
		out = append(out, strings.Join(words[start:end], " "))
		start = end
	}
	return out
}

func documentTitle(doc *parser.ParsedReadme) string {
	if doc.Title != "" {
		return doc.Title
	}
	return strings.TrimSuffix(doc.FileName, ".md")
}

func summary(doc *parser.ParsedReadme) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", documentTitle(doc))
	if len(doc.SpecialContent.Versions) > 0 {
		fmt.Fprintf(&b, "Version: %s\n", doc.SpecialContent.Versions[0])
	}
	if len(doc.SpecialContent.Dates) > 0 {
		fmt.Fprintf(&b, "Date: %s\n", doc.SpecialContent.Dates[0])
	}
	fmt.Fprintf(&b, "Sections: %d, code blocks: %d, tables: %d, links: %d\n",
		doc.Metadata.TotalSections, doc.Metadata.TotalCodeBlocks, doc.Metadata.TotalTables, doc.Metadata.TotalLinks)

	var titles []string
	for _, s := range doc.Sections {
		titles = append(titles, s.Title)
		for _, sub := range s.Subsections {
			titles = append(titles, sub.Title)
		}
	}
	if len(titles) > 0 {
		b.WriteString("\nContents:\n")
		for _, t := range titles {
			fmt.Fprintf(&b, "- %s\n", t)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
