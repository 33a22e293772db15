package enhancer

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	"readmekb/parser"
)

// EnhanceDocument renders every section of doc, depth-first, each through
// EnhanceSection.
func (e *Enhancer) EnhanceDocument(doc *parser.ParsedReadme) string {
	var parts []string
	for _, s := range doc.AllSections() {
		parts = append(parts, strings.TrimRight(e.EnhanceSection(s), "\n"))
	}
	return strings.Join(parts, "\n\n")
}

// Render combines the enhanced documents into one knowledge base file with
// an optional table of contents and an FAQ appended at the end.
func (e *Enhancer) Render(title string, docs []*parser.ParsedReadme, faq string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)

	if e.cfg.TableOfContents && len(docs) > 0 {
		b.WriteString("## Table of Contents\n\n")
		for _, doc := range docs {
			name := documentName(doc)
			fmt.Fprintf(&b, "- [%s](#%s)\n", name, Slug(name))
		}
		if faq != "" {
			fmt.Fprintf(&b, "- [Frequently Asked Questions](#%s)\n", Slug("Frequently Asked Questions"))
		}
		b.WriteString("\n")
	}

	for i, doc := range docs {
		if i > 0 && e.cfg.ModuleSeparators {
			b.WriteString("---\n\n")
		}
		fmt.Fprintf(&b, "## %s\n\n", documentName(doc))
		e.logger.Debug("enhancing document", "file", doc.FileName, "sections", doc.Metadata.TotalSections)
		if body := e.EnhanceDocument(doc); body != "" {
			b.WriteString(body)
			b.WriteString("\n\n")
		}
	}

	if faq != "" {
		if len(docs) > 0 && e.cfg.ModuleSeparators {
			b.WriteString("---\n\n")
		}
		b.WriteString(faq)
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func documentName(doc *parser.ParsedReadme) string {
	if doc.Title != "" {
		return doc.Title
	}
	return strings.TrimSuffix(doc.FileName, filepath.Ext(doc.FileName))
}

// Slug builds a GitHub style heading anchor.
func Slug(heading string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(heading)) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('-')
		}
	}
	return b.String()
}
