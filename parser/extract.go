package parser

import (
	"regexp"
	"strings"
)

var (
	fenceLineRe  = regexp.MustCompile("^\\s*```(\\w+)?\\s*$")
	inlineCodeRe = regexp.MustCompile("`[^`\\n]+`")
	tableRowRe   = regexp.MustCompile(`^\|.+\|`)
	tableSepRe   = regexp.MustCompile(`^\|[\s\-:]+\|`)
	linkRe       = regexp.MustCompile(`\[([^\]]+)\]\(([^\)]+)\)`)
	mermaidRe    = regexp.MustCompile("```mermaid[\\s\\S]*?```")
	versionRe    = regexp.MustCompile(`(?i)\*\*version(?::\*\*|\*\*:)\s*([\d.]+)`)
	dateRe       = regexp.MustCompile(`(?i)\*\*date(?::\*\*|\*\*:)[ \t]*([^\n]*)`)
	imageRe      = regexp.MustCompile(`!\[([^\]]*)\]\(([^\)]+)\)`)
)

// extractCodeBlocks scans fenced blocks and then inline spans over the same
// text. firstLine is the document line number of the first line of text.
//
// Fences are paired line by line: an opening fence is closed by the next bare
// ``` line. A fence that is never closed produces nothing, and a tagged
// fence met while a block is open starts a new block in place of the
// unclosed one. Inline spans never cross a line and are not looked for
// inside fenced blocks.
func (p *Parser) extractCodeBlocks(text string, firstLine int) []CodeBlock {
	var blocks []CodeBlock

	lines := strings.Split(text, "\n")
	inlineLines := make([]string, len(lines))
	copy(inlineLines, lines)

	open := -1
	var lang string
	for i, line := range lines {
		m := fenceLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		switch {
		case open < 0 || m[1] != "":
			open, lang = i, m[1]
		default:
			for j := open; j <= i; j++ {
				inlineLines[j] = ""
			}
			content := strings.TrimSpace(strings.Join(lines[open+1:i], "\n"))
			if len(content) >= p.cfg.MinCodeBlockLength {
				blocks = append(blocks, CodeBlock{
					Content:    content,
					Language:   lang,
					LineNumber: firstLine + open,
				})
			}
			open, lang = -1, ""
		}
	}

	for i, line := range inlineLines {
		for _, m := range inlineCodeRe.FindAllString(line, -1) {
			content := strings.Trim(m, "`")
			if len(content) < p.cfg.MinInlineCodeLength || strings.TrimSpace(content) == "" {
				continue
			}
			blocks = append(blocks, CodeBlock{
				Content:    content,
				IsInline:   true,
				LineNumber: firstLine + i,
			})
		}
	}

	return blocks
}

func isTableRow(line string) bool {
	return tableRowRe.MatchString(line)
}

func isSeparatorRow(line string) bool {
	return tableSepRe.MatchString(line)
}

// extractTables returns each maximal run of table lines joined with "\n".
// A separator row only extends a table that is already open.
func (p *Parser) extractTables(lines []string) []string {
	if !p.cfg.DetectTables {
		return nil
	}

	var (
		tables  []string
		rows    []string
		inTable bool
	)
	flush := func() {
		if inTable && len(rows) > 0 {
			tables = append(tables, strings.Join(rows, "\n"))
		}
		rows = nil
		inTable = false
	}

	for _, line := range lines {
		switch {
		case isTableRow(line):
			inTable = true
			rows = append(rows, line)
		case inTable && isSeparatorRow(line):
			rows = append(rows, line)
		default:
			flush()
		}
	}
	flush()

	return tables
}

func classifyLink(url string) LinkType {
	switch {
	case strings.HasPrefix(url, "#"):
		return LinkAnchor
	case strings.HasPrefix(url, "http://"), strings.HasPrefix(url, "https://"):
		return LinkExternal
	default:
		return LinkFile
	}
}

func (p *Parser) extractLinks(text string) []Link {
	if !p.cfg.DetectLinks {
		return nil
	}
	var links []Link
	for _, m := range linkRe.FindAllStringSubmatch(text, -1) {
		links = append(links, Link{Text: m[1], URL: m[2], Type: classifyLink(m[2])})
	}
	return links
}

func (p *Parser) extractSpecialContent(text string) SpecialContent {
	var sc SpecialContent

	if p.cfg.DetectMermaid {
		sc.Mermaid = mermaidRe.FindAllString(text, -1)
	}
	if p.cfg.DetectVersion {
		for _, m := range versionRe.FindAllStringSubmatch(text, -1) {
			sc.Versions = append(sc.Versions, m[1])
		}
	}
	if p.cfg.DetectDates {
		for _, m := range dateRe.FindAllStringSubmatch(text, -1) {
			if d := strings.TrimSpace(m[1]); d != "" {
				sc.Dates = append(sc.Dates, d)
			}
		}
	}
	if p.cfg.DetectImages {
		for _, m := range imageRe.FindAllStringSubmatch(text, -1) {
			sc.Images = append(sc.Images, Image{Alt: m[1], URL: m[2]})
		}
	}

	return sc
}

// extractWorkflows returns numbered-list runs of at least MinWorkflowSteps
// lines, followed by the body of every header whose title names a process.
// Header bodies are kept as raw lines, blank ones included. The second
// detector may repeat text already found by the first.
func (p *Parser) extractWorkflows(lines []string) []string {
	var (
		workflows []string
		run       []string
	)
	endRun := func() {
		if len(run) >= p.cfg.MinWorkflowSteps {
			workflows = append(workflows, strings.Join(run, "\n"))
		}
		run = nil
	}
	for _, line := range lines {
		if numberedStepRe.MatchString(line) {
			run = append(run, strings.TrimSpace(line))
			continue
		}
		endRun()
	}
	endRun()

	if p.workflowHeader == nil {
		return workflows
	}
	for i, line := range lines {
		if !p.workflowHeader.MatchString(line) {
			continue
		}
		var body []string
		for _, next := range lines[i+1:] {
			if anyHeaderLine.MatchString(next) {
				break
			}
			body = append(body, next)
		}
		if len(body) > 0 {
			workflows = append(workflows, strings.Join(body, "\n"))
		}
	}

	return workflows
}

// annotateSections runs the code, table and link extractors over the content
// of every section in the tree.
func (p *Parser) annotateSections(sections []*Section) {
	for _, root := range sections {
		root.Walk(func(s *Section) bool {
			if s.Content == "" {
				return true
			}
			s.CodeBlocks = p.extractCodeBlocks(s.Content, s.contentLine)
			s.Tables = p.extractTables(strings.Split(s.Content, "\n"))
			s.Links = p.extractLinks(s.Content)
			return true
		})
	}
}
