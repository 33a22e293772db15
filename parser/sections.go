package parser

import (
	"strings"
)

// buildFlatSections groups the lines between headers into sections in
// document order. Lines before the first header are preamble and dropped.
func (p *Parser) buildFlatSections(lines []string) []*Section {
	var (
		sections []*Section
		current  *Section
		buf      []string
	)

	closeCurrent := func() {
		if current == nil {
			return
		}
		raw := strings.Join(buf, "\n")
		current.Content = strings.TrimSpace(raw)
		if current.Content != "" {
			lead := raw[:strings.Index(raw, current.Content)]
			current.contentLine = current.LineNumber + 1 + strings.Count(lead, "\n")
		}
		sections = append(sections, current)
	}

	for i, line := range lines {
		level, title, ok := matchHeader(line, p.cfg.MaxNestingDepth)
		if !ok {
			if current != nil {
				buf = append(buf, line)
			}
			continue
		}
		closeCurrent()
		current = &Section{
			Title:       title,
			Level:       level,
			SectionType: p.classifier.classify(line),
			LineNumber:  i + 1,
		}
		buf = buf[:0]
	}
	closeCurrent()

	return sections
}

// buildHierarchy nests the flat list using an explicit stack of open
// ancestors. A header closes every open section of the same or deeper level,
// so equal levels always end up as siblings.
func buildHierarchy(flat []*Section) []*Section {
	var (
		roots []*Section
		stack []*Section
	)
	for _, s := range flat {
		for len(stack) > 0 && stack[len(stack)-1].Level >= s.Level {
			stack = stack[:len(stack)-1]
		}
		if len(stack) > 0 {
			parent := stack[len(stack)-1]
			parent.Subsections = append(parent.Subsections, s)
		} else {
			roots = append(roots, s)
		}
		stack = append(stack, s)
	}
	return roots
}
