package qa

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"readmekb/parser"
)

type Style string

const (
	StyleSimple      Style = "simple"
	StyleCollapsible Style = "collapsible"
	StyleNumbered    Style = "numbered"
)

func ParseStyle(s string) (Style, error) {
	switch st := Style(strings.ToLower(strings.TrimSpace(s))); st {
	case StyleSimple, StyleCollapsible, StyleNumbered:
		return st, nil
	case "":
		return StyleCollapsible, nil
	default:
		return "", fmt.Errorf("unknown FAQ style %q", s)
	}
}

type categoryGroup struct {
	category string
	pairs    []Pair
}

// groupByCategory keeps categories in order of first appearance.
func groupByCategory(pairs []Pair) []categoryGroup {
	index := make(map[string]int)
	var groups []categoryGroup
	for _, p := range pairs {
		cat := p.Category
		if cat == "" {
			cat = p.SectionType
		}
		if cat == "" {
			cat = "general"
		}
		i, ok := index[cat]
		if !ok {
			i = len(groups)
			index[cat] = i
			groups = append(groups, categoryGroup{category: cat})
		}
		groups[i].pairs = append(groups[i].pairs, p)
	}
	return groups
}

// Format renders pairs as an FAQ section grouped by category. It returns ""
// when there is nothing to render.
func Format(pairs []Pair, style Style) string {
	if len(pairs) == 0 {
		return ""
	}

	title := cases.Title(language.English)
	var b strings.Builder
	b.WriteString("## Frequently Asked Questions\n\n")

	for _, g := range groupByCategory(pairs) {
		if g.category != parser.SectionUnknown {
			fmt.Fprintf(&b, "### %s Questions\n\n", title.String(strings.ReplaceAll(g.category, "_", " ")))
		}
		switch style {
		case StyleCollapsible:
			for _, p := range g.pairs {
				fmt.Fprintf(&b, "<details>\n<summary><b>%s</b></summary>\n\n%s\n\n</details>\n\n", p.Question, p.Answer)
			}
		case StyleNumbered:
			for i, p := range g.pairs {
				fmt.Fprintf(&b, "%d. **%s**\n\n   %s\n\n", i+1, p.Question, p.Answer)
			}
		default:
			for _, p := range g.pairs {
				fmt.Fprintf(&b, "**Q: %s**\n\nA: %s\n\n---\n\n", p.Question, p.Answer)
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}
