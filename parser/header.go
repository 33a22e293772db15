package parser

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	ordinalPrefix  = regexp.MustCompile(`^\d+\.\s+`)
	ordinalLoose   = regexp.MustCompile(`^\d+\.\s*`)
	leadingHashes  = regexp.MustCompile(`^#+\s*`)
	headerPunct    = regexp.MustCompile(`[?!.,:;]`)
	anyHeaderLine  = regexp.MustCompile(`^#{1,6}\s+`)
	titleHeaderRe  = regexp.MustCompile(`^#\s+.+`)
	numberedStepRe = regexp.MustCompile(`^\d+\.\s+.+`)
)

// matchHeader reports whether line is a header of level 1..maxDepth. Exactly
// N leading '#' characters followed by whitespace and non-blank text yield
// level N; the title has a leading "<digits>. " ordinal removed.
func matchHeader(line string, maxDepth int) (int, string, bool) {
	level := 0
	for level < len(line) && line[level] == '#' {
		level++
	}
	if level == 0 || level > maxDepth || level == len(line) {
		return 0, "", false
	}
	rest := line[level:]
	r := []rune(rest)
	if !unicode.IsSpace(r[0]) {
		return 0, "", false
	}
	title := strings.TrimSpace(rest)
	if title == "" {
		return 0, "", false
	}
	title = ordinalPrefix.ReplaceAllString(title, "")
	return level, title, true
}

// extractTitle returns the text of the first level-1 header within the
// first scanLines lines.
func extractTitle(lines []string, scanLines int) string {
	if len(lines) > scanLines {
		lines = lines[:scanLines]
	}
	for _, line := range lines {
		if titleHeaderRe.MatchString(line) {
			return strings.TrimSpace(strings.TrimLeft(line, "#"))
		}
	}
	return ""
}

func normalizeHeader(h string) string {
	h = leadingHashes.ReplaceAllString(h, "")
	h = ordinalLoose.ReplaceAllString(h, "")
	h = strings.ToLower(strings.TrimSpace(h))
	return headerPunct.ReplaceAllString(h, "")
}

type categoryRegexps struct {
	category string
	patterns []*regexp.Regexp
}

type headerEntry struct {
	category string
	header   string
}

// classifier assigns a section type to a raw header line: first the ordered
// canonical header table (exact or prefix match on normalised text), then the
// per-category fallback regexps, otherwise SectionUnknown.
type classifier struct {
	table    []headerEntry
	patterns []categoryRegexps
}

func newClassifier(cfg Config) (*classifier, error) {
	c := &classifier{}
	for _, ch := range cfg.SectionHeaders {
		for _, h := range ch.Headers {
			c.table = append(c.table, headerEntry{category: ch.Category, header: normalizeHeader(h)})
		}
	}
	for _, cp := range cfg.DetectionPatterns {
		cr := categoryRegexps{category: cp.Category}
		for _, p := range cp.Patterns {
			if !strings.HasPrefix(p, "(?i)") {
				p = "(?i)" + p
			}
			re, err := regexp.Compile(p)
			if err != nil {
				return nil, err
			}
			cr.patterns = append(cr.patterns, re)
		}
		c.patterns = append(c.patterns, cr)
	}
	return c, nil
}

func (c *classifier) classify(headerLine string) string {
	normalized := normalizeHeader(headerLine)
	for _, e := range c.table {
		if normalized == e.header || strings.HasPrefix(normalized, e.header) {
			return e.category
		}
	}
	for _, cr := range c.patterns {
		for _, re := range cr.patterns {
			if re.MatchString(headerLine) {
				return cr.category
			}
		}
	}
	return SectionUnknown
}
