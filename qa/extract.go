package qa

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"readmekb/parser"
)

var (
	acronymRe     = regexp.MustCompile(`\b[A-Z]{2,}\b`)
	capitalizedRe = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+)+\b`)
	quotedRe      = regexp.MustCompile(`"([^"]+)"`)
	backtickRe    = regexp.MustCompile("`([^`]+)`")
	techNounRe    = regexp.MustCompile(`(?i)\b(?:API|model|service|client|server|container|docker|python|simulation|training|prediction)\b`)

	actionRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:run|install|start|stop|create|set|use|configure|test|build)\s+([a-z]+(?:\s+[a-z]+)*)`),
		regexp.MustCompile(`(?i)\b(?:to|for)\s+([a-z]+(?:\s+[a-z]+)*)`),
		regexp.MustCompile(`(?i)\bhow\s+to\s+([a-z]+(?:\s+[a-z]+)*)`),
	}

	sentenceSplitRe = regexp.MustCompile(`[.!?]\s+`)
	whitespaceRe    = regexp.MustCompile(`\s+`)
)

var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "this": true, "that": true,
	"from": true, "are": true, "can": true, "will": true, "you": true, "your": true,
}

const (
	maxExtracted     = 10
	maxCodeInAnswer  = 200
	minSentenceChars = 20
	earlyMatchOffset = 50
)

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// extractConcepts lists acronyms, capitalised phrases, quoted and backticked
// terms and common technical nouns, in that order, without repeats.
func extractConcepts(content string) []string {
	var found []string
	found = append(found, acronymRe.FindAllString(content, -1)...)
	found = append(found, capitalizedRe.FindAllString(content, -1)...)
	for _, m := range quotedRe.FindAllStringSubmatch(content, -1) {
		found = append(found, m[1])
	}
	for _, m := range backtickRe.FindAllStringSubmatch(content, -1) {
		found = append(found, m[1])
	}
	found = append(found, techNounRe.FindAllString(content, -1)...)

	seen := make(map[string]bool)
	var concepts []string
	for _, c := range found {
		if seen[c] {
			continue
		}
		seen[c] = true
		if n := len(c); n <= 3 || n >= 50 || stopWords[strings.ToLower(c)] || isDigits(c) {
			continue
		}
		concepts = append(concepts, c)
	}
	return head(concepts, maxExtracted)
}

func extractActions(content string) []string {
	seen := make(map[string]bool)
	var actions []string
	for _, re := range actionRes {
		for _, m := range re.FindAllStringSubmatch(content, -1) {
			a := m[1]
			if seen[a] || len(a) <= 2 {
				continue
			}
			seen[a] = true
			actions = append(actions, a)
		}
	}
	return head(actions, maxExtracted)
}

// extractCommands returns the non-comment lines of shell code blocks.
func extractCommands(blocks []parser.CodeBlock) []string {
	var cmds []string
	for _, cb := range blocks {
		if cb.IsInline {
			continue
		}
		switch cb.Language {
		case "", "bash", "sh", "shell", "console":
		default:
			continue
		}
		for _, line := range strings.Split(cb.Content, "\n") {
			line = strings.TrimSpace(line)
			if line != "" && !strings.HasPrefix(line, "#") {
				cmds = append(cmds, line)
			}
		}
	}
	return head(cmds, maxExtracted)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func conceptQuestion(concept, sectionType string) string {
	c := strings.TrimSpace(concept)
	if len(c) > maxConceptQuestion {
		c = truncate(c, maxConceptQuestion) + "..."
	}
	lower := strings.ToLower(c)

	switch sectionType {
	case "installation":
		if strings.Contains(lower, "install") || strings.Contains(lower, "setup") {
			return fmt.Sprintf("How do I %s?", lower)
		}
		return fmt.Sprintf("What is %s?", lower)
	case "usage":
		return fmt.Sprintf("How do I use %s?", lower)
	case "api":
		if strings.Contains(c, "API") {
			return fmt.Sprintf("What is the %s?", lower)
		}
		return fmt.Sprintf("What is the %s API?", lower)
	case "troubleshooting":
		return fmt.Sprintf("How to troubleshoot %s?", lower)
	default:
		return fmt.Sprintf("What is %s?", lower)
	}
}

func actionQuestion(action, sectionType string) string {
	lower := strings.ToLower(action)
	switch sectionType {
	case "usage":
		return fmt.Sprintf("How to %s?", lower)
	case "troubleshooting":
		return fmt.Sprintf("How to troubleshoot %s?", lower)
	default:
		return fmt.Sprintf("How do I %s?", lower)
	}
}

func commandQuestion(cmd string) string {
	if fields := strings.Fields(cmd); len(fields) > 0 {
		return fmt.Sprintf("How to run %s?", fields[0])
	}
	return "How do I run this command?"
}

// answerFromContent quotes up to three sentences of the section that mention
// term, preferring those that mention it early. It falls back to a code block
// containing term and then to a canned answer.
func answerFromContent(term string, s *parser.Section, sectionType string) string {
	search := strings.ToLower(term)

	var relevant []string
	for _, sentence := range sentenceSplitRe.Split(s.Content, -1) {
		lower := strings.ToLower(sentence)
		idx := strings.Index(lower, search)
		trimmed := strings.TrimSpace(sentence)
		if idx < 0 || len(trimmed) <= minSentenceChars {
			continue
		}
		if idx < earlyMatchOffset {
			relevant = append([]string{trimmed}, relevant...)
		} else {
			relevant = append(relevant, trimmed)
		}
	}
	if len(relevant) > 0 {
		answer := strings.Join(head(relevant, 3), ". ")
		if !strings.HasSuffix(answer, ".") {
			answer += "."
		}
		return whitespaceRe.ReplaceAllString(answer, " ")
	}

	for _, cb := range s.CodeBlocks {
		if !cb.IsInline && strings.Contains(strings.ToLower(cb.Content), search) {
			return fmt.Sprintf("Here's how to work with %s:\n\n```\n%s\n```", term, truncate(cb.Content, maxCodeInAnswer))
		}
	}

	return genericAnswer(term, sectionType)
}

func genericAnswer(term, sectionType string) string {
	switch sectionType {
	case "installation":
		return fmt.Sprintf("To install or set up %s, follow the installation instructions in the README.", term)
	case "usage":
		return fmt.Sprintf("To use %s, refer to the usage examples in the documentation.", term)
	case "api":
		return fmt.Sprintf("The %s API is documented in the API reference section.", term)
	default:
		return fmt.Sprintf("Information about %s can be found in the documentation.", term)
	}
}

// commandAnswer shows cmd with two lines of surrounding context from the
// section when it can be found there.
func commandAnswer(cmd, content string) string {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if !strings.Contains(line, cmd) {
			continue
		}
		from := max(0, i-2)
		to := min(len(lines), i+3)
		return fmt.Sprintf("To run this command:\n\n```bash\n%s\n```\n\n%s", cmd, strings.Join(lines[from:to], "\n"))
	}
	return fmt.Sprintf("Run the following command:\n\n```bash\n%s\n```", cmd)
}

func explainCode(cb parser.CodeBlock) string {
	lang := cb.Language
	if lang == "" {
		lang = "code"
	}
	lower := strings.ToLower(cb.Content)

	switch {
	case strings.Contains(cb.Content, "import"), strings.Contains(cb.Content, "from"):
		return fmt.Sprintf("This %s code imports required modules and dependencies.", lang)
	case strings.Contains(cb.Content, "def"), strings.Contains(cb.Content, "function"):
		return fmt.Sprintf("This %s code defines functions for specific operations.", lang)
	case strings.Contains(lower, "docker"):
		return "This command manages Docker containers and services."
	case strings.Contains(lower, "pip"), strings.Contains(lower, "install"):
		return "This command installs packages and dependencies."
	case strings.Contains(lower, "python"):
		return "This command runs a Python script or application."
	default:
		return fmt.Sprintf("This %s code performs operations as specified in the documentation.", lang)
	}
}
