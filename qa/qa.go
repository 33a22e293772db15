package qa

import (
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strings"

	"readmekb/parser"
)

// Pair is one generated question with its answer.
type Pair struct {
	Question      string `json:"question"`
	Answer        string `json:"answer"`
	SectionType   string `json:"section_type"`
	SourceSection string `json:"source_section,omitempty"`
	Category      string `json:"category,omitempty"`
}

type Config struct {
	MinPerSection  int `validate:"min=0"`
	MaxPerSection  int `validate:"min=1"`
	MaxPerCategory int `validate:"min=1"`

	// Section types that produce no questions of their own.
	SkipSectionTypes []string

	FromCodeBlocks bool
	FromTables     bool
	FromCommands   bool
	FromWorkflows  bool
}

func DefaultConfig() Config {
	return Config{
		MinPerSection:  3,
		MaxPerSection:  10,
		MaxPerCategory: 10,
		FromCodeBlocks: true,
		FromTables:     true,
		FromCommands:   true,
		FromWorkflows:  true,
	}
}

var templates = []string{
	"How do I {action}?",
	"What is {concept}?",
	"Why does {issue} happen?",
	"Can I {capability}?",
	"What happens when {scenario}?",
	"How to troubleshoot {problem}?",
	"What are the requirements for {feature}?",
	"How to configure {setting}?",
	"How does {feature} work?",
	"What is the purpose of {component}?",
}

var stepLineRe = regexp.MustCompile(`(?m)^\d+\.\s+(.+)$`)

const (
	maxConcepts        = 5
	maxActions         = 5
	maxCommands        = 3
	maxTables          = 3
	maxWorkflows       = 2
	maxConceptQuestion = 60
)

type Generator struct {
	cfg    Config
	logger *slog.Logger
}

func New(cfg Config) *Generator {
	return &Generator{
		cfg:    cfg,
		logger: slog.Default(),
	}
}

// Generate builds question/answer pairs for every document from its own
// sections, code blocks, tables and workflows. Questions are deduplicated
// case-insensitively, keeping the first, and each category is capped.
func (g *Generator) Generate(docs []*parser.ParsedReadme) []Pair {
	var pairs []Pair
	for _, doc := range docs {
		before := len(pairs)
		for _, s := range doc.AllSections() {
			pairs = append(pairs, g.sectionPairs(s)...)
		}
		if g.cfg.FromCodeBlocks {
			pairs = append(pairs, codeBlockPairs(doc.CodeBlocks, doc.FileName)...)
		}
		if g.cfg.FromTables {
			pairs = append(pairs, tablePairs(doc.Tables, doc.FileName)...)
		}
		if g.cfg.FromWorkflows {
			pairs = append(pairs, workflowPairs(doc.Workflows, doc.FileName)...)
		}
		g.logger.Debug("generated questions", "file", doc.FileName, "count", len(pairs)-before)
	}
	return g.limitPerCategory(Deduplicate(pairs))
}

// GenerateForDocument is Generate for a single document.
func (g *Generator) GenerateForDocument(doc *parser.ParsedReadme) []Pair {
	return g.Generate([]*parser.ParsedReadme{doc})
}

func (g *Generator) sectionPairs(s *parser.Section) []Pair {
	st := s.SectionType
	if st != parser.SectionUnknown && slices.Contains(g.cfg.SkipSectionTypes, st) {
		return nil
	}

	newPair := func(q, a string) Pair {
		return Pair{Question: q, Answer: a, SectionType: st, SourceSection: s.Title, Category: st}
	}

	var pairs []Pair
	for _, c := range head(extractConcepts(s.Content), maxConcepts) {
		pairs = append(pairs, newPair(conceptQuestion(c, st), answerFromContent(c, s, st)))
	}
	for _, a := range head(extractActions(s.Content), maxActions) {
		pairs = append(pairs, newPair(actionQuestion(a, st), answerFromContent(a, s, st)))
	}
	if g.cfg.FromCommands {
		for _, cmd := range head(extractCommands(s.CodeBlocks), maxCommands) {
			pairs = append(pairs, newPair(commandQuestion(cmd), commandAnswer(cmd, s.Content)))
		}
	}

	if len(pairs) < g.cfg.MinPerSection {
		pairs = append(pairs, genericPairs(s, g.cfg.MinPerSection-len(pairs))...)
	}
	return head(pairs, g.cfg.MaxPerSection)
}

func genericPairs(s *parser.Section, count int) []Pair {
	var terms []string
	for _, w := range strings.Fields(s.Title) {
		if len(w) > 4 {
			terms = append(terms, w)
		}
	}
	terms = head(terms, 3)
	if len(terms) == 0 {
		return nil
	}

	var pairs []Pair
	for i := 0; i < count && i < len(templates); i++ {
		tmpl := templates[i]
		term := terms[i%len(terms)]

		var q string
		switch {
		case strings.Contains(tmpl, "{action}"):
			q = strings.ReplaceAll(tmpl, "{action}", "use "+term)
		case strings.Contains(tmpl, "{concept}"):
			q = strings.ReplaceAll(tmpl, "{concept}", term)
		case strings.Contains(tmpl, "{feature}"):
			q = strings.ReplaceAll(tmpl, "{feature}", term)
		default:
			q = fmt.Sprintf("What is %s?", term)
		}
		pairs = append(pairs, Pair{
			Question:      q,
			Answer:        answerFromContent(term, s, s.SectionType),
			SectionType:   s.SectionType,
			SourceSection: s.Title,
			Category:      s.SectionType,
		})
	}
	return pairs
}

func codeBlockPairs(blocks []parser.CodeBlock, source string) []Pair {
	var pairs []Pair
	for _, cb := range blocks {
		if cb.IsInline {
			continue
		}
		lang := cb.Language
		if lang == "" {
			lang = "code"
		}
		pairs = append(pairs, Pair{
			Question:      fmt.Sprintf("What does this %s code do?", lang),
			Answer:        explainCode(cb),
			SectionType:   "examples",
			SourceSection: source,
			Category:      "code",
		})

		switch cb.Language {
		case "bash", "sh", "shell", "console":
			pairs = append(pairs, Pair{
				Question:      "How do I run this command?",
				Answer:        "Run the following command:\n\n```" + cb.Language + "\n" + cb.Content + "\n```",
				SectionType:   "usage",
				SourceSection: source,
				Category:      "commands",
			})
		}
	}
	return pairs
}

func tablePairs(tables []string, source string) []Pair {
	var pairs []Pair
	for _, table := range head(tables, maxTables) {
		lines := strings.Split(table, "\n")
		if len(lines) < 2 {
			continue
		}
		var headers []string
		for _, h := range strings.Split(lines[0], "|") {
			if h = strings.TrimSpace(h); h != "" {
				headers = append(headers, h)
			}
		}
		if len(headers) == 0 {
			continue
		}
		pairs = append(pairs, Pair{
			Question:      fmt.Sprintf("What information is in the %s table?", headers[0]),
			Answer:        fmt.Sprintf("The table contains the following columns: %s.\n\n%s", strings.Join(headers, ", "), table),
			SectionType:   parser.SectionUnknown,
			SourceSection: source,
			Category:      "reference",
		})
	}
	return pairs
}

func workflowPairs(workflows []string, source string) []Pair {
	var pairs []Pair
	for _, wf := range head(workflows, maxWorkflows) {
		if !stepLineRe.MatchString(wf) {
			continue
		}
		pairs = append(pairs, Pair{
			Question:      "What are the steps in this workflow?",
			Answer:        "Here are the steps:\n\n" + strings.TrimSpace(wf),
			SectionType:   "workflow",
			SourceSection: source,
			Category:      "workflow",
		})
	}
	return pairs
}

// Deduplicate drops pairs whose question repeats an earlier one, ignoring
// case and surrounding space.
func Deduplicate(pairs []Pair) []Pair {
	seen := make(map[string]bool, len(pairs))
	out := make([]Pair, 0, len(pairs))
	for _, p := range pairs {
		key := strings.ToLower(strings.TrimSpace(p.Question))
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, p)
	}
	return out
}

func (g *Generator) limitPerCategory(pairs []Pair) []Pair {
	var out []Pair
	for _, group := range groupByCategory(pairs) {
		out = append(out, head(group.pairs, g.cfg.MaxPerCategory)...)
	}
	return out
}

func head[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}
