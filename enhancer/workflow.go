package enhancer

import (
	"fmt"
	"regexp"
	"strings"

	"readmekb/parser"
)

var (
	stepRe     = regexp.MustCompile(`(?m)^\d+\.\s+(.+)$`)
	listItemRe = regexp.MustCompile(`^([-*]|\d+\.)\s+`)
)

const maxUsageCommands = 5
const maxExtractedSteps = 10

// AddWorkflowExamples builds a step-by-step guide for installation, usage
// and workflow sections. It returns "" when the content offers nothing to
// build from or the type has no workflow generator.
func AddWorkflowExamples(s *parser.Section, sectionType string) string {
	switch sectionType {
	case "installation":
		return installationWorkflow(s.Content)
	case "usage":
		return usageWorkflow(s.CodeBlocks)
	case "workflow":
		return titledWorkflow(s.Title, s.Content)
	}
	return ""
}

func isShell(lang string) bool {
	switch lang {
	case "", "bash", "console", "shell":
		return true
	}
	return false
}

func isPython(lang string) bool {
	switch lang {
	case "", "python", "py":
		return true
	}
	return false
}

// fencedOf returns the fenced blocks whose language passes keep.
func fencedOf(blocks []parser.CodeBlock, keep func(string) bool) []parser.CodeBlock {
	var out []parser.CodeBlock
	for _, cb := range blocks {
		if !cb.IsInline && keep(cb.Language) {
			out = append(out, cb)
		}
	}
	return out
}

func firstLine(s string) string {
	return strings.SplitN(strings.TrimSpace(s), "\n", 2)[0]
}

func numbered(steps []string) string {
	var b strings.Builder
	for i, s := range steps {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s)
	}
	return b.String()
}

func existingSteps(content string) []string {
	var steps []string
	for _, m := range stepRe.FindAllStringSubmatch(content, -1) {
		steps = append(steps, strings.TrimSpace(m[1]))
	}
	return steps
}

func installationWorkflow(content string) string {
	steps := existingSteps(content)
	if len(steps) == 0 {
		lower := strings.ToLower(content)
		if strings.Contains(lower, "docker") {
			steps = append(steps,
				"Install Docker and Docker Compose",
				"Build the Docker image: `docker build -t <image> .`",
				"Start services: `docker compose up -d --build`",
			)
		}
		if strings.Contains(lower, "python") || strings.Contains(lower, "pip") {
			steps = append(steps,
				"Install a supported Python 3 release",
				"Create virtual environment: `python3 -m venv .venv`",
				"Activate virtual environment",
				"Install dependencies: `pip install -r requirements.txt`",
			)
		}
	}
	if len(steps) == 0 {
		return ""
	}
	return "Follow these steps to complete installation:\n\n" + numbered(steps)
}

func usageWorkflow(blocks []parser.CodeBlock) string {
	cmds := fencedOf(blocks, isShell)
	if len(cmds) == 0 {
		return ""
	}
	if len(cmds) > maxUsageCommands {
		cmds = cmds[:maxUsageCommands]
	}

	var b strings.Builder
	b.WriteString("### Complete Workflow\n\n")
	b.WriteString("Here's a step-by-step workflow to get started:\n\n")
	for i, cb := range cmds {
		fmt.Fprintf(&b, "%d. **Run command:**\n   %sbash\n   %s\n   %s\n\n", i+1, fence, firstLine(cb.Content), fence)
	}
	return b.String()
}

func titledWorkflow(title, content string) string {
	steps := existingSteps(content)
	if len(steps) == 0 {
		return ""
	}
	return "### " + title + " Workflow\n\n" + numbered(steps)
}

// extractSteps collects bullet and numbered list items, joining wrapped
// continuation lines onto their item. Only content that talks about steps
// or workflows is considered.
func extractSteps(content string) string {
	lower := strings.ToLower(content)
	if !strings.Contains(lower, "step") && !strings.Contains(lower, "workflow") {
		return ""
	}

	var (
		steps  []string
		inList bool
	)
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case listItemRe.MatchString(line):
			steps = append(steps, listItemRe.ReplaceAllString(trimmed, ""))
			inList = true
		case inList && trimmed != "":
			steps[len(steps)-1] += " " + trimmed
		case inList:
			inList = false
		}
	}
	if len(steps) == 0 {
		return ""
	}
	if len(steps) > maxExtractedSteps {
		steps = steps[:maxExtractedSteps]
	}
	return numbered(steps)
}
