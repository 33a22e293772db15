package enhancer

import (
	"log/slog"
	"strings"

	"readmekb/parser"
)

// Enhancer derives expanded markdown from parsed sections. Sections are
// only read, never modified.
type Enhancer struct {
	cfg    Config
	logger *slog.Logger
}

func New(cfg Config) *Enhancer {
	return &Enhancer{
		cfg:    cfg,
		logger: slog.Default(),
	}
}

// EnhanceSection renders the section header followed by its content with
// the enhancements configured for the section type appended.
func (e *Enhancer) EnhanceSection(s *parser.Section) string {
	return e.EnhanceSectionAs(s, s.SectionType)
}

// EnhanceSectionAs is EnhanceSection with the section type overridden.
func (e *Enhancer) EnhanceSectionAs(s *parser.Section, sectionType string) string {
	header := strings.Repeat("#", s.Level) + " " + s.Title + "\n\n"

	// expand code first so generated blocks below are not rewritten
	content := s.Content
	if e.cfg.ExpandCodeBlocks {
		content = AddCodeExamples(content, s.CodeBlocks)
	}

	switch sectionType {
	case "installation":
		content = e.installation(s, content)
	case "usage":
		content = e.usage(s, content)
	case "api":
		content = e.api(s, content)
	case "examples":
		content = e.examples(s, content)
	case "workflow":
		content = e.workflow(s, content)
	case "configuration":
		content = e.configuration(s, content)
	case "troubleshooting":
		content = e.troubleshooting(s, content)
	}

	switch sectionType {
	case "usage", "workflow", "installation":
		if wf := AddWorkflowExamples(s, sectionType); wf != "" {
			content += "\n\n" + wf
		}
	}

	return header + content
}

// appendBlock adds "### title" and body to content when body is not empty.
func appendBlock(content, title, body string) string {
	if body == "" {
		return content
	}
	return content + "\n\n### " + title + "\n\n" + body
}

func (e *Enhancer) installation(s *parser.Section, content string) string {
	c := e.cfg.Installation
	if c.QuickStart {
		if qs := quickStart(s.CodeBlocks); qs != "" {
			content = "### Quick Start\n\n" + qs + "\n\n" + content
		}
	}
	if c.DetailedSteps {
		content = appendBlock(content, "Detailed Installation Steps", detailedSteps())
	}
	if c.PlatformSpecific {
		content = appendBlock(content, "Platform-Specific Instructions", platformSpecific())
	}
	if c.Verification {
		content = appendBlock(content, "Verify Installation", verificationSteps(s.Content))
	}
	if c.CommonIssues {
		content = appendBlock(content, "Common Issues", commonIssues(s.Content))
	}
	return content
}

func (e *Enhancer) usage(s *parser.Section, content string) string {
	c := e.cfg.Usage
	if c.BasicExample {
		content = appendBlock(content, "Basic Example", basicExample(s.CodeBlocks))
	}
	if c.AdvancedExample {
		content = appendBlock(content, "Advanced Example", advancedExample(s.CodeBlocks))
	}
	if c.UseCases {
		content = appendBlock(content, "Use Cases", useCases)
	}
	if c.BestPractices {
		content = appendBlock(content, "Best Practices", bestPractices)
	}
	return content
}

func (e *Enhancer) api(s *parser.Section, content string) string {
	c := e.cfg.API
	if c.RequestExamples {
		content = appendBlock(content, "Request Examples", requestExamples)
	}
	if c.ResponseExamples {
		content = appendBlock(content, "Response Examples", responseExamples)
	}
	if c.ErrorHandling {
		content = appendBlock(content, "Error Handling", errorHandling)
	}
	return content
}

func (e *Enhancer) examples(s *parser.Section, content string) string {
	c := e.cfg.Examples
	if c.Variations {
		content = appendBlock(content, "Code Variations", codeVariations(s.CodeBlocks))
	}
	if c.OutputExamples {
		content = appendBlock(content, "Expected Output", outputExamples)
	}
	return content
}

func (e *Enhancer) workflow(s *parser.Section, content string) string {
	c := e.cfg.Workflow
	if c.StepByStep {
		content = appendBlock(content, "Step-by-Step Guide", extractSteps(s.Content))
	}
	if c.EdgeCases {
		content = appendBlock(content, "Edge Cases and Considerations", edgeCases)
	}
	return content
}

func (e *Enhancer) configuration(s *parser.Section, content string) string {
	c := e.cfg.Configuration
	if c.AllOptions {
		content = appendBlock(content, "All Configuration Options", allOptions)
	}
	if c.Defaults {
		content = appendBlock(content, "Default Values", defaultValues)
	}
	return content
}

func (e *Enhancer) troubleshooting(s *parser.Section, content string) string {
	c := e.cfg.Troubleshooting
	if c.Solutions {
		content = appendBlock(content, "Solutions", commonIssues(s.Content))
	}
	if c.DebuggingSteps {
		content = appendBlock(content, "Debugging Steps", debuggingSteps)
	}
	return content
}
