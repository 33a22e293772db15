package enhancer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"readmekb/parser"
)

func parseDoc(t *testing.T, md string) *parser.ParsedReadme {
	t.Helper()
	p, err := parser.New(parser.DefaultConfig())
	require.NoError(t, err)
	return p.Parse("README.md", md)
}

func TestEnhanceSection_UnknownTypeKeepsContent(t *testing.T) {
	e := New(DefaultConfig())
	s := &parser.Section{Title: "Random Topic", Level: 2, Content: "Plain text.", SectionType: parser.SectionUnknown}

	assert.Equal(t, "## Random Topic\n\nPlain text.", e.EnhanceSection(s))
}

func TestEnhanceSection_DoesNotMutate(t *testing.T) {
	doc := parseDoc(t, "## Installation\n\n```bash\npip install project\n```\n")
	s := doc.Sections[0]
	before := *s

	_ = New(DefaultConfig()).EnhanceSection(s)
	assert.Equal(t, before, *s)
}

func TestEnhanceSection_Installation(t *testing.T) {
	doc := parseDoc(t, "## Installation\n\nRun:\n\n```bash\npip install project\n```\n")
	out := New(DefaultConfig()).EnhanceSection(doc.Sections[0])

	assert.True(t, strings.HasPrefix(out, "## Installation\n\n### Quick Start\n\n```bash\npip install project\n```"))
	assert.Contains(t, out, "```bash\n# Install Python package(s)\npip install project\n```")
	assert.Contains(t, out, "### Detailed Installation Steps")
	assert.Contains(t, out, "### Platform-Specific Instructions")
	assert.Contains(t, out, "### Verify Installation\n\nRun the following to verify your installation:\n\n```bash\npython3 -m pytest\n```")
	assert.NotContains(t, out, "### Common Issues")
	assert.Contains(t, out, "Follow these steps to complete installation:\n\n1. Install a supported Python 3 release")
}

func TestEnhanceSection_ZeroConfig(t *testing.T) {
	doc := parseDoc(t, "## Usage\n\nNothing to run here.\n")
	out := New(Config{}).EnhanceSection(doc.Sections[0])
	assert.Equal(t, "## Usage\n\nNothing to run here.", out)
}

func TestEnhanceSection_Usage(t *testing.T) {
	md := "## Usage\n\n```python\nimport project\n```\n\n```python\nproject.run()\n```\n\n```bash\nproject serve --port 80\n```\n"
	out := New(DefaultConfig()).EnhanceSection(parseDoc(t, md).Sections[0])

	assert.Contains(t, out, "### Basic Example\n\n```python\nimport project\n```")
	assert.Contains(t, out, "# Advanced example combining multiple operations\nimport project\n\n# Additional operations\nproject.run()")
	assert.Contains(t, out, "### Use Cases")
	assert.Contains(t, out, "### Best Practices")
	assert.Contains(t, out, "### Complete Workflow")
	assert.Contains(t, out, "1. **Run command:**\n   ```bash\n   project serve --port 80\n   ```")
}

func TestEnhanceSection_WorkflowAndTroubleshooting(t *testing.T) {
	e := New(DefaultConfig())

	wf := &parser.Section{
		Title:       "Release",
		Level:       2,
		SectionType: "workflow",
		Content:     "The release steps are:\n\n1. Tag the commit\n2. Push the tag\n   to origin\n\n- Announce",
	}
	out := e.EnhanceSection(wf)
	assert.Contains(t, out, "### Step-by-Step Guide\n\n1. Tag the commit\n2. Push the tag to origin\n3. Announce\n")
	assert.Contains(t, out, "### Edge Cases and Considerations")
	assert.Contains(t, out, "### Release Workflow\n\n1. Tag the commit\n2. Push the tag\n")

	ts := &parser.Section{Title: "FAQ", Level: 2, SectionType: "troubleshooting", Content: "Docker fails on port 80."}
	out = e.EnhanceSectionAs(ts, "troubleshooting")
	assert.Contains(t, out, "Docker permission denied")
	assert.Contains(t, out, "Port already in use")
	assert.Contains(t, out, "### Debugging Steps")
}

func TestAddCodeExamples(t *testing.T) {
	content := "Intro\n\n```python\nimport os\nclient = make_client()\n```\n\nText `inline`"
	blocks := []parser.CodeBlock{
		{Content: "import os\nclient = make_client()", Language: "python"},
		{Content: "inline", IsInline: true},
	}

	out := AddCodeExamples(content, blocks)
	assert.Contains(t, out, "```python\nimport os\n  # Import required modules\nclient = make_client()\n  # Initialize client/API connection\n```")
	assert.Contains(t, out, "Text `inline`")
}

func TestExpandCodeBlock_SkipsCommentedAndLong(t *testing.T) {
	commented := parser.CodeBlock{Content: "# already explained\npip install x", Language: "bash"}
	assert.Equal(t, "```bash\n# already explained\npip install x\n```", expandCodeBlock(commented))

	long := parser.CodeBlock{Content: "pip install " + strings.Repeat("x", 250), Language: "bash"}
	assert.Equal(t, "```bash\n"+long.Content+"\n```", expandCodeBlock(long))
}

func TestAddShellComments(t *testing.T) {
	code := "docker build -t app .\ndocker compose up\nexport TOKEN=1\nls"
	assert.Equal(t,
		"# Build Docker image\ndocker build -t app .\n# Start services using Docker Compose\ndocker compose up\n# Set environment variable\nexport TOKEN=1\nls",
		addShellComments(code))
}

func TestAddWorkflowExamples(t *testing.T) {
	section := func(title, content string) *parser.Section {
		return &parser.Section{Title: title, Level: 2, Content: content}
	}

	assert.Equal(t, "", AddWorkflowExamples(section("Intro", "nothing"), "overview"))
	assert.Equal(t, "", AddWorkflowExamples(section("Usage", "no commands"), "usage"))
	assert.Equal(t,
		"Follow these steps to complete installation:\n\n1. Download\n2. Unpack\n",
		AddWorkflowExamples(section("Install", "1. Download\n2. Unpack"), "installation"))
	assert.Contains(t, AddWorkflowExamples(section("Install", "Use docker."), "installation"), "1. Install Docker and Docker Compose")
}

func TestRender(t *testing.T) {
	p, err := parser.New(parser.DefaultConfig())
	require.NoError(t, err)
	docs := []*parser.ParsedReadme{
		p.Parse("a/README.md", "# Alpha Service\n\n## Overview\n\nAlpha does things."),
		p.Parse("b/notes.md", "## License\n\nMIT"),
	}

	out := New(DefaultConfig()).Render("Knowledge Base", docs, "## Frequently Asked Questions\n\n**Q: x**\n")

	assert.True(t, strings.HasPrefix(out, "# Knowledge Base\n\n## Table of Contents\n\n"))
	assert.Contains(t, out, "- [Alpha Service](#alpha-service)\n- [notes](#notes)\n- [Frequently Asked Questions](#frequently-asked-questions)\n")
	assert.Contains(t, out, "## Alpha Service\n\n# Alpha Service\n\n## Overview\n\nAlpha does things.")
	assert.Contains(t, out, "---\n\n## notes\n\n## License\n\nMIT")
	assert.True(t, strings.HasSuffix(out, "**Q: x**\n"))
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "getting-started-v2", Slug("Getting Started: v2!"))
	assert.Equal(t, "api_reference", Slug(" API_Reference "))
}
