package qa

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"readmekb/parser"
)

const toolReadme = "# Tool\n\n## Installation\n\n" +
	"To install the tool run the installer script from the release page.\n\n" +
	"```bash\n./install.sh --prefix /usr/local\n```\n\n" +
	"| Option | Default |\n|---|---|\n| prefix | /usr |\n\n" +
	"1. Download\n2. Verify\n3. Install\n"

func parse(t *testing.T, name, md string) *parser.ParsedReadme {
	t.Helper()
	p, err := parser.New(parser.DefaultConfig())
	require.NoError(t, err)
	return p.Parse(name, md)
}

func findPair(pairs []Pair, question string) (Pair, bool) {
	for _, p := range pairs {
		if p.Question == question {
			return p, true
		}
	}
	return Pair{}, false
}

func TestGenerate(t *testing.T) {
	pairs := New(DefaultConfig()).Generate([]*parser.ParsedReadme{parse(t, "README.md", toolReadme)})
	require.NotEmpty(t, pairs)

	seen := map[string]bool{}
	for _, p := range pairs {
		key := strings.ToLower(p.Question)
		assert.False(t, seen[key], "duplicate question %q", p.Question)
		seen[key] = true
	}

	cmd, ok := findPair(pairs, "How to run ./install.sh?")
	require.True(t, ok)
	assert.Equal(t, "installation", cmd.Category)
	assert.Equal(t, "Installation", cmd.SourceSection)
	assert.Contains(t, cmd.Answer, "```bash\n./install.sh --prefix /usr/local\n```")

	code, ok := findPair(pairs, "What does this bash code do?")
	require.True(t, ok)
	assert.Equal(t, "code", code.Category)
	assert.Equal(t, "README.md", code.SourceSection)
	assert.Equal(t, "This command installs packages and dependencies.", code.Answer)

	run, ok := findPair(pairs, "How do I run this command?")
	require.True(t, ok)
	assert.Equal(t, "commands", run.Category)

	table, ok := findPair(pairs, "What information is in the Option table?")
	require.True(t, ok)
	assert.Equal(t, "reference", table.Category)
	assert.Contains(t, table.Answer, "The table contains the following columns: Option, Default.")

	wf, ok := findPair(pairs, "What are the steps in this workflow?")
	require.True(t, ok)
	assert.Equal(t, "Here are the steps:\n\n1. Download\n2. Verify\n3. Install", wf.Answer)
}

func TestGenerate_LimitsAndSkips(t *testing.T) {
	doc := parse(t, "README.md", toolReadme)

	cfg := DefaultConfig()
	cfg.MaxPerCategory = 1
	counts := map[string]int{}
	for _, p := range New(cfg).Generate([]*parser.ParsedReadme{doc}) {
		counts[p.Category]++
	}
	for cat, n := range counts {
		assert.Equal(t, 1, n, cat)
	}

	cfg = DefaultConfig()
	cfg.SkipSectionTypes = []string{"installation"}
	cfg.FromCodeBlocks = false
	cfg.FromTables = false
	cfg.FromWorkflows = false
	for _, p := range New(cfg).Generate([]*parser.ParsedReadme{doc}) {
		assert.NotEqual(t, "installation", p.Category)
	}
}

func TestGenerate_UsesOwnSections(t *testing.T) {
	a := parse(t, "a.md", "## Alpha Deployment\n\nThe alpha service deploys nightly.")
	b := parse(t, "b.md", "## Bravo Monitoring\n\nThe bravo service exports metrics.")

	for _, p := range New(DefaultConfig()).GenerateForDocument(a) {
		assert.NotEqual(t, "Bravo Monitoring", p.SourceSection)
	}
	sources := map[string]bool{}
	for _, p := range New(DefaultConfig()).Generate([]*parser.ParsedReadme{a, b}) {
		sources[p.SourceSection] = true
	}
	assert.True(t, sources["Alpha Deployment"])
	assert.True(t, sources["Bravo Monitoring"])
}

func TestDeduplicate(t *testing.T) {
	pairs := Deduplicate([]Pair{
		{Question: "How?", Answer: "first"},
		{Question: " how? ", Answer: "second"},
		{Question: "Other", Answer: "third"},
	})
	require.Len(t, pairs, 2)
	assert.Equal(t, "first", pairs[0].Answer)
	assert.Equal(t, "Other", pairs[1].Question)
}

func TestExtractConcepts(t *testing.T) {
	content := "The REST API uses Docker Compose. Set \"max_retries\" and `timeout_ms`. The model server runs in a container. ID 12345"
	assert.Equal(t,
		[]string{"REST", "Docker Compose", "max_retries", "timeout_ms", "Docker", "model", "server", "container"},
		extractConcepts(content))
}

func TestExtractActions(t *testing.T) {
	assert.Equal(t,
		[]string{"the server", "docker first", "install docker first"},
		extractActions("Run the server. You need to install docker first."))
}

func TestExtractCommands(t *testing.T) {
	blocks := []parser.CodeBlock{
		{Content: "# comment\nmake build\n\nmake test", Language: "bash"},
		{Content: "print('x')", Language: "python"},
		{Content: "make", IsInline: true},
	}
	assert.Equal(t, []string{"make build", "make test"}, extractCommands(blocks))
}

func TestAnswerFromContent(t *testing.T) {
	s := &parser.Section{
		Content: "Docker is required for the build. The build uses Docker layers heavily to speed things up! Short one.",
	}
	assert.Equal(t,
		"The build uses Docker layers heavily to speed things up. Docker is required for the build.",
		answerFromContent("docker", s, "installation"))

	withCode := &parser.Section{
		Content:    "Nothing relevant here.",
		CodeBlocks: []parser.CodeBlock{{Content: "kubectl apply -f deploy.yaml", Language: "bash"}},
	}
	assert.Equal(t,
		"Here's how to work with kubectl:\n\n```\nkubectl apply -f deploy.yaml\n```",
		answerFromContent("kubectl", withCode, "usage"))

	assert.Equal(t,
		"The widget API is documented in the API reference section.",
		answerFromContent("widget", &parser.Section{}, "api"))
}

func TestCommandAnswer(t *testing.T) {
	content := "Before\nSetup:\nmake all\nAfter\nMore\nEnd"
	assert.Equal(t,
		"To run this command:\n\n```bash\nmake all\n```\n\nBefore\nSetup:\nmake all\nAfter\nMore",
		commandAnswer("make all", content))
	assert.Equal(t, "Run the following command:\n\n```bash\nls\n```", commandAnswer("ls", "nothing"))
}

func TestGenericPairs(t *testing.T) {
	s := &parser.Section{Title: "Deployment Guide", SectionType: parser.SectionUnknown}
	pairs := genericPairs(s, 3)
	require.Len(t, pairs, 3)
	assert.Equal(t, "How do I use Deployment?", pairs[0].Question)
	assert.Equal(t, "What is Guide?", pairs[1].Question)
	assert.Equal(t, "What is Deployment?", pairs[2].Question)
	assert.Equal(t, "Information about Deployment can be found in the documentation.", pairs[0].Answer)

	assert.Empty(t, genericPairs(&parser.Section{Title: "FAQ"}, 3))
}

func TestConceptQuestion(t *testing.T) {
	assert.Equal(t, "How do I install script?", conceptQuestion("Install Script", "installation"))
	assert.Equal(t, "What is the rest api?", conceptQuestion("REST API", "api"))
	assert.Equal(t, "What is the webhook API?", conceptQuestion("Webhook", "api"))
	assert.Equal(t, "How to troubleshoot timeouts?", conceptQuestion("Timeouts", "troubleshooting"))

	long := strings.Repeat("a", 70)
	assert.Equal(t, "What is "+strings.Repeat("a", 60)+"...?", conceptQuestion(long, "overview"))
}

func TestWorkflowPairs(t *testing.T) {
	pairs := workflowPairs([]string{"\n1. Fetch\n2. Build\n", "just prose"}, "README.md")
	require.Len(t, pairs, 1)
	assert.Equal(t, "Here are the steps:\n\n1. Fetch\n2. Build", pairs[0].Answer)
	assert.Equal(t, "workflow", pairs[0].Category)
}
