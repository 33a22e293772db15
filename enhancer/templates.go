package enhancer

import (
	"strings"

	"readmekb/parser"
)

const maxVariations = 3

func quickStart(blocks []parser.CodeBlock) string {
	cmds := fencedOf(blocks, isShell)
	if len(cmds) == 0 {
		return ""
	}
	return fenced("bash", firstLine(cmds[0].Content)) + "\n\nThis is the fastest way to get started."
}

func detailedSteps() string {
	return numbered([]string{
		"**Prerequisites**: Ensure the required runtimes and tools are installed",
		"**Environment Setup**: Create and activate an isolated environment",
		"**Dependencies**: Install required packages",
		"**Configuration**: Set up environment variables",
		"**Verification**: Test the installation",
	})
}

func platformSpecific() string {
	return "#### macOS/Linux\n\n" +
		fenced("bash", "source .venv/bin/activate\nexport PATH=\"$(pwd)/bin:$PATH\"") +
		"\n\n#### Windows\n\n" +
		fenced("cmd", ".venv\\Scripts\\activate\nset PATH=%CD%\\bin;%PATH%")
}

// verificationSteps suggests a test command matching the toolchain the
// section mentions.
func verificationSteps(content string) string {
	lower := strings.ToLower(content)
	var cmd string
	switch {
	case strings.Contains(lower, "go install"), strings.Contains(lower, "go build"), strings.Contains(lower, "go get"):
		cmd = "go test ./..."
	case strings.Contains(lower, "pip"), strings.Contains(lower, "python"):
		cmd = "python3 -m pytest"
	case strings.Contains(lower, "npm"), strings.Contains(lower, "yarn"):
		cmd = "npm test"
	case strings.Contains(lower, "docker"):
		cmd = "docker compose ps"
	default:
		cmd = "make test"
	}
	return "Run the following to verify your installation:\n\n" + fenced("bash", cmd)
}

func commonIssues(content string) string {
	lower := strings.ToLower(content)
	var issues []string
	if strings.Contains(lower, "python") {
		issues = append(issues, "**Issue**: `ModuleNotFoundError`\n- **Solution**: Set PYTHONPATH or install missing packages")
	}
	if strings.Contains(lower, "docker") {
		issues = append(issues, "**Issue**: Docker permission denied\n- **Solution**: Add user to docker group or use sudo")
	}
	if strings.Contains(lower, "port") {
		issues = append(issues, "**Issue**: Port already in use\n- **Solution**: Change port in configuration or stop conflicting service")
	}
	return strings.Join(issues, "\n\n")
}

func basicExample(blocks []parser.CodeBlock) string {
	code := fencedOf(blocks, isPython)
	if len(code) == 0 {
		return ""
	}
	return fenced("python", code[0].Content)
}

func advancedExample(blocks []parser.CodeBlock) string {
	code := fencedOf(blocks, isPython)
	if len(code) < 2 {
		return ""
	}
	return fenced("python", "# Advanced example combining multiple operations\n"+code[0].Content+
		"\n\n# Additional operations\n"+code[1].Content)
}

func codeVariations(blocks []parser.CodeBlock) string {
	if len(blocks) > maxVariations {
		blocks = blocks[:maxVariations]
	}
	var out []string
	for _, cb := range blocks {
		if cb.IsInline {
			continue
		}
		out = append(out, "#### Variation\n\n"+fenced(cb.Language, cb.Content))
	}
	return strings.Join(out, "\n\n")
}

const useCases = `- **Local development**: Run the project on a workstation to explore its behaviour
- **Automation**: Script the commands above in CI pipelines
- **Evaluation**: Try configurations safely before rolling them out`

const bestPractices = `- Use an isolated environment for dependencies
- Test with small inputs before running full workloads
- Monitor resource usage during long-running jobs
- Keep container images updated
- Keep configuration under version control`

var requestExamples = fenced("python", `# Example API request
response = client.request(
    "resource_id",
    params={"limit": 100},
)`)

var responseExamples = fenced("json", `{
    "status": "success",
    "id": "resource_id",
    "message": "Request accepted"
}`)

var errorHandling = fenced("python", `try:
    result = client.request(...)
except Exception as e:
    print(f"Error: {e}")`)

var outputExamples = fenced("text", `Expected output:
- Status: success
- Results: [structured results]
- Logs: [execution logs]`)

const edgeCases = `- **Large datasets**: May require more memory or batch processing
- **Network timeouts**: Increase timeout settings for long-running operations
- **Concurrent requests**: Use connection pooling for multiple simultaneous requests`

const allOptions = "See the configuration file for all available options and their descriptions."

const defaultValues = "Default values are used if not specified in configuration."

const debuggingSteps = "1. Check logs: `docker logs <container-name>`\n" +
	"2. Verify services: `docker ps`\n" +
	"3. Test connectivity: `curl http://localhost:8080/health`\n" +
	"4. Review error messages for specific issues"
