package enhancer

import (
	"strings"

	"readmekb/parser"
)

const fence = "```"

// blocks longer than this are assumed to explain themselves
const maxExpandLength = 200

func fenced(lang, body string) string {
	return fence + lang + "\n" + body + "\n" + fence
}

// AddCodeExamples replaces the first verbatim occurrence of each fenced block
// in content with its commented version. Inline spans are left alone.
func AddCodeExamples(content string, blocks []parser.CodeBlock) string {
	for _, cb := range blocks {
		if cb.IsInline {
			continue
		}
		original := fenced(cb.Language, cb.Content)
		if !strings.Contains(content, original) {
			continue
		}
		content = strings.Replace(content, original, expandCodeBlock(cb), 1)
	}
	return content
}

func expandCodeBlock(cb parser.CodeBlock) string {
	code := cb.Content
	if len(code) > maxExpandLength || strings.Contains(code, "//") || strings.Contains(code, "#") {
		return fenced(cb.Language, code)
	}

	switch cb.Language {
	case "python", "py", "python3":
		code = addPythonComments(code)
	case "bash", "sh", "shell", "console":
		code = addShellComments(code)
	}
	return fenced(cb.Language, code)
}

func addPythonComments(code string) string {
	lines := strings.Split(code, "\n")
	out := make([]string, 0, len(lines))

	for i, line := range lines {
		out = append(out, line)
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
		case strings.HasPrefix(trimmed, "import "), strings.HasPrefix(trimmed, "from "):
			if i == 0 || strings.TrimSpace(lines[i-1]) == "" {
				out = append(out, "  # Import required modules")
			}
		case strings.HasPrefix(trimmed, "def "), strings.HasPrefix(trimmed, "class "):
			out = append(out, "    # Function/class implementation")
		case strings.Contains(trimmed, "="):
			lower := strings.ToLower(trimmed)
			if strings.Contains(lower, "client") || strings.Contains(lower, "api") {
				out = append(out, "  # Initialize client/API connection")
			}
		}
	}
	return strings.Join(out, "\n")
}

func addShellComments(code string) string {
	lines := strings.Split(code, "\n")
	out := make([]string, 0, len(lines))

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		var comment string
		switch {
		case trimmed == "", strings.HasPrefix(trimmed, "#"):
		case strings.HasPrefix(trimmed, "docker "):
			comment = explainDocker(trimmed)
		case strings.HasPrefix(trimmed, "pip "), strings.HasPrefix(trimmed, "pip3 "):
			comment = "Install Python package(s)"
		case strings.HasPrefix(trimmed, "python "), strings.HasPrefix(trimmed, "python3 "):
			comment = "Run Python script"
		case strings.HasPrefix(trimmed, "go "):
			comment = "Run Go toolchain command"
		case strings.HasPrefix(trimmed, "npm "):
			comment = "Run npm command"
		case strings.Contains(trimmed, "export "), strings.Contains(trimmed, "set "):
			comment = "Set environment variable"
		}
		if comment != "" {
			out = append(out, "# "+comment)
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

func explainDocker(cmd string) string {
	switch {
	case strings.Contains(cmd, "build"):
		return "Build Docker image"
	case strings.Contains(cmd, "compose"):
		return "Start services using Docker Compose"
	case strings.Contains(cmd, "run"):
		return "Run a Docker container"
	case strings.Contains(cmd, "exec"):
		return "Execute command in running container"
	default:
		return "Docker command"
	}
}
