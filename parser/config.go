package parser

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

const SectionUnknown = "unknown"

// CategoryHeaders maps a section type to the canonical headers that identify it.
type CategoryHeaders struct {
	Category string
	Headers  []string
}

// CategoryPatterns maps a section type to fallback regular expressions that
// are tested against the raw header line.
type CategoryPatterns struct {
	Category string
	Patterns []string
}

// Config drives header matching, classification and extraction. It is a
// plain value: build one with DefaultConfig, adjust it, and hand it to New.
// The parser never mutates it.
type Config struct {
	MaxNestingDepth     int `validate:"min=1,max=6"`
	TitleScanLines      int `validate:"min=1"`
	MinCodeBlockLength  int `validate:"min=0"`
	MinInlineCodeLength int `validate:"min=1"`
	MinWorkflowSteps    int `validate:"min=1"`

	DetectTables  bool
	DetectLinks   bool
	DetectMermaid bool
	DetectVersion bool
	DetectDates   bool
	DetectImages  bool

	// WorkflowTitleKeywords mark a header whose body is captured as a workflow.
	WorkflowTitleKeywords []string `validate:"dive,required"`

	// SectionHeaders is checked in order, the first matching category wins.
	SectionHeaders    []CategoryHeaders
	DetectionPatterns []CategoryPatterns

	Extensions        []string `validate:"min=1,dive,startswith=."`
	PreferredEncoding string   `validate:"required"`
	FallbackEncodings []string
	MaxFileSizeBytes  int64 `validate:"gt=0"`
	HandleLargeFiles  bool
	HandleEmptyFiles  bool

	Workers int `validate:"min=1"`
}

// DefaultConfig returns the stock configuration.
func DefaultConfig() Config {
	return Config{
		MaxNestingDepth:       6,
		TitleScanLines:        20,
		MinCodeBlockLength:    10,
		MinInlineCodeLength:   2,
		MinWorkflowSteps:      3,
		DetectTables:          true,
		DetectLinks:           true,
		DetectMermaid:         true,
		DetectVersion:         true,
		DetectDates:           true,
		DetectImages:          true,
		WorkflowTitleKeywords: []string{"workflow", "pipeline", "process", "steps"},
		SectionHeaders:        defaultSectionHeaders(),
		DetectionPatterns:     defaultDetectionPatterns(),
		Extensions:            []string{".md"},
		PreferredEncoding:     "utf-8",
		FallbackEncodings:     []string{"latin-1", "cp1252", "iso-8859-1"},
		MaxFileSizeBytes:      10 * 1024 * 1024,
		HandleLargeFiles:      true,
		HandleEmptyFiles:      true,
		Workers:               4,
	}
}

// Validate checks field ranges and that every detection pattern compiles.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid parser config: %w", err)
	}
	for _, cp := range c.DetectionPatterns {
		for _, p := range cp.Patterns {
			if _, err := regexp.Compile(p); err != nil {
				return fmt.Errorf("invalid detection pattern for %s: %q: %w", cp.Category, p, err)
			}
		}
	}
	return nil
}

func defaultSectionHeaders() []CategoryHeaders {
	return []CategoryHeaders{
		{"overview", []string{
			"## Overview", "### Overview", "#### Overview",
			"## 1. Overview", "## 1 Overview", "# Overview",
			"## Introduction", "### Introduction",
		}},
		{"installation", []string{
			"## Installation", "### Installation", "#### Installation",
			"## Setup", "### Setup", "#### Setup",
			"## 2. Installation", "## Installing", "## Install",
			"## Environment Setup", "### Environment Setup",
			"## Prerequisites", "### Prerequisites", "#### Prerequisites",
			"## System Requirements", "### System Requirements",
			"## Quick Start", "### Quick Start",
		}},
		{"usage", []string{
			"## Usage", "### Usage", "#### Usage",
			"## Getting Started", "### Getting Started",
			"## How to Use", "### How to Use",
			"## Application Workflow & Usage", "## Application Workflow",
			"## Execution Pipeline", "### Execution Pipeline",
			"## Running", "### Running",
		}},
		{"api", []string{
			"## API", "### API", "#### API",
			"## API Reference", "### API Reference",
			"## Endpoints", "### Endpoints",
			"## Train API", "## Simulation API",
			"## Describe Model API", "## Describe Simulation API",
			"## Consume Simulation Output API",
		}},
		{"examples", []string{
			"## Examples", "### Examples", "#### Examples",
			"## Example", "### Example",
			"## Code Examples", "### Code Examples",
			"## Sample", "### Sample",
		}},
		{"workflow", []string{
			"## Workflow", "### Workflow", "#### Workflow",
			"## Workflows", "### Workflows",
			"## Process", "### Process",
			"## Development Workflow", "### Development Workflow",
			"## Pipeline", "### Pipeline",
		}},
		{"configuration", []string{
			"## Configuration", "### Configuration", "#### Configuration",
			"## Config", "### Config",
			"## Settings", "### Settings",
			"## Configure", "### Configure",
		}},
		{"troubleshooting", []string{
			"## Troubleshooting", "### Troubleshooting", "#### Troubleshooting",
			"## FAQ", "### FAQ",
			"## Common Issues", "### Common Issues", "#### Common Issues",
			"## Something wrong?", "## Something wrong",
			"## Problems", "### Problems",
			"## Issues", "### Issues",
			"## Getting Help", "### Getting Help",
		}},
		{"prerequisites", []string{
			"## Prerequisites", "### Prerequisites", "#### Prerequisites",
			"## Requirements", "### Requirements",
			"## System Requirements", "### System Requirements",
			"## Optional Requirements", "### Optional Requirements",
		}},
		{"structure", []string{
			"## Directory Structure", "### Directory Structure",
			"## Project Structure", "### Project Structure",
			"## Structure", "### Structure",
			"## File Structure", "### File Structure",
		}},
		{"features", []string{
			"## Key Features", "### Key Features",
			"## Features", "### Features",
			"## 2. Key Features", "## Capabilities",
		}},
		{"architecture", []string{
			"## System Architecture", "### System Architecture",
			"## Architecture", "### Architecture",
			"## Design", "### Design",
		}},
		{"module_breakdown", []string{
			"## Detailed Module Breakdown", "### Detailed Module Breakdown",
			"## Module Breakdown", "### Module Breakdown",
			"## Modules", "### Modules",
		}},
		{"license", []string{
			"## LICENSE", "## License", "### License",
			"## Licensing", "### Licensing",
		}},
		{"table_of_contents", []string{
			"## Table of Contents", "### Table of Contents",
			"## Contents", "### Contents",
			"## TOC", "### TOC",
		}},
	}
}

func defaultDetectionPatterns() []CategoryPatterns {
	return []CategoryPatterns{
		{"installation", []string{
			`(?i)^#{1,6}\s+(installation|setup|install|installing|prerequisites|system\s+requirements)`,
			`(?i)^#{1,6}\s+\d+\.\s*(installation|setup|install)`,
		}},
		{"usage", []string{
			`(?i)^#{1,6}\s+(usage|getting\s+started|how\s+to\s+use|running|execution)`,
			`(?i)^#{1,6}\s+\d+\.\s*(usage|getting\s+started)`,
		}},
		{"api", []string{
			`(?i)^#{1,6}\s+(api|endpoints?|train\s+api|simulation\s+api)`,
		}},
		{"troubleshooting", []string{
			`(?i)^#{1,6}\s+(troubleshooting|faq|common\s+issues?|problems?|something\s+wrong)`,
		}},
	}
}
