package enhancer

// Config switches the individual enhancements on or off. The zero value
// leaves section content untouched apart from the header line.
type Config struct {
	ExpandCodeBlocks bool

	Installation struct {
		QuickStart       bool
		DetailedSteps    bool
		PlatformSpecific bool
		Verification     bool
		CommonIssues     bool
	}
	Usage struct {
		BasicExample    bool
		AdvancedExample bool
		UseCases        bool
		BestPractices   bool
	}
	API struct {
		RequestExamples  bool
		ResponseExamples bool
		ErrorHandling    bool
	}
	Examples struct {
		Variations     bool
		OutputExamples bool
	}
	Workflow struct {
		StepByStep bool
		EdgeCases  bool
	}
	Configuration struct {
		AllOptions bool
		Defaults   bool
	}
	Troubleshooting struct {
		Solutions      bool
		DebuggingSteps bool
	}

	// Document rendering.
	TableOfContents  bool
	ModuleSeparators bool
}

func DefaultConfig() Config {
	var c Config
	c.ExpandCodeBlocks = true

	c.Installation.QuickStart = true
	c.Installation.DetailedSteps = true
	c.Installation.PlatformSpecific = true
	c.Installation.Verification = true
	c.Installation.CommonIssues = true

	c.Usage.BasicExample = true
	c.Usage.AdvancedExample = true
	c.Usage.UseCases = true
	c.Usage.BestPractices = true

	c.API.RequestExamples = true
	c.API.ResponseExamples = true
	c.API.ErrorHandling = true

	c.Examples.Variations = true
	c.Examples.OutputExamples = true

	c.Workflow.StepByStep = true
	c.Workflow.EdgeCases = true

	c.Configuration.AllOptions = true
	c.Configuration.Defaults = true

	c.Troubleshooting.Solutions = true
	c.Troubleshooting.DebuggingSteps = true

	c.TableOfContents = true
	c.ModuleSeparators = true
	return c
}
