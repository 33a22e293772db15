package parser

// CodeBlock is a fenced block or an inline code span.
type CodeBlock struct {
	Content    string `json:"content"`
	Language   string `json:"language,omitempty"`
	IsInline   bool   `json:"is_inline"`
	LineNumber int    `json:"line_number,omitempty"` // 1-based, 0 when unknown
}

type LinkType string

const (
	LinkExternal LinkType = "external"
	LinkAnchor   LinkType = "anchor"
	LinkFile     LinkType = "file"
)

type Link struct {
	Text string   `json:"text"`
	URL  string   `json:"url"`
	Type LinkType `json:"type"`
}

type Image struct {
	Alt string `json:"alt"`
	URL string `json:"url"`
}

// Section is a header-delimited span of a document. Subsections are owned
// by their parent and every child has a strictly greater Level.
type Section struct {
	Title       string      `json:"title"`
	Level       int         `json:"level"`
	Content     string      `json:"content"`
	SectionType string      `json:"section_type"`
	Subsections []*Section  `json:"subsections,omitempty"`
	CodeBlocks  []CodeBlock `json:"code_blocks,omitempty"`
	Tables      []string    `json:"tables,omitempty"`
	Links       []Link      `json:"links,omitempty"`
	LineNumber  int         `json:"line_number"`

	// first line of the trimmed content, used to place section-scoped code blocks
	contentLine int
}

// Walk visits s and its descendants depth-first. Returning false from fn
// stops the descent below the current section.
func (s *Section) Walk(fn func(*Section) bool) {
	if !fn(s) {
		return
	}
	for _, sub := range s.Subsections {
		sub.Walk(fn)
	}
}

// SpecialContent holds the optional scans. A nil slice means the category
// was not found or its detection is disabled.
type SpecialContent struct {
	Mermaid  []string `json:"mermaid,omitempty"`
	Versions []string `json:"version,omitempty"`
	Dates    []string `json:"dates,omitempty"`
	Images   []Image  `json:"images,omitempty"`
}

type Metadata struct {
	TotalLines      int  `json:"total_lines"`
	TotalSections   int  `json:"total_sections"`
	TotalCodeBlocks int  `json:"total_code_blocks"`
	TotalTables     int  `json:"total_tables"`
	TotalLinks      int  `json:"total_links"`
	HasMermaid      bool `json:"has_mermaid"`
	HasVersion      bool `json:"has_version"`
}

// ParsedReadme is the parse result for one markdown file.
//
// CodeBlocks, Tables and Links are scanned over the whole text independently
// of the section split, so anything inside a section is also reported on
// that Section. Callers aggregating both views will count such items twice.
type ParsedReadme struct {
	FilePath       string         `json:"file_path"`
	FileName       string         `json:"file_name"`
	Title          string         `json:"title,omitempty"`
	Sections       []*Section     `json:"sections"`
	CodeBlocks     []CodeBlock    `json:"code_blocks"`
	Tables         []string       `json:"tables"`
	Links          []Link         `json:"links"`
	Workflows      []string       `json:"workflows"`
	SpecialContent SpecialContent `json:"special_content"`
	Metadata       Metadata       `json:"metadata"`
}

// AllSections returns every section of the document in depth-first order.
func (p *ParsedReadme) AllSections() []*Section {
	return FlattenSections(p.Sections)
}

// CountSections counts sections including nested subsections.
func CountSections(sections []*Section) int {
	count := len(sections)
	for _, s := range sections {
		count += CountSections(s.Subsections)
	}
	return count
}

// FlattenSections lists the tree in depth-first order.
func FlattenSections(sections []*Section) []*Section {
	var flat []*Section
	for _, s := range sections {
		s.Walk(func(sec *Section) bool {
			flat = append(flat, sec)
			return true
		})
	}
	return flat
}
