package parser

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

type Option func(*Parser)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Parser) {
		p.logger = logger
	}
}

// Parser turns markdown README files into ParsedReadme values. It holds no
// per-document state and is safe for concurrent use.
type Parser struct {
	cfg            Config
	logger         *slog.Logger
	classifier     *classifier
	workflowHeader *regexp.Regexp

	readFile func(string) ([]byte, error)
}

func New(cfg Config, opts ...Option) (*Parser, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cls, err := newClassifier(cfg)
	if err != nil {
		return nil, fmt.Errorf("compile section patterns: %w", err)
	}

	p := &Parser{
		cfg:        cfg,
		logger:     slog.Default(),
		classifier: cls,
		readFile:   os.ReadFile,
	}
	if len(cfg.WorkflowTitleKeywords) > 0 {
		quoted := make([]string, len(cfg.WorkflowTitleKeywords))
		for i, kw := range cfg.WorkflowTitleKeywords {
			quoted[i] = regexp.QuoteMeta(kw)
		}
		p.workflowHeader = regexp.MustCompile(`(?i)^#{1,6}\s+.*(` + strings.Join(quoted, "|") + `)`)
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *Parser) Config() Config {
	return p.cfg
}

func (p *Parser) hasExtension(path string) bool {
	ext := filepath.Ext(path)
	for _, e := range p.cfg.Extensions {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

// CheckEligibility validates a file before it is read.
func (p *Parser) CheckEligibility(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &ValidationError{Path: path, Err: ErrFileNotFound}
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return &ValidationError{Path: path, Reason: "is a directory", Err: ErrUnsupportedExtension}
	}
	if !p.hasExtension(path) {
		return &ValidationError{Path: path, Reason: filepath.Ext(path), Err: ErrUnsupportedExtension}
	}
	if !p.cfg.HandleLargeFiles && info.Size() > p.cfg.MaxFileSizeBytes {
		return &ValidationError{
			Path:   path,
			Reason: fmt.Sprintf("%d bytes, limit %d", info.Size(), p.cfg.MaxFileSizeBytes),
			Err:    ErrFileTooLarge,
		}
	}
	if !p.cfg.HandleEmptyFiles && info.Size() == 0 {
		return &ValidationError{Path: path, Err: ErrEmptyFile}
	}
	return nil
}

// ParseFile checks eligibility, reads and parses a single file.
func (p *Parser) ParseFile(path string) (*ParsedReadme, error) {
	if err := p.CheckEligibility(path); err != nil {
		return nil, err
	}
	data, err := p.readFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	text := decodeText(data, p.cfg.PreferredEncoding, p.cfg.FallbackEncodings, p.logger)
	return p.Parse(path, text), nil
}

// ParseBytes applies the eligibility rules that do not need a file on disk
// to an in-memory upload, decodes it and parses it.
func (p *Parser) ParseBytes(name string, data []byte) (*ParsedReadme, error) {
	if !p.hasExtension(name) {
		return nil, &ValidationError{Path: name, Reason: filepath.Ext(name), Err: ErrUnsupportedExtension}
	}
	if !p.cfg.HandleLargeFiles && int64(len(data)) > p.cfg.MaxFileSizeBytes {
		return nil, &ValidationError{
			Path:   name,
			Reason: fmt.Sprintf("%d bytes, limit %d", len(data), p.cfg.MaxFileSizeBytes),
			Err:    ErrFileTooLarge,
		}
	}
	if !p.cfg.HandleEmptyFiles && len(data) == 0 {
		return nil, &ValidationError{Path: name, Err: ErrEmptyFile}
	}
	text := decodeText(data, p.cfg.PreferredEncoding, p.cfg.FallbackEncodings, p.logger)
	return p.Parse(name, text), nil
}

// Parse parses already decoded markdown. path only names the document.
func (p *Parser) Parse(path, text string) *ParsedReadme {
	text = normalizeNewlines(strings.TrimPrefix(text, "\uFEFF"))
	lines := strings.Split(text, "\n")

	doc := &ParsedReadme{
		FilePath:       path,
		FileName:       filepath.Base(path),
		Title:          extractTitle(lines, p.cfg.TitleScanLines),
		CodeBlocks:     p.extractCodeBlocks(text, 1),
		Tables:         p.extractTables(lines),
		Links:          p.extractLinks(text),
		SpecialContent: p.extractSpecialContent(text),
		Workflows:      p.extractWorkflows(lines),
	}

	doc.Sections = buildHierarchy(p.buildFlatSections(lines))
	p.annotateSections(doc.Sections)

	doc.Metadata = Metadata{
		TotalLines:      len(lines),
		TotalSections:   CountSections(doc.Sections),
		TotalCodeBlocks: len(doc.CodeBlocks),
		TotalTables:     len(doc.Tables),
		TotalLinks:      len(doc.Links),
		HasMermaid:      len(doc.SpecialContent.Mermaid) > 0,
		HasVersion:      len(doc.SpecialContent.Versions) > 0,
	}

	return doc
}

// ListFiles returns the eligible markdown files directly inside dir, sorted
// by lower-cased file name.
func (p *Parser) ListFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory %s: %w", dir, err)
	}

	seen := make(map[string]bool)
	var files []string
	for _, e := range entries {
		if e.IsDir() || !p.hasExtension(e.Name()) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if seen[path] {
			continue
		}
		seen[path] = true
		if err := p.CheckEligibility(path); err != nil {
			p.logger.Warn("skipping file", "file", path, "error", err)
			continue
		}
		files = append(files, path)
	}

	sort.SliceStable(files, func(i, j int) bool {
		return strings.ToLower(filepath.Base(files[i])) < strings.ToLower(filepath.Base(files[j]))
	})
	return files, nil
}

// ParseAll parses every eligible file in dir. A file that fails, or panics,
// is logged and left out; the returned slice keeps sorted file order.
// Only a missing directory or a cancelled context is reported as an error.
func (p *Parser) ParseAll(ctx context.Context, dir string) ([]*ParsedReadme, error) {
	files, err := p.ListFiles(dir)
	if err != nil {
		return nil, err
	}
	p.logger.Info("parsing markdown files", "dir", dir, "count", len(files))

	slots := make([]*ParsedReadme, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)

	for i, path := range files {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			doc, err := p.safeParseFile(path)
			if err != nil {
				p.logger.Error("failed to parse file", "file", path, "error", err)
				return nil
			}
			slots[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	docs := make([]*ParsedReadme, 0, len(slots))
	for _, doc := range slots {
		if doc != nil {
			docs = append(docs, doc)
		}
	}
	p.logger.Info("parsed markdown files", "parsed", len(docs), "skipped", len(files)-len(docs))
	return docs, nil
}

func (p *Parser) safeParseFile(path string) (doc *ParsedReadme, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = fmt.Errorf("panic while parsing: %v", r)
		}
	}()
	return p.ParseFile(path)
}
