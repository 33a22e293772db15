package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"readmekb/model"
	"readmekb/parser"
	"readmekb/types"
)

type FileState int

const (
	StateArchived FileState = iota
	StateBad
)

// MDLoader watches the source directory for README files and turns them into
// documents ready to be stored.
type MDLoader struct {
	cfg      types.Config
	parser   *parser.Parser
	chunker  *Chunker
	embedder model.EmbedderInterface

	FileMutex       sync.Mutex
	FileFirstSeen   map[string]time.Time
	FilesProcessing map[string]bool

	pollInterval time.Duration
	now          func() time.Time
}

func NewMDLoader(cfg types.Config, p *parser.Parser, chunker *Chunker, embedder model.EmbedderInterface) (*MDLoader, error) {
	if err := createDirectories(cfg.SourceDir, cfg.ArchiveDir, cfg.BadDir); err != nil {
		return nil, fmt.Errorf("create directories: %w", err)
	}
	return &MDLoader{
		cfg:             cfg,
		parser:          p,
		chunker:         chunker,
		embedder:        embedder,
		FileFirstSeen:   make(map[string]time.Time),
		FilesProcessing: make(map[string]bool),
		pollInterval:    time.Second,
		now:             time.Now,
	}, nil
}

// WatchFile polls the source directory and sends a file once it has been
// seen for longer than MonitoringTime. It returns when ctx is done.
func (l *MDLoader) WatchFile(ctx context.Context, fileChan chan<- string) {
	fmt.Printf("Start monitoring folder: %s\n", l.cfg.SourceDir)

	ticker := time.NewTicker(l.pollInterval)
	defer ticker.Stop()
	defer fmt.Println("File watcher stopped and cleaned up")

	for {
		select {
		case <-ctx.Done():
			fmt.Println("Stopping file watcher (context cancelled)...")
			return
		case <-ticker.C:
			for _, filePath := range l.readyFiles() {
				select {
				case fileChan <- filePath:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

// readyFiles does one scan of the source directory.
func (l *MDLoader) readyFiles() []string {
	files, err := os.ReadDir(l.cfg.SourceDir)
	if err != nil {
		fmt.Printf("error while reading source directory: %s\n", err)
		return nil
	}

	l.FileMutex.Lock()
	defer l.FileMutex.Unlock()

	var ready []string
	currentFiles := make(map[string]bool)
	for _, file := range files {
		if file.IsDir() || strings.HasPrefix(file.Name(), ".") {
			continue
		}

		filePath := filepath.Join(l.cfg.SourceDir, file.Name())
		currentFiles[filePath] = true

		if l.FilesProcessing[filePath] {
			continue
		}

		firstSeen, exists := l.FileFirstSeen[filePath]
		if !exists {
			l.FileFirstSeen[filePath] = l.now()
			fmt.Printf("New file detected: %s\n", filePath)
			continue
		}

		if l.now().Sub(firstSeen) > l.cfg.MonitoringTime {
			fmt.Printf("The file %s has not been modified for more than %v seconds. Start processing...\n", filePath, l.cfg.MonitoringTime.Seconds())
			l.FilesProcessing[filePath] = true
			ready = append(ready, filePath)
		}
	}

	for filePath := range l.FileFirstSeen {
		if !currentFiles[filePath] {
			delete(l.FileFirstSeen, filePath)
			delete(l.FilesProcessing, filePath)
			fmt.Printf("The file has been removed from tracking: %s\n", filePath)
		}
	}
	return ready
}

// ProcessFile turns each received path into a document. Files that cannot be
// loaded are moved to the bad directory.
func (l *MDLoader) ProcessFile(ctx context.Context, fileChan <-chan string, docChan chan<- *types.Document) {
	defer fmt.Println("File processor stopped and cleaned up")

	for {
		select {
		case <-ctx.Done():
			fmt.Println("Stopping file processor (context cancelled)...")
			return
		case filePath, ok := <-fileChan:
			if !ok {
				fmt.Println("File channel closed, stopping processor...")
				return
			}

			fmt.Printf("Processing file: %s\n", filePath)
			doc, err := l.LoadFile(ctx, filePath)
			if ctx.Err() != nil {
				fmt.Printf("File processing interrupted due to context cancellation: %s\n", filePath)
				l.release(filePath, false)
				return
			}
			if err != nil {
				fmt.Printf("Error processing file %s: %v\n", filePath, err)
				if _, err := l.MoveToArchive(filePath, StateBad); err != nil {
					fmt.Printf("error moving file to bad directory: %s\n", err)
				}
				l.release(filePath, true)
				continue
			}

			select {
			case docChan <- doc:
			case <-ctx.Done():
				l.release(filePath, false)
				return
			}
			l.release(filePath, true)
		}
	}
}

// release stops tracking filePath. With forget unset the file keeps its
// first-seen time so it is picked up again on the next run.
func (l *MDLoader) release(filePath string, forget bool) {
	l.FileMutex.Lock()
	defer l.FileMutex.Unlock()
	delete(l.FilesProcessing, filePath)
	if forget {
		delete(l.FileFirstSeen, filePath)
	}
}

// LoadFile parses, chunks and embeds one README.
func (l *MDLoader) LoadFile(ctx context.Context, filePath string) (*types.Document, error) {
	parsed, err := l.parser.ParseFile(filePath)
	if err != nil {
		return nil, err
	}
	return l.BuildDocument(ctx, parsed)
}

// BuildDocument chunks and embeds an already parsed README.
func (l *MDLoader) BuildDocument(ctx context.Context, parsed *parser.ParsedReadme) (*types.Document, error) {
	fileInfo, err := os.Stat(parsed.FilePath)
	if err != nil {
		return nil, fmt.Errorf("file does not exist: %s", parsed.FilePath)
	}

	chunks := l.chunker.Chunks(parsed)
	for i := range chunks {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		vec, err := l.embedder.Embed(ctx, chunks[i].Title+"\n\n"+chunks[i].Content)
		if err != nil {
			return nil, fmt.Errorf("embed %s: %w", chunks[i].ExternalID, err)
		}
		chunks[i].Embedding = vec
	}

	return &types.Document{
		ID:         types.DocumentID(parsed.FileName),
		Title:      documentTitle(parsed),
		FileName:   parsed.FileName,
		Chunks:     chunks,
		Source:     "readme",
		SourcePath: parsed.FilePath,
		CreatedAt:  fileInfo.ModTime(),
		UpdatedAt:  fileInfo.ModTime(),
		Version:    1,
	}, nil
}

// MoveToArchive moves filePath into a dated folder of the archive or bad
// directory and returns the new path. Name clashes get a numeric suffix.
func (l *MDLoader) MoveToArchive(filePath string, state FileState) (string, error) {
	root := l.cfg.ArchiveDir
	if state == StateBad {
		root = l.cfg.BadDir
	}

	destDir := filepath.Join(root, l.now().Format("2006-01-02"))
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", fmt.Errorf("error creating directory: %w", err)
	}

	destPath := filepath.Join(destDir, filepath.Base(filePath))
	for counter := 1; ; counter++ {
		if _, err := os.Stat(destPath); errors.Is(err, os.ErrNotExist) {
			break
		}
		ext := filepath.Ext(filePath)
		baseName := strings.TrimSuffix(filepath.Base(filePath), ext)
		destPath = filepath.Join(destDir, fmt.Sprintf("%s_%d%s", baseName, counter, ext))
	}

	if err := os.Rename(filePath, destPath); err != nil {
		// rename fails across devices
		if err := copyFile(filePath, destPath); err != nil {
			return "", fmt.Errorf("error moving file to archive: %w", err)
		}
		if err := os.Remove(filePath); err != nil {
			return "", err
		}
	}

	fmt.Printf("File moved to archive: %s\n", destPath)
	return destPath, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func createDirectories(dirs ...string) error {
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}
