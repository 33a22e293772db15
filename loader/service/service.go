package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"readmekb/loader/internal"
	"readmekb/parser"
	"readmekb/store"
	"readmekb/types"
)

const shutdownTimeout = 5 * time.Second

type Service struct {
	logger *slog.Logger
	store  store.KnowledgeStore
	loader *internal.MDLoader
}

func New(storer store.KnowledgeStore, loader *internal.MDLoader) *Service {
	return &Service{
		logger: slog.Default(),
		store:  storer,
		loader: loader,
	}
}

func (s *Service) Stop() {
	s.logger.Info("Loader Service stopped")
}

// Run watches the source directory until ctx is cancelled or the process
// receives SIGINT/SIGTERM.
func (s *Service) Run(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	fileChan := make(chan string, 10)
	docChan := make(chan *types.Document)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(fileChan)
		s.loader.WatchFile(ctx, fileChan)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(docChan)
		s.loader.ProcessFile(ctx, fileChan, docChan)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := s.DocumentSave(ctx, docChan); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("document saver stopped", "error", err)
		}
	}()

	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigch)

	select {
	case <-sigch:
		log.Println("Received shutdown signal, shutting down gracefully...")
	case <-ctx.Done():
		log.Println("Context cancelled, shutting down gracefully...")
	}
	cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("All goroutines stopped successfully")
	case <-time.After(shutdownTimeout):
		log.Println("Timeout waiting for goroutines to stop, forcing shutdown...")
	}

	s.Stop()
	log.Println("Service stopped successfully")
}

// DocumentSave stores every received document and archives its file. A
// document that fails to store sends its file to the bad directory.
func (s *Service) DocumentSave(ctx context.Context, docChan <-chan *types.Document) error {
	for doc := range docChan {
		state := internal.StateArchived
		if err := s.SaveDocument(ctx, doc); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Error("error saving document", "file", doc.FileName, "error", err)
			state = internal.StateBad
		}
		if _, err := s.loader.MoveToArchive(doc.SourcePath, state); err != nil {
			s.logger.Error("error archiving file", "file", doc.SourcePath, "error", err)
		}
	}
	return nil
}

// SaveDocument upserts the document and its chunks and removes chunks left
// over from an earlier version. Unchanged documents are skipped.
func (s *Service) SaveDocument(ctx context.Context, doc *types.Document) error {
	if !s.ShouldUpdateFile(ctx, doc.ID, doc.UpdatedAt) {
		s.logger.Info("document is up to date", "file", doc.FileName)
		return nil
	}

	if err := s.store.SaveDocument(ctx, *doc); err != nil {
		return fmt.Errorf("save document %s: %w", doc.FileName, err)
	}

	keep := make([]string, 0, len(doc.Chunks))
	for i := range doc.Chunks {
		if err := s.store.UpsertChunk(ctx, &doc.Chunks[i]); err != nil {
			return fmt.Errorf("save chunk %s: %w", doc.Chunks[i].ExternalID, err)
		}
		keep = append(keep, doc.Chunks[i].ExternalID)
	}

	pruned, err := s.store.PruneSource(ctx, doc.FileName, keep)
	if err != nil {
		return fmt.Errorf("prune %s: %w", doc.FileName, err)
	}
	fmt.Printf("Successfully saved document %s: %d chunks, %d stale removed\n", doc.FileName, len(doc.Chunks), pruned)
	return nil
}

func (s *Service) ShouldUpdateFile(ctx context.Context, docID uuid.UUID, modTime time.Time) bool {
	doc, err := s.store.GetDocumentByID(ctx, docID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.logger.Warn("document lookup failed, reloading", "id", docID, "error", err)
		}
		return true
	}
	return modTime.After(doc.UpdatedAt)
}

// LoadDir parses every eligible file in dir concurrently and stores the
// results. Files are left in place.
func (s *Service) LoadDir(ctx context.Context, p *parser.Parser, dir string) (int, error) {
	docs, err := p.ParseAll(ctx, dir)
	if err != nil {
		return 0, err
	}

	saved := 0
	for _, parsed := range docs {
		doc, err := s.loader.BuildDocument(ctx, parsed)
		if err != nil {
			if ctx.Err() != nil {
				return saved, ctx.Err()
			}
			s.logger.Error("error loading file", "file", parsed.FileName, "error", err)
			continue
		}
		if err := s.SaveDocument(ctx, doc); err != nil {
			return saved, err
		}
		saved++
	}
	return saved, nil
}
