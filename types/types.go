package types

import (
	"time"

	"github.com/google/uuid"
)

type ChunkKind string

const (
	ChunkSection ChunkKind = "section"
	ChunkQA      ChunkKind = "qa"
	ChunkSummary ChunkKind = "summary"
)

// ChunkMetadata is stored as jsonb next to the chunk.
type ChunkMetadata struct {
	Kind        ChunkKind `json:"kind"`
	SectionType string    `json:"section_type,omitempty"`
	SectionPath string    `json:"section_path,omitempty"`
	Level       int       `json:"level,omitempty"`
	LineNumber  int       `json:"line_number,omitempty"`
	Part        int       `json:"part,omitempty"`
	Tokens      int       `json:"tokens"`
	Category    string    `json:"category,omitempty"`
	Version     string    `json:"version,omitempty"`
}

// KnowledgeChunk is one retrievable piece of a README. Chunks are unique by
// (Source, ExternalID).
type KnowledgeChunk struct {
	ID         uuid.UUID     `json:"id"`
	DocID      uuid.UUID     `json:"doc_id"`
	Source     string        `json:"source"`
	ExternalID string        `json:"external_id"`
	Title      string        `json:"title,omitempty"`
	Content    string        `json:"content"`
	Metadata   ChunkMetadata `json:"metadata"`
	Embedding  []float32     `json:"-"`
	Distance   float64       `json:"distance,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// Document is a loaded README file and the chunks produced from it.
type Document struct {
	ID         uuid.UUID
	Title      string
	FileName   string
	Source     string
	SourcePath string
	Chunks     []KnowledgeChunk
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Version    int
}

// DocumentID derives a stable id from the file name so that reloading the
// same README updates the existing document.
func DocumentID(fileName string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("readme:"+fileName))
}
