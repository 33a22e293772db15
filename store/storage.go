package store

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"readmekb/types"
)

// EmbeddingDim is the width of the embedding column.
const EmbeddingDim = 768

var ErrNotFound = errors.New("not found")

// KnowledgeStore persists README documents and their knowledge chunks.
// Chunks are keyed by (source, external id): upserting the same key again
// updates the row and keeps its id.
type KnowledgeStore interface {
	SaveDocument(context.Context, types.Document) error
	GetDocumentByID(context.Context, uuid.UUID) (*types.Document, error)
	UpsertChunk(context.Context, *types.KnowledgeChunk) error
	GetChunkByExternalID(ctx context.Context, source, externalID string) (*types.KnowledgeChunk, error)
	ListBySource(ctx context.Context, source string, limit, offset int) ([]types.KnowledgeChunk, error)
	Search(ctx context.Context, vec []float32, limit int) ([]types.KnowledgeChunk, error)
	DeleteBySource(ctx context.Context, source string) (int64, error)
	// PruneSource deletes the chunks of source whose external id is not in keep.
	PruneSource(ctx context.Context, source string, keep []string) (int64, error)
}

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connStr string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{
		pool: pool,
	}, nil
}

func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *PostgresStore) GetDocumentByID(ctx context.Context, docID uuid.UUID) (*types.Document, error) {
	doc := &types.Document{}
	err := p.pool.QueryRow(ctx, `
		SELECT id, title, file_name, source, source_path, created_at, updated_at, version
		FROM documents WHERE id = $1`, docID).Scan(
		&doc.ID,
		&doc.Title,
		&doc.FileName,
		&doc.Source,
		&doc.SourcePath,
		&doc.CreatedAt,
		&doc.UpdatedAt,
		&doc.Version)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("document %s: %w", docID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (p *PostgresStore) SaveDocument(ctx context.Context, doc types.Document) error {
	query := `INSERT INTO documents (id, title, file_name, source, source_path, created_at, updated_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			file_name = EXCLUDED.file_name,
			source = EXCLUDED.source,
			source_path = EXCLUDED.source_path,
			updated_at = EXCLUDED.updated_at,
			version = documents.version + 1
			`
	_, err := p.pool.Exec(
		ctx,
		query,
		doc.ID,
		doc.Title,
		doc.FileName,
		doc.Source,
		doc.SourcePath,
		doc.CreatedAt,
		doc.UpdatedAt,
		doc.Version,
	)
	return err
}

func (p *PostgresStore) UpsertChunk(ctx context.Context, c *types.KnowledgeChunk) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	query := `
	INSERT INTO knowledge_chunks (id, doc_id, source, external_id, title, content, chunk_metadata, embedding)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (source, external_id) DO UPDATE SET
		doc_id = EXCLUDED.doc_id,
		title = EXCLUDED.title,
		content = EXCLUDED.content,
		chunk_metadata = EXCLUDED.chunk_metadata,
		embedding = EXCLUDED.embedding,
		updated_at = now()
	RETURNING id, created_at, updated_at
	`
	return p.pool.QueryRow(ctx, query,
		c.ID, nullDocID(c.DocID), c.Source, c.ExternalID, c.Title, c.Content, c.Metadata, toPgVector(c.Embedding),
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

func nullDocID(id uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: id, Valid: id != uuid.Nil}
}

// toPgVector maps an empty embedding to NULL.
func toPgVector(v []float32) any {
	if len(v) == 0 {
		return nil
	}
	return pgvector.NewVector(v)
}

const chunkColumns = `id, doc_id, source, external_id, coalesce(title, ''), content, chunk_metadata, created_at, updated_at`

func scanChunk(row pgx.Row, extra ...any) (types.KnowledgeChunk, error) {
	var (
		c     types.KnowledgeChunk
		docID uuid.NullUUID
	)
	dest := append([]any{
		&c.ID, &docID, &c.Source, &c.ExternalID, &c.Title, &c.Content, &c.Metadata, &c.CreatedAt, &c.UpdatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return c, err
	}
	c.DocID = docID.UUID
	return c, nil
}

func (p *PostgresStore) GetChunkByExternalID(ctx context.Context, source, externalID string) (*types.KnowledgeChunk, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT `+chunkColumns+` FROM knowledge_chunks WHERE source = $1 AND external_id = $2`,
		source, externalID)
	c, err := scanChunk(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("chunk %s/%s: %w", source, externalID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (p *PostgresStore) ListBySource(ctx context.Context, source string, limit, offset int) ([]types.KnowledgeChunk, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT `+chunkColumns+`
		FROM knowledge_chunks
		WHERE source = $1
		ORDER BY created_at, external_id
		LIMIT $2 OFFSET $3`, source, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []types.KnowledgeChunk
	for rows.Next() {
		c, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// Search returns the chunks nearest to vec by cosine distance. Distance holds
// the similarity (1 - cosine distance), higher is closer.
func (p *PostgresStore) Search(ctx context.Context, queryVec []float32, limit int) ([]types.KnowledgeChunk, error) {
	if len(queryVec) == 0 {
		return nil, errors.New("empty query vector")
	}

	rows, err := p.pool.Query(ctx, `
		SELECT `+chunkColumns+`, 1 - (embedding <=> $1) AS similarity
		FROM knowledge_chunks
		WHERE embedding IS NOT NULL
		ORDER BY embedding <=> $1
		LIMIT $2
	`, pgvector.NewVector(queryVec), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []types.KnowledgeChunk
	for rows.Next() {
		var similarity float64
		c, err := scanChunk(rows, &similarity)
		if err != nil {
			return nil, err
		}
		c.Distance = similarity
		log.Printf("[SEARCH] Found chunk: %s/%s (similarity: %.4f)\n", c.Source, c.ExternalID, c.Distance)
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

func (p *PostgresStore) DeleteBySource(ctx context.Context, source string) (int64, error) {
	tag, err := p.pool.Exec(ctx, "DELETE FROM knowledge_chunks WHERE source = $1", source)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (p *PostgresStore) PruneSource(ctx context.Context, source string, keep []string) (int64, error) {
	if keep == nil {
		keep = []string{}
	}
	tag, err := p.pool.Exec(ctx,
		"DELETE FROM knowledge_chunks WHERE source = $1 AND NOT (external_id = ANY($2))",
		source, keep)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (p *PostgresStore) createTables(ctx context.Context) error {
	query := fmt.Sprintf(`
	CREATE EXTENSION IF NOT EXISTS vector;

	CREATE TABLE IF NOT EXISTS documents (
		id UUID PRIMARY KEY,
		title TEXT NOT NULL,
		file_name TEXT NOT NULL,
		source TEXT,
		source_path TEXT,
		created_at TIMESTAMP WITH TIME ZONE,
		updated_at TIMESTAMP WITH TIME ZONE,
		version INTEGER DEFAULT 1
	);

	CREATE TABLE IF NOT EXISTS knowledge_chunks (
		id UUID PRIMARY KEY,
		doc_id UUID REFERENCES documents(id) ON DELETE CASCADE,
		source VARCHAR(255) NOT NULL,
		external_id TEXT NOT NULL,
		title TEXT,
		content TEXT NOT NULL,
		chunk_metadata JSONB NOT NULL DEFAULT '{}',
		embedding vector(%d),
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
		updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now(),
		UNIQUE (source, external_id)
	);

	CREATE INDEX IF NOT EXISTS idx_knowledge_source ON knowledge_chunks(source);
	CREATE INDEX IF NOT EXISTS idx_knowledge_created ON knowledge_chunks(created_at);
	CREATE INDEX IF NOT EXISTS idx_knowledge_embedding ON knowledge_chunks USING ivfflat (embedding vector_cosine_ops)
	WITH (lists = 100);
	`, EmbeddingDim)
	_, err := p.pool.Exec(ctx, query)
	return err
}

func (p *PostgresStore) Init(ctx context.Context) error {
	return p.createTables(ctx)
}

func (p *PostgresStore) Close() error {
	if p.pool != nil {
		p.pool.Close()
		log.Println("Postgres connection pool is closed")
	}
	return nil
}
