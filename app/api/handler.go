package api

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"readmekb/model"
	"readmekb/store"
	"readmekb/types"
)

const (
	defaultSearchLimit = 5
	minSimilarity      = 0.55
	maxContextTokens   = 3000
)

// Answerer turns retrieved README context into an answer.
type Answerer interface {
	GenerateAnswer(ctx context.Context, contextText, question string) (string, error)
	CountTokens(text string) int
}

type RequestHandler struct {
	store    store.KnowledgeStore
	embedder model.EmbedderInterface
	agent    Answerer
}

func NewRequestHandler(s store.KnowledgeStore, embedder model.EmbedderInterface, agent Answerer) *RequestHandler {
	return &RequestHandler{
		store:    s,
		embedder: embedder,
		agent:    agent,
	}
}

func (h *RequestHandler) HandleRequest(c *fiber.Ctx) error {
	var params types.QueryParams
	if c.BodyParser(&params) != nil {
		return ErrBadRequest()
	}
	if errors := types.Validate(&params); len(errors) > 0 {
		return NewValidationError(errors)
	}

	limit := params.Limit
	if limit == 0 {
		limit = defaultSearchLimit
	}

	ctx := c.UserContext()
	embedded, err := h.embedder.Embed(ctx, params.Prompt)
	if err != nil {
		return err
	}
	if embedded == nil {
		return ErrUnavailable("embeddings are not available")
	}

	similar, err := h.store.Search(ctx, embedded, limit)
	if err != nil {
		return fmt.Errorf("search knowledge chunks: %w", err)
	}

	quality := filterChunks(similar)
	confidence := 0.0
	if len(quality) > 0 {
		confidence = quality[0].Distance
	}

	contextText, used := h.buildContext(quality)
	if contextText == "" {
		contextText = "empty"
	}

	answer, err := h.agent.GenerateAnswer(ctx, contextText, params.Prompt)
	if err != nil {
		return err
	}

	return c.JSON(&types.SearchResponse{
		Answer:     answer,
		Sources:    formatSources(used),
		Confidence: confidence,
		Timestamp:  time.Now(),
	})
}

func formatSources(chunks []types.KnowledgeChunk) []types.Source {
	sources := make([]types.Source, len(chunks))
	for i, ch := range chunks {
		sources[i] = types.Source{
			DocID:      ch.DocID.String(),
			Source:     ch.Source,
			ExternalID: ch.ExternalID,
			Title:      ch.Title,
			ChunkText:  ch.Content,
		}
	}
	return sources
}

func filterChunks(chunks []types.KnowledgeChunk) []types.KnowledgeChunk {
	result := make([]types.KnowledgeChunk, 0, len(chunks))
	for _, ch := range chunks {
		if ch.Distance > minSimilarity {
			result = append(result, ch)
		} else {
			log.Printf("[FILTER] dropped chunk %s with similarity %.4f (min %.2f)", ch.ExternalID, ch.Distance, minSimilarity)
		}
	}
	return result
}

// buildContext groups chunks by document, best match first, and stops adding
// chunks once the token budget is spent.
func (h *RequestHandler) buildContext(chunks []types.KnowledgeChunk) (string, []types.KnowledgeChunk) {
	sorted := make([]types.KnowledgeChunk, len(chunks))
	copy(sorted, chunks)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Distance > sorted[j].Distance
	})

	var docs []string
	grouped := make(map[string][]types.KnowledgeChunk)
	for _, ch := range sorted {
		key := ch.DocID.String()
		if _, ok := grouped[key]; !ok {
			docs = append(docs, key)
		}
		grouped[key] = append(grouped[key], ch)
	}

	var (
		sb     strings.Builder
		used   []types.KnowledgeChunk
		tokens int
	)
	for _, key := range docs {
		header := fmt.Sprintf("Document %s:\n", documentLabel(grouped[key][0]))
		wrote := false
		for _, ch := range grouped[key] {
			block := ch.Content + "\n"
			cost := h.agent.CountTokens(block)
			if !wrote {
				cost += h.agent.CountTokens(header)
			}
			if tokens+cost > maxContextTokens {
				log.Printf("[CONTEXT] skipped %s, budget %d/%d tokens", ch.ExternalID, tokens, maxContextTokens)
				continue
			}
			if !wrote {
				sb.WriteString(header)
				wrote = true
			}
			sb.WriteString(block)
			tokens += cost
			used = append(used, ch)
		}
		if wrote {
			sb.WriteString("\n")
		}
	}
	log.Printf("[CONTEXT] built context: %d tokens from %d chunks", tokens, len(used))
	return sb.String(), used
}

// documentLabel names the README a chunk came from: the part of the external
// id before '#'.
func documentLabel(ch types.KnowledgeChunk) string {
	if name, _, ok := strings.Cut(ch.ExternalID, "#"); ok && name != "" {
		return name
	}
	return ch.Source
}
