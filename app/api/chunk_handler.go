package api

import (
	"github.com/gofiber/fiber/v2"

	"readmekb/store"
	"readmekb/types"
)

const defaultChunkLimit = 100

type ChunkHandler struct {
	store store.KnowledgeStore
}

func NewChunkHandler(s store.KnowledgeStore) *ChunkHandler {
	return &ChunkHandler{store: s}
}

func (h *ChunkHandler) HandleListChunks(c *fiber.Ctx) error {
	var params types.ChunkListParams
	if c.QueryParser(&params) != nil {
		return NewError(fiber.StatusBadRequest, "invalid query parameters")
	}
	if errors := types.Validate(&params); len(errors) > 0 {
		return NewValidationError(errors)
	}
	if params.Limit == 0 {
		params.Limit = defaultChunkLimit
	}

	chunks, err := h.store.ListBySource(c.UserContext(), params.Source, params.Limit, params.Offset)
	if err != nil {
		return err
	}
	if chunks == nil {
		chunks = []types.KnowledgeChunk{}
	}
	return c.JSON(fiber.Map{
		"source": params.Source,
		"count":  len(chunks),
		"chunks": chunks,
	})
}

// HandleGetChunk looks a chunk up by source and external id, both given as
// query parameters since external ids contain '#' and '/'.
func (h *ChunkHandler) HandleGetChunk(c *fiber.Ctx) error {
	source, externalID := c.Query("source"), c.Query("external_id")
	if source == "" || externalID == "" {
		return NewValidationError(map[string]string{
			"source":      "required",
			"external_id": "required",
		})
	}
	chunk, err := h.store.GetChunkByExternalID(c.UserContext(), source, externalID)
	if err != nil {
		return err
	}
	return c.JSON(chunk)
}
