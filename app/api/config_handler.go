package api

import (
	"github.com/gofiber/fiber/v2"

	"readmekb/parser"
)

type ConfigHandler struct {
	parser *parser.Parser
}

func NewConfigHandler(p *parser.Parser) *ConfigHandler {
	return &ConfigHandler{parser: p}
}

type sectionCategory struct {
	Category string   `json:"category"`
	Headers  []string `json:"headers"`
}

// HandleGetConfig describes what the parser accepts and how it classifies
// section headers.
func (h *ConfigHandler) HandleGetConfig(c *fiber.Ctx) error {
	cfg := h.parser.Config()
	categories := make([]sectionCategory, len(cfg.SectionHeaders))
	for i, ch := range cfg.SectionHeaders {
		categories[i] = sectionCategory{Category: ch.Category, Headers: ch.Headers}
	}
	return c.JSON(fiber.Map{
		"extensions":         cfg.Extensions,
		"max_file_size":      cfg.MaxFileSizeBytes,
		"max_nesting_depth":  cfg.MaxNestingDepth,
		"workflow_keywords":  cfg.WorkflowTitleKeywords,
		"section_categories": categories,
	})
}
