package api

import (
	"io"

	"github.com/gofiber/fiber/v2"

	"readmekb/enhancer"
	"readmekb/parser"
	"readmekb/qa"
	"readmekb/types"
)

type ParseHandler struct {
	parser   *parser.Parser
	enhancer *enhancer.Enhancer
	qa       *qa.Generator
}

func NewParseHandler(p *parser.Parser, e *enhancer.Enhancer, g *qa.Generator) *ParseHandler {
	return &ParseHandler{parser: p, enhancer: e, qa: g}
}

type ParseResponse struct {
	Document  *parser.ParsedReadme `json:"document"`
	Enhanced  string               `json:"enhanced,omitempty"`
	Questions []qa.Pair            `json:"questions,omitempty"`
}

// HandleParse parses an uploaded README. It accepts a multipart "file" field
// or a JSON body with file_name and content. With ?enhance=true the response
// also carries the enhanced markdown and generated questions.
func (h *ParseHandler) HandleParse(c *fiber.Ctx) error {
	name, data, err := readUpload(c)
	if err != nil {
		return err
	}

	doc, err := h.parser.ParseBytes(name, data)
	if err != nil {
		return err
	}

	resp := ParseResponse{Document: doc}
	if c.QueryBool("enhance") {
		resp.Enhanced = h.enhancer.EnhanceDocument(doc)
		resp.Questions = h.qa.GenerateForDocument(doc)
	}
	return c.JSON(resp)
}

func readUpload(c *fiber.Ctx) (string, []byte, error) {
	if file, err := c.FormFile("file"); err == nil {
		f, err := file.Open()
		if err != nil {
			return "", nil, err
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return "", nil, err
		}
		return file.Filename, data, nil
	}

	if !c.Is("json") {
		return "", nil, ErrMissingFile()
	}
	var params types.ParseParams
	if c.BodyParser(&params) != nil {
		return "", nil, ErrBadRequest()
	}
	if errors := types.Validate(&params); len(errors) > 0 {
		return "", nil, NewValidationError(errors)
	}
	return params.FileName, []byte(params.Content), nil
}
