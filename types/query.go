package types

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type Validater interface {
	Validate() map[string]string
}

func Validate(v Validater) map[string]string {
	return v.Validate()
}

func validateStruct(s any) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"_": err.Error()}
	}
	out := make(map[string]string, len(verrs))
	for _, e := range verrs {
		out[e.Field()] = fmt.Sprintf("failed on '%s' tag", e.Tag())
	}
	return out
}

type QueryParams struct {
	Prompt string `json:"prompt" validate:"required"`
	Limit  int    `json:"limit" validate:"omitempty,min=1,max=50"`
}

func (params *QueryParams) Validate() map[string]string {
	return validateStruct(params)
}

// ParseParams is the JSON form of a parse request.
type ParseParams struct {
	FileName string `json:"file_name" validate:"required,endswith=.md"`
	Content  string `json:"content" validate:"required"`
}

func (params *ParseParams) Validate() map[string]string {
	return validateStruct(params)
}

type ChunkListParams struct {
	Source string `query:"source" validate:"required"`
	Limit  int    `query:"limit" validate:"omitempty,min=1,max=500"`
	Offset int    `query:"offset" validate:"min=0"`
}

func (params *ChunkListParams) Validate() map[string]string {
	return validateStruct(params)
}

type SearchResponse struct {
	Answer     string    `json:"answer"`
	Sources    []Source  `json:"sources"`
	Confidence float64   `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
}

type Source struct {
	DocID      string `json:"doc_id"`
	Source     string `json:"source"`
	ExternalID string `json:"external_id"`
	Title      string `json:"title"`
	ChunkText  string `json:"chunk_text"`
}
