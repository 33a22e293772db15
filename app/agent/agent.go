package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/pkoukk/tiktoken-go"

	"readmekb/types"
)

const systemPrompt = `You are an assistant that answers questions about software projects using their README documentation.
Answer clearly and to the point, without adding any additional information.
If the context is empty or doesn't contain any information to answer, say 'No information for this request.'
Don't add introductions like 'Of course!' or 'Here's the answer:'`

type GenerateRequest struct {
	Model  string `json:"model"`
	System string `json:"system"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type GenerateResponse struct {
	Response string `json:"response"`
}

// Agent asks an Ollama-compatible generate endpoint to answer a question
// from retrieved README context.
type Agent struct {
	url    string
	model  string
	client *http.Client
	enc    *tiktoken.Tiktoken
}

func New(cfg types.LLMConfig) *Agent {
	a := &Agent{
		url:    cfg.URL,
		model:  cfg.Model,
		client: &http.Client{Timeout: 2 * time.Minute},
	}
	enc, err := tiktoken.EncodingForModel("gpt-3.5-turbo")
	if err != nil {
		log.Printf("[AGENT] tokenizer unavailable, estimating token counts: %v", err)
	} else {
		a.enc = enc
	}
	return a
}

// CountTokens measures text with the gpt-3.5 tokenizer, or estimates from the
// word count when it could not be loaded.
func (a *Agent) CountTokens(text string) int {
	if a.enc == nil {
		return (len(strings.Fields(text))*4 + 2) / 3
	}
	return len(a.enc.Encode(text, nil, nil))
}

func buildPrompt(contextText, question string) string {
	return fmt.Sprintf(`Answer the question based on the given context. If there is no information in the provided context or the context is empty then answer 'No information for this request'. Nothing else.
Context:
%s
Question:
%s
Answer:`, contextText, question)
}

func (a *Agent) GenerateAnswer(ctx context.Context, contextText, question string) (string, error) {
	if a.url == "" {
		return "", errors.New("LLM_URL is not configured")
	}

	start := time.Now()
	defer func() {
		log.Printf("[AGENT] LLM answer took %v", time.Since(start))
	}()

	prompt := buildPrompt(contextText, question)
	reqBody, err := json.Marshal(GenerateRequest{
		Model:  a.model,
		System: systemPrompt,
		Prompt: prompt,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}
	log.Printf("[AGENT] Prompt with system: %d tokens, %d bytes", a.CountTokens(systemPrompt+prompt), len(reqBody))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("LLM request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read LLM response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("LLM API error: status %d, body: %s", resp.StatusCode, string(body))
	}
	return decodeAnswer(body), nil
}

// decodeAnswer accepts a single JSON object or a stream of them, in which
// case the response fragments are concatenated.
func decodeAnswer(body []byte) string {
	var genResp GenerateResponse
	if err := json.Unmarshal(body, &genResp); err == nil && genResp.Response != "" {
		return genResp.Response
	}

	var output strings.Builder
	decoder := json.NewDecoder(bytes.NewReader(body))
	for decoder.More() {
		var chunk GenerateResponse
		if err := decoder.Decode(&chunk); err != nil {
			break
		}
		output.WriteString(chunk.Response)
	}
	return output.String()
}
