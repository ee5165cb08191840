package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/csheth/dailyfeed/internal/feed"
)

type ollamaClient struct {
	host   string
	model  string
	client *http.Client
}

func (c *ollamaClient) Name() string {
	return fmt.Sprintf("Ollama (%s)", c.model)
}

func (c *ollamaClient) Enhance(ctx context.Context, title, abstract, language string) (feed.AIFields, error) {
	content := clipText(abstract, maxAbstractChars)
	if content == "" {
		return feed.AIFields{}, fmt.Errorf("abstract empty; cannot enhance")
	}
	raw, err := c.generate(ctx, buildEnhancePrompt(title, content, language))
	if err != nil {
		return feed.AIFields{}, err
	}
	return parseAIFields(raw), nil
}

func (c *ollamaClient) generate(ctx context.Context, prompt string) (string, error) {
	payload := map[string]any{
		"model":  c.model,
		"prompt": prompt,
		"stream": false,
		"format": "json",
	}
	buf, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/api/generate", bytes.NewReader(buf))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("ollama API error: %s (%s)", resp.Status, strings.TrimSpace(string(body)))
	}

	var parsed struct {
		Response string `json:"response"`
		Done     bool   `json:"done"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", err
	}
	if strings.TrimSpace(parsed.Response) == "" {
		return "", fmt.Errorf("ollama returned an empty response")
	}
	return strings.TrimSpace(parsed.Response), nil
}
