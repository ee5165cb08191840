// Package llm asks a local model to produce the structured AI summary for
// records that arrived without one.
package llm

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/csheth/dailyfeed/internal/feed"
)

const (
	defaultOllamaHost = "http://localhost:11434"
	// Abstracts are short; anything longer is clipped before prompting.
	maxAbstractChars = 20_000
)

// DefaultTimeout bounds one generation. Local models often need more than a
// minute.
const DefaultTimeout = 3 * time.Minute

// ErrDisabled is returned when no model is configured.
var ErrDisabled = errors.New("llm: no model configured")

// Config describes how to build an LLM client.
type Config struct {
	Model      string
	Endpoint   string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client produces structured summaries.
type Client interface {
	Enhance(ctx context.Context, title, abstract, language string) (feed.AIFields, error)
	Name() string
}

// NewFromEnv builds a client from cfg, falling back to OLLAMA_HOST and
// OLLAMA_MODEL. Without a model it returns ErrDisabled.
func NewFromEnv(cfg Config) (Client, error) {
	host := strings.TrimRight(cfg.Endpoint, "/")
	if host == "" {
		if env := os.Getenv("OLLAMA_HOST"); env != "" {
			host = strings.TrimRight(env, "/")
		} else {
			host = defaultOllamaHost
		}
	}
	model := cfg.Model
	if model == "" {
		model = os.Getenv("OLLAMA_MODEL")
	}
	if strings.TrimSpace(model) == "" {
		return nil, ErrDisabled
	}
	return &ollamaClient{
		host:   host,
		model:  model,
		client: pickHTTPClient(cfg.HTTPClient, cfg.Timeout),
	}, nil
}

func pickHTTPClient(custom *http.Client, timeout time.Duration) *http.Client {
	if custom != nil {
		return custom
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}
