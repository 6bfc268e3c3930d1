package classifier

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"sdr-automation-go/internal/logger"
	"sdr-automation-go/internal/restclient"
)

// Ollama talks to a local Ollama server over its native API.
type Ollama struct {
	model  string
	client *restclient.Client
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

func NewOllama(baseURL, model string, log *logger.Logger) *Ollama {
	if log == nil {
		log = logger.New()
	}
	client := restclient.New(baseURL, &http.Client{Timeout: 120 * time.Second}, log.With("component", "ollama"))
	client.MaxElapsed = 45 * time.Second
	// generate has no side effects
	client.RetryUnsafe = true
	return &Ollama{model: model, client: client}
}

func (o *Ollama) Name() string { return "ollama:" + o.model }

func (o *Ollama) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return o.client.Do(ctx, http.MethodGet, "/api/tags", nil, nil, nil)
}

func (o *Ollama) Complete(ctx context.Context, prompt string) (string, error) {
	var out generateResponse
	req := generateRequest{Model: o.model, Prompt: prompt, Stream: false, Options: generateOptions{Temperature: 0}}
	if err := o.client.Do(ctx, http.MethodPost, "/api/generate", nil, req, &out); err != nil {
		return "", err
	}
	if out.Response == "" {
		return "", fmt.Errorf("ollama returned an empty response")
	}
	return out.Response, nil
}
