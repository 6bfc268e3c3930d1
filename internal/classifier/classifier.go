package classifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"sdr-automation-go/internal/config"
	"sdr-automation-go/internal/logger"
	"sdr-automation-go/internal/types"
)

// Completer sends a single prompt to a language model and returns its text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Ping(ctx context.Context) error
	Name() string
}

type Classifier struct {
	llm     Completer
	timeout time.Duration
	log     *logger.Logger
}

func New(llm Completer, log *logger.Logger) *Classifier {
	if log == nil {
		log = logger.New()
	}
	return &Classifier{
		llm:     llm,
		timeout: 120 * time.Second,
		log:     log.With("component", "classifier").With("provider", llm.Name()),
	}
}

// NewFromConfig picks the provider named by cfg.Provider.
func NewFromConfig(cfg config.LLM, log *logger.Logger) (*Classifier, error) {
	var llm Completer
	switch cfg.Provider {
	case config.ProviderOllama:
		llm = NewOllama(cfg.BaseURL, cfg.Model, log)
	case config.ProviderOpenAI:
		llm = NewOpenAI(cfg.APIKey, cfg.BaseURL, cfg.Model)
	case config.ProviderAnthropic:
		llm = NewAnthropic(cfg.APIKey, cfg.BaseURL, cfg.Model)
	case config.ProviderMock:
		llm = Mock{}
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
	return New(llm, log), nil
}

func (c *Classifier) Ping(ctx context.Context) error {
	if err := c.llm.Ping(ctx); err != nil {
		return fmt.Errorf("%s unreachable: %w", c.llm.Name(), err)
	}
	return nil
}

// Classify asks the model for an analysis of transcript and parses the answer.
func (c *Classifier) Classify(ctx context.Context, transcript, prospectName string) (types.Classification, error) {
	if strings.TrimSpace(transcript) == "" {
		return types.Classification{}, errors.New("empty transcript")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	text, err := c.llm.Complete(ctx, BuildPrompt(transcript, prospectName))
	if err != nil {
		return types.Classification{}, fmt.Errorf("llm completion: %w", err)
	}

	result := Parse(text)
	c.log.WithField("decision", result.Decision).
		WithField("confidence", result.Confidence).
		WithField("duration_ms", time.Since(start).Milliseconds()).
		Debug("classification parsed")
	return result, nil
}

// ErrorResult is the classification recorded when the model could not be
// reached or answered with garbage.
func ErrorResult(err error) types.Classification {
	return types.Classification{
		Decision:   types.DecisionError,
		Confidence: 0,
		Reasoning:  fmt.Sprintf("Failed to analyze: %v", err),
		NextAction: types.ActionManualReview,
	}
}
