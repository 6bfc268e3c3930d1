package transcript

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"sdr-automation-go/internal/config"
	"sdr-automation-go/internal/logger"
	"sdr-automation-go/internal/types"
)

var ErrEmptyTranscript = errors.New("transcript is empty")

// ReadFile loads a plain-text transcript from disk.
func ReadFile(path string) (types.Transcript, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return types.Transcript{}, fmt.Errorf("read transcript: %w", err)
	}
	text := strings.TrimSpace(string(b))
	if text == "" {
		return types.Transcript{}, fmt.Errorf("%s: %w", path, ErrEmptyTranscript)
	}
	return types.Transcript{
		ID:     filepath.Base(path),
		Text:   text,
		Source: types.SourceFile,
	}, nil
}

type transcriptionAPI interface {
	CreateTranscription(ctx context.Context, request openai.AudioRequest) (openai.AudioResponse, error)
}

// AudioTranscriber turns a call recording into a timestamped transcript using
// an OpenAI-compatible Whisper endpoint.
type AudioTranscriber struct {
	api   transcriptionAPI
	model string
	log   *logger.Logger
}

func NewAudioTranscriber(cfg config.Whisper, log *logger.Logger) (*AudioTranscriber, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("audio transcription needs WHISPER_API_KEY or OPENAI_API_KEY")
	}
	if log == nil {
		log = logger.New()
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &AudioTranscriber{
		api:   openai.NewClientWithConfig(clientCfg),
		model: cfg.Model,
		log:   log.With("component", "transcriber"),
	}, nil
}

// Transcribe returns one "[mm:ss] text" line per segment, or the plain text
// when the endpoint returns no segments.
func (a *AudioTranscriber) Transcribe(ctx context.Context, path string) (types.Transcript, error) {
	if _, err := os.Stat(path); err != nil {
		return types.Transcript{}, fmt.Errorf("audio file: %w", err)
	}

	a.log.WithField("file", filepath.Base(path)).Info("transcribing audio")
	resp, err := a.api.CreateTranscription(ctx, openai.AudioRequest{
		Model:    a.model,
		FilePath: path,
		Format:   openai.AudioResponseFormatVerboseJSON,
	})
	if err != nil {
		return types.Transcript{}, fmt.Errorf("whisper transcription: %w", err)
	}

	text := formatSegments(resp)
	if text == "" {
		return types.Transcript{}, fmt.Errorf("%s: %w", path, ErrEmptyTranscript)
	}

	a.log.WithField("language", resp.Language).WithField("segments", len(resp.Segments)).Info("audio transcribed")
	return types.Transcript{
		ID:     filepath.Base(path),
		Text:   text,
		Source: types.SourceAudio,
	}, nil
}

func formatSegments(resp openai.AudioResponse) string {
	var lines []string
	for _, seg := range resp.Segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		secs := int(seg.Start)
		lines = append(lines, fmt.Sprintf("[%02d:%02d] %s", secs/60, secs%60, text))
	}
	if len(lines) == 0 {
		return strings.TrimSpace(resp.Text)
	}
	return strings.Join(lines, "\n")
}
