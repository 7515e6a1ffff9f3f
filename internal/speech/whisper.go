package speech

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Transcriber is the part of the OpenAI client the Whisper engine uses.
type Transcriber interface {
	CreateTranscription(ctx context.Context, request openai.AudioRequest) (openai.AudioResponse, error)
}

// WhisperConfig configures a WhisperEngine.
type WhisperConfig struct {
	APIKey   string
	BaseURL  string
	Model    string
	Language string
	// AudioPath is the recording transcribed by each capture session.
	AudioPath string
}

// WhisperEngine transcribes a recorded audio file through the OpenAI audio
// API. It produces a single final result per session.
type WhisperEngine struct {
	client    Transcriber
	model     string
	language  string
	audioPath string
	logger    *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewWhisperEngine returns nil when no API key is configured, which leaves
// the adapter Unavailable.
func NewWhisperEngine(cfg WhisperConfig, logger *zap.Logger) *WhisperEngine {
	if cfg.APIKey == "" {
		return nil
	}
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return NewWhisperEngineWithClient(openai.NewClientWithConfig(clientConfig), cfg, logger)
}

// NewWhisperEngineWithClient builds an engine over an existing client.
func NewWhisperEngineWithClient(client Transcriber, cfg WhisperConfig, logger *zap.Logger) *WhisperEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	model := cfg.Model
	if model == "" {
		model = openai.Whisper1
	}
	return &WhisperEngine{
		client:    client,
		model:     model,
		language:  cfg.Language,
		audioPath: cfg.AudioPath,
		logger:    logger,
	}
}

func (w *WhisperEngine) Start(ctx context.Context) (<-chan EngineEvent, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	path := w.audioPath

	events := make(chan EngineEvent, 2)
	go func() {
		defer close(events)
		defer cancel()

		ev := w.transcribe(ctx, path)
		if ctx.Err() != nil {
			return
		}
		select {
		case events <- ev:
		case <-ctx.Done():
			return
		}
		select {
		case events <- End():
		case <-ctx.Done():
		}
	}()
	return events, nil
}

func (w *WhisperEngine) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
}

func (w *WhisperEngine) transcribe(ctx context.Context, path string) EngineEvent {
	if path == "" {
		return Failure(CodeAudioCapture)
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrPermission) {
			return Failure(CodeNotAllowed)
		}
		return Failure(CodeAudioCapture)
	}

	resp, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    w.model,
		FilePath: path,
		Language: w.language,
	})
	if err != nil {
		w.logger.Warn("transcription failed", zap.String("path", path), zap.Error(err))
		return Failure(errorCode(err))
	}
	return Result(true, resp.Text)
}

// errorCode maps a transcription error onto the engine error codes.
func errorCode(err error) string {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case 401, 403:
			return CodeNotAllowed
		}
		return fmt.Sprintf("api-%d", apiErr.HTTPStatusCode)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		switch reqErr.HTTPStatusCode {
		case 401, 403:
			return CodeNotAllowed
		case 0:
			return CodeNetwork
		}
		return fmt.Sprintf("http-%d", reqErr.HTTPStatusCode)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return CodeNetwork
	}
	if errors.Is(err, os.ErrNotExist) {
		return CodeAudioCapture
	}
	return "unknown"
}

// NewEngine returns the configured engine, or nil when speech is unavailable.
func NewEngine(cfg WhisperConfig, logger *zap.Logger) Engine {
	if w := NewWhisperEngine(cfg, logger); w != nil {
		return w
	}
	return nil
}
