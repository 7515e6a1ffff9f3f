package app

import (
	"go.uber.org/zap"

	"github.com/Rorical/LawAgent/internal/config"
	"github.com/Rorical/LawAgent/internal/dispatcher"
	"github.com/Rorical/LawAgent/internal/session"
	"github.com/Rorical/LawAgent/internal/speech"
)

// NewSessionStore returns a store backed by the profile's session file.
func NewSessionStore(cfg *config.Config, logger *zap.Logger) *session.Store {
	return session.NewStore(
		session.WithPersister(session.NewFilePersister(cfg.SessionPath())),
		session.WithLogger(logger.Named("session")),
	)
}

// NewDispatcher returns a dispatcher for the profile's backend.
func NewDispatcher(cfg *config.Config, sessions *session.Store, logger *zap.Logger) *dispatcher.Dispatcher {
	return dispatcher.New(cfg.GetBaseURL(), sessions,
		dispatcher.WithTimeout(cfg.GetRequestTimeout()),
		dispatcher.WithLogger(logger.Named("dispatcher")),
	)
}

// NewSpeechAdapter returns an adapter over the configured engine. Without an
// engine the adapter reports itself unavailable.
func NewSpeechAdapter(cfg *config.Config, audioPath string, logger *zap.Logger) *speech.Adapter {
	if audioPath == "" {
		audioPath = cfg.GetAudioSource()
	}
	engine := speech.NewEngine(speech.WhisperConfig{
		APIKey:    cfg.GetOpenAIAPIKey(),
		BaseURL:   cfg.GetOpenAIBaseURL(),
		Model:     cfg.GetSpeechModel(),
		Language:  cfg.GetSpeechLanguage(),
		AudioPath: audioPath,
	}, logger.Named("whisper"))
	return speech.NewAdapter(engine, logger.Named("speech"))
}
