// Package speech exposes voice capture as a small state machine over a
// pluggable recognition engine.
package speech

import (
	"context"
	"strings"
)

// EngineEventKind tags an EngineEvent.
type EngineEventKind int

const (
	EngineResult EngineEventKind = iota
	EngineError
	EngineEnd
)

// EngineEvent is reported by an Engine during a capture session.
type EngineEvent struct {
	Kind  EngineEventKind
	Final bool
	Text  string
	Code  string
}

// Result builds a transcript event.
func Result(final bool, text string) EngineEvent {
	return EngineEvent{Kind: EngineResult, Final: final, Text: text}
}

// Failure builds an engine error event.
func Failure(code string) EngineEvent {
	return EngineEvent{Kind: EngineError, Code: code}
}

// End builds the end-of-session event.
func End() EngineEvent {
	return EngineEvent{Kind: EngineEnd}
}

// Engine is a speech recognizer. Start begins one capture session and
// returns that session's event channel, which the engine closes when the
// session is over. Stop ends the current session early.
type Engine interface {
	Start(ctx context.Context) (<-chan EngineEvent, error)
	Stop()
}

// Engine error codes.
const (
	CodeNoSpeech     = "no-speech"
	CodeAudioCapture = "audio-capture"
	CodeNotAllowed   = "not-allowed"
	CodeNetwork      = "network"
)

// ReasonKind is the closed set of capture failure reasons.
type ReasonKind int

const (
	ReasonOther ReasonKind = iota
	ReasonNoSpeech
	ReasonAudioCaptureUnavailable
	ReasonPermissionDenied
	ReasonNetwork
)

// Reason explains a CaptureFailed event. Code keeps the engine's original
// code for ReasonOther.
type Reason struct {
	Kind ReasonKind
	Code string
}

// ReasonFromCode maps an engine error code to a Reason.
func ReasonFromCode(code string) Reason {
	switch strings.ToLower(strings.TrimSpace(code)) {
	case CodeNoSpeech:
		return Reason{Kind: ReasonNoSpeech, Code: CodeNoSpeech}
	case CodeAudioCapture:
		return Reason{Kind: ReasonAudioCaptureUnavailable, Code: CodeAudioCapture}
	case CodeNotAllowed:
		return Reason{Kind: ReasonPermissionDenied, Code: CodeNotAllowed}
	case CodeNetwork:
		return Reason{Kind: ReasonNetwork, Code: CodeNetwork}
	}
	return Reason{Kind: ReasonOther, Code: code}
}

func (r Reason) String() string {
	switch r.Kind {
	case ReasonNoSpeech:
		return "NoSpeech"
	case ReasonAudioCaptureUnavailable:
		return "AudioCaptureUnavailable"
	case ReasonPermissionDenied:
		return "PermissionDenied"
	case ReasonNetwork:
		return "Network"
	}
	return "Other(" + r.Code + ")"
}

// Message is the user-facing explanation of the failure.
func (r Reason) Message() string {
	switch r.Kind {
	case ReasonNoSpeech:
		return "No speech was detected. Please try again."
	case ReasonAudioCaptureUnavailable:
		return "No microphone or audio source is available."
	case ReasonPermissionDenied:
		return "Microphone access was denied."
	case ReasonNetwork:
		return "Speech recognition failed because of a network error."
	}
	if r.Code == "" {
		return "Speech recognition failed."
	}
	return "Speech recognition failed: " + r.Code
}
