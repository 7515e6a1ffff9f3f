// Package dispatcher sends commands to the backend agentic endpoint.
package dispatcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Rorical/LawAgent/internal/models"
)

// CommandPath is the backend route every command is posted to.
const CommandPath = "/api/agentic-command"

const maxResponseBytes = 8 << 20

// TokenSource yields the bearer token for the current session, or "".
type TokenSource interface {
	Token() string
}

// Dispatcher posts commands to the backend and decodes their responses.
type Dispatcher struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	logger     *zap.Logger

	timeout    time.Duration
	hasTimeout bool
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(d *Dispatcher) {
		d.httpClient = c
	}
}

// WithTimeout sets a deadline on every request. Zero disables it. The client
// passed to WithHTTPClient is copied, never modified.
func WithTimeout(t time.Duration) Option {
	return func(d *Dispatcher) {
		d.timeout = t
		d.hasTimeout = true
	}
}

// WithLogger sets the request logger.
func WithLogger(l *zap.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = l
	}
}

// New creates a dispatcher for the backend at baseURL. Requests carry no
// deadline unless WithTimeout is given.
func New(baseURL string, tokens TokenSource, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{},
		tokens:     tokens,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.hasTimeout {
		client := *d.httpClient
		client.Timeout = d.timeout
		d.httpClient = &client
	}
	return d
}

type commandRequest struct {
	Command string `json:"command"`
}

// Dispatch sends cmd and returns the parsed response. It does not coalesce;
// interactive callers go through a Submitter.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd models.Command) (models.CommandResponse, error) {
	text := cmd.Text()
	if text == "" {
		return models.CommandResponse{}, ErrEmptyCommand
	}

	body, err := json.Marshal(commandRequest{Command: text})
	if err != nil {
		return models.CommandResponse{}, fmt.Errorf("marshal command: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+CommandPath, bytes.NewReader(body))
	if err != nil {
		return models.CommandResponse{}, &TransportError{Message: err.Error(), Err: err}
	}

	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	authed := false
	if d.tokens != nil {
		if token := d.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
			authed = true
		}
	}

	log := d.logger.With(zap.String("request_id", requestID))
	log.Debug("dispatching command", zap.Int("length", len(text)), zap.Bool("authenticated", authed))

	start := time.Now()
	resp, err := d.httpClient.Do(req)
	if err != nil {
		log.Warn("command request failed", zap.Error(err))
		return models.CommandResponse{}, &TransportError{Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return models.CommandResponse{}, &TransportError{Status: resp.StatusCode, Message: "read response: " + err.Error(), Err: err}
	}

	log.Debug("command response",
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("bytes", len(raw)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return models.CommandResponse{}, &TransportError{Status: resp.StatusCode, Message: errorMessage(raw, resp.Status)}
	}

	parsed, err := models.ParseCommandResponse(raw, text)
	if err != nil {
		log.Warn("malformed command response", zap.Error(err))
		return models.CommandResponse{}, &MalformedResponseError{Body: raw, Err: err}
	}
	return parsed, nil
}

// errorMessage pulls a human message out of an error body, falling back to
// the HTTP status line.
func errorMessage(body []byte, status string) string {
	var payload struct {
		Error   string `json:"error"`
		Detail  string `json:"detail"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, msg := range []string{payload.Error, payload.Detail, payload.Message} {
			if msg != "" {
				return msg
			}
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" && len(text) <= 200 && !strings.HasPrefix(text, "<") {
		return text
	}
	return status
}

// Submitter is one logical submitter (the command surface, a CLI run). It
// allows a single in-flight command; overlapping submissions from voice
// auto-submit and manual submit collapse into the first.
type Submitter struct {
	name       string
	dispatcher *Dispatcher
	pending    atomic.Bool
}

// NewSubmitter returns a submitter sharing d's transport.
func (d *Dispatcher) NewSubmitter(name string) *Submitter {
	return &Submitter{name: name, dispatcher: d}
}

// Submit dispatches cmd unless another command from this submitter is still
// in flight, in which case it returns ErrSubmissionPending immediately.
func (s *Submitter) Submit(ctx context.Context, cmd models.Command) (models.CommandResponse, error) {
	if !cmd.Valid() {
		return models.CommandResponse{}, ErrEmptyCommand
	}
	if !s.pending.CompareAndSwap(false, true) {
		s.dispatcher.logger.Debug("submission coalesced", zap.String("submitter", s.name))
		return models.CommandResponse{}, ErrSubmissionPending
	}
	defer s.pending.Store(false)

	return s.dispatcher.Dispatch(ctx, cmd)
}

// SubmitAsync reserves the submitter before returning and dispatches cmd in
// a new goroutine. done receives the outcome and runs before the
// reservation is released.
func (s *Submitter) SubmitAsync(ctx context.Context, cmd models.Command, done func(models.CommandResponse, error)) error {
	if !cmd.Valid() {
		return ErrEmptyCommand
	}
	if !s.pending.CompareAndSwap(false, true) {
		s.dispatcher.logger.Debug("submission coalesced", zap.String("submitter", s.name))
		return ErrSubmissionPending
	}

	go func() {
		defer s.pending.Store(false)
		resp, err := s.dispatcher.Dispatch(ctx, cmd)
		done(resp, err)
	}()
	return nil
}

// IsPending reports whether a command is in flight.
func (s *Submitter) IsPending() bool {
	return s.pending.Load()
}
