// Package telemetry reports anonymous CLI usage events to the UDICTI backend.
// Reporting is best-effort: nothing here can fail a command.
package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Sirily23/udicti-cli/internal/model"
)

// MaxTimeout caps a single event post.
const MaxTimeout = 3 * time.Second

// Event names emitted by the CLI.
const (
	EventCLIStartup          = "cli_startup"
	EventWelcomeShown        = "welcome_shown"
	EventOnboardingStarted   = "onboarding_started"
	EventOnboardingCompleted = "onboarding_completed"
	EventOnboardingFailed    = "onboarding_failed"
	EventDevelopersShown     = "developers_shown"
	EventSyncCompleted       = "sync_completed"
)

// Config configures an Emitter.
type Config struct {
	// Enabled controls whether events are sent at all.
	Enabled bool

	// BaseURL is the API root; events go to BaseURL + "/log".
	BaseURL string

	// Source tags every event ("cli" or "web").
	Source string

	// Timeout bounds each post; values above MaxTimeout are capped.
	Timeout time.Duration

	// Logger receives send failures at debug level.
	Logger *slog.Logger
}

// Emitter sends events in the background. A nil or disabled Emitter is a valid no-op.
type Emitter struct {
	endpoint   string
	source     string
	enabled    bool
	timeout    time.Duration
	httpClient *http.Client
	logger     *slog.Logger
	now        func() time.Time

	mu      sync.Mutex // guards flushed and wg.Add
	flushed bool
	wg      sync.WaitGroup
}

// New creates an Emitter from configuration.
func New(cfg Config) *Emitter {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if !cfg.Enabled || cfg.BaseURL == "" {
		return &Emitter{enabled: false, logger: logger}
	}

	timeout := cfg.Timeout
	if timeout <= 0 || timeout > MaxTimeout {
		timeout = MaxTimeout
	}
	source := cfg.Source
	if source == "" {
		source = model.SourceCLI
	}

	return &Emitter{
		endpoint:   strings.TrimRight(cfg.BaseURL, "/") + "/log",
		source:     source,
		enabled:    true,
		timeout:    timeout,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		now:        time.Now,
	}
}

// Enabled reports whether events will be sent.
func (e *Emitter) Enabled() bool {
	return e != nil && e.enabled
}

// Emit records an event and sends it on a background goroutine.
// It has no failure mode: errors and panics are contained and only logged at
// debug level. Safe to call from any path, including error handling.
// Events emitted after Flush are dropped.
func (e *Emitter) Emit(event string, data map[string]any) {
	if !e.Enabled() {
		return
	}

	rec := e.newEvent(event, data)

	e.mu.Lock()
	if e.flushed {
		e.mu.Unlock()
		e.logger.Debug("telemetry already flushed, dropping event", "event", rec.Event)
		return
	}
	e.wg.Add(1)
	e.mu.Unlock()

	go func() {
		defer e.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				e.logger.Debug("telemetry send panicked", "event", rec.Event, "panic", r)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
		defer cancel()

		if err := e.post(ctx, rec); err != nil {
			e.logger.Debug("telemetry send failed", "event", rec.Event, "err", err)
		}
	}()
}

// Flush waits at most grace for in-flight events so a short-lived process has
// a chance to deliver them. Undelivered events are dropped. Flush is terminal:
// the Emitter accepts no further events.
func (e *Emitter) Flush(grace time.Duration) {
	if !e.Enabled() {
		return
	}

	e.mu.Lock()
	e.flushed = true
	e.mu.Unlock()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(grace)
	defer timer.Stop()
	select {
	case <-done:
	case <-timer.C:
	}
}

func (e *Emitter) newEvent(event string, data map[string]any) model.Event {
	payload := make(map[string]any, len(data))
	for k, v := range data {
		payload[k] = v
	}
	return model.Event{
		ID:        uuid.NewString(),
		Event:     event,
		Timestamp: e.now().UTC(),
		Source:    e.source,
		Data:      payload,
	}
}

// post sends one event. The response body is ignored.
func (e *Emitter) post(ctx context.Context, rec model.Event) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending event: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("backend returned status %d", resp.StatusCode)
	}
	return nil
}
