// Package usage estimates token usage per generation and records it best-effort.
package usage

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"studybuddy/internal/domain"
	"studybuddy/internal/port"
)

// TrackerConfig holds settings for the usage tracker.
type TrackerConfig struct {
	CostPerToken float64
	Timeout      time.Duration
	Concurrency  int
}

// Tracker records usage rows in the background. Track never blocks the caller
// and never reports an error; failures are only logged.
type Tracker struct {
	recorder port.UsageRecorder
	cfg      TrackerConfig
	log      zerolog.Logger
	sem      chan struct{}

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewTracker creates a Tracker writing through recorder.
func NewTracker(recorder port.UsageRecorder, cfg TrackerConfig, log zerolog.Logger) *Tracker {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 16
	}
	return &Tracker{
		recorder: recorder,
		cfg:      cfg,
		log:      log.With().Str("component", "usage").Logger(),
		sem:      make(chan struct{}, cfg.Concurrency),
	}
}

// EstimateTokens approximates the token count of a reply at four characters per token.
func EstimateTokens(reply string) int {
	n := len(reply) / 4
	if n < 1 {
		return 1
	}
	return n
}

// Track estimates usage for reply and records it asynchronously. Anonymous
// callers are skipped. When too many writes are already in flight the record
// is dropped, as is anything tracked after Close.
func (t *Tracker) Track(userID, function, reply string) {
	if userID == "" {
		return
	}
	tokens := EstimateTokens(reply)
	rec := domain.UsageRecord{
		UserID:        userID,
		FunctionName:  function,
		TokensUsed:    tokens,
		CostEstimated: float64(tokens) * t.cfg.CostPerToken,
		CreatedAt:     time.Now().UTC(),
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		t.log.Warn().Str("function", function).Msg("usage log dropped: tracker closed")
		return
	}
	select {
	case t.sem <- struct{}{}:
	default:
		t.mu.Unlock()
		t.log.Warn().Str("function", function).Msg("usage log dropped: too many in flight")
		return
	}
	t.wg.Add(1)
	t.mu.Unlock()

	go func() {
		defer t.wg.Done()
		defer func() { <-t.sem }()

		// Fresh context so the write outlives the request that triggered it.
		ctx, cancel := context.WithTimeout(context.Background(), t.cfg.Timeout)
		defer cancel()

		if err := t.recorder.Record(ctx, rec); err != nil {
			t.log.Warn().Err(err).Str("function", function).Msg("ai_usage log failed")
		}
	}()
}

// Wait blocks until all in-flight writes have finished.
func (t *Tracker) Wait() {
	t.wg.Wait()
}

// Close stops accepting records and waits for in-flight writes. Requests that
// outlive server shutdown are not recorded.
func (t *Tracker) Close() {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()
	t.wg.Wait()
}
