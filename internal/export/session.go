package export

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tmcpro/docusign-exporter/internal/config"
	"github.com/tmcpro/docusign-exporter/internal/dsapi"
	"github.com/tmcpro/docusign-exporter/internal/event"
	"go.uber.org/zap"
)

// Client is the API surface the session consumes. *dsapi.Client
// satisfies it; tests inject fakes.
type Client interface {
	ListEnvelopes(ctx context.Context, p dsapi.ListParams) ([]dsapi.Envelope, error)
	DownloadCombined(ctx context.Context, envelopeID string) (io.ReadCloser, error)
	DownloadArchive(ctx context.Context, envelopeID string) (io.ReadCloser, error)
}

// Outcome is the terminal result of one envelope download. Every
// envelope the downloader dispatches gets exactly one Outcome;
// envelopes skipped by cancellation get none.
type Outcome struct {
	EnvelopeID string
	OK         bool
	Bytes      int64
	Err        string
}

// Session owns one export run: the append-only envelope result set
// produced by discovery, the per-envelope outcomes produced by the
// downloader, and the shared cancellation flag.
type Session struct {
	cfg    *config.Config
	client Client
	bus    *event.Bus
	logger *zap.Logger

	cancelOnce sync.Once
	cancelled  atomic.Bool
	completed  atomic.Int64

	mu        sync.Mutex
	envelopes []dsapi.Envelope
	outcomes  []Outcome
}

// NewSession creates a session over a validated configuration.
func NewSession(cfg *config.Config, client Client, bus *event.Bus, logger *zap.Logger) *Session {
	return &Session{
		cfg:    cfg,
		client: client,
		bus:    bus,
		logger: logger,
	}
}

// Events returns the ordered lifecycle event stream for this session.
func (s *Session) Events() <-chan event.Event {
	return s.bus.Subscribe()
}

// Close closes the event stream. Call after the pipeline is done.
func (s *Session) Close() {
	s.bus.Close()
}

// Cancel sets the cancellation flag. Idempotent; never cleared.
// In-flight requests finish on their own terms, but no new page
// request or download chunk starts once the flag is set.
func (s *Session) Cancel() {
	s.cancelOnce.Do(func() {
		s.cancelled.Store(true)
		s.bus.Publish(event.NewCancelled())
		s.logger.Info("session cancelled")
	})
}

// Cancelled reports whether the cancellation flag is set.
func (s *Session) Cancelled() bool {
	return s.cancelled.Load()
}

// Envelopes returns a snapshot of the discovered result set.
func (s *Session) Envelopes() []dsapi.Envelope {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]dsapi.Envelope, len(s.envelopes))
	copy(out, s.envelopes)
	return out
}

// Outcomes returns a snapshot of all download outcomes.
func (s *Session) Outcomes() []Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Outcome, len(s.outcomes))
	copy(out, s.outcomes)
	return out
}

// Failures returns the outcomes of failed downloads.
func (s *Session) Failures() []Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	var failed []Outcome
	for _, o := range s.outcomes {
		if !o.OK {
			failed = append(failed, o)
		}
	}
	return failed
}

// Discover pages through envelopes in the inclusive date range and
// appends them to the session's result set. Re-invocation accumulates
// onto the same set. Cancellation mid-loop returns the partial set
// without error; an executor failure propagates without discarding
// what was already gathered.
func (s *Session) Discover(ctx context.Context, from, to time.Time) ([]dsapi.Envelope, error) {
	s.bus.Publish(event.NewSearchStarted(from, to))
	s.logger.Info("discovery started",
		zap.Time("from", from),
		zap.Time("to", to))

	// Offset advances by the size of each returned page, not by the
	// session-wide record count, so a short-but-nonterminal page
	// cannot skew later requests.
	offset := 0
	for {
		if s.cancelled.Load() {
			s.logger.Info("discovery cancelled", zap.Int("gathered", s.total()))
			return s.Envelopes(), nil
		}

		page, err := s.client.ListEnvelopes(ctx, dsapi.ListParams{
			From:          from,
			To:            to,
			StartPosition: offset,
			Count:         dsapi.PageSize,
		})
		if err != nil {
			return s.Envelopes(), err
		}

		s.mu.Lock()
		s.envelopes = append(s.envelopes, page...)
		total := len(s.envelopes)
		s.mu.Unlock()

		s.bus.Publish(event.NewPageFound(len(page), total))
		s.logger.Debug("page found",
			zap.Int("count", len(page)),
			zap.Int("total", total))

		// A short page signals exhaustion.
		if len(page) < dsapi.PageSize {
			break
		}
		offset += len(page)
	}

	s.logger.Info("discovery complete", zap.Int("total", s.total()))
	return s.Envelopes(), nil
}

func (s *Session) total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.envelopes)
}

func (s *Session) record(o Outcome) {
	s.mu.Lock()
	s.outcomes = append(s.outcomes, o)
	s.mu.Unlock()
}
