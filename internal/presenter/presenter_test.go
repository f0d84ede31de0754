package presenter

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/tmcpro/docusign-exporter/internal/event"
	"github.com/tmcpro/docusign-exporter/internal/export"
	"go.uber.org/zap"
)

func runPresenter(t *testing.T, events []event.Event) (*Presenter, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	p := NewWithWriter(zap.NewNop(), &buf)

	bus := event.NewBus()
	go p.Run(bus.Subscribe())
	for _, e := range events {
		bus.Publish(e)
	}
	bus.Close()

	select {
	case <-p.Done():
	case <-time.After(time.Second):
		t.Fatal("presenter did not drain the event stream")
	}
	return p, &buf
}

func TestPresenterCountsOutcomes(t *testing.T) {
	p, _ := runPresenter(t, []event.Event{
		event.NewSearchStarted(time.Now(), time.Now()),
		event.NewPageFound(3, 3),
		event.NewDownloadStarted("env-1"),
		event.NewDownloadProgress("env-1", 33.3),
		event.NewDownloadStarted("env-2"),
		event.NewDownloadFailed("env-2", "api error 500"),
		event.NewDownloadStarted("env-3"),
		event.NewDownloadProgress("env-3", 66.6),
		event.NewBatchComplete(2),
	})

	if p.Failed() != 1 {
		t.Errorf("Failed() = %d, want 1", p.Failed())
	}
	if p.TokenExpired() {
		t.Error("TokenExpired() = true without a token.expired event")
	}
}

func TestPresenterTokenExpired(t *testing.T) {
	p, _ := runPresenter(t, []event.Event{
		event.NewTokenExpired(),
	})

	if !p.TokenExpired() {
		t.Error("TokenExpired() = false after token.expired event")
	}
}

func TestSummarize(t *testing.T) {
	p, buf := runPresenter(t, nil)

	p.Summarize([]export.Outcome{
		{EnvelopeID: "env-1", OK: true, Bytes: 1 << 20},
		{EnvelopeID: "env-2", OK: false, Err: "network error: connection refused"},
	})

	out := buf.String()
	if !strings.Contains(out, "downloaded 1 of 2 envelopes") {
		t.Errorf("summary missing counts: %q", out)
	}
	if !strings.Contains(out, "1.00MB") {
		t.Errorf("summary missing byte size: %q", out)
	}
	if !strings.Contains(out, "failed env-2: network error") {
		t.Errorf("summary missing failure line: %q", out)
	}
}
