package presenter

import (
	"fmt"
	"io"
	"os"

	"github.com/inhies/go-bytesize"
	"github.com/schollz/progressbar/v3"
	"github.com/tmcpro/docusign-exporter/internal/event"
	"github.com/tmcpro/docusign-exporter/internal/export"
	"go.uber.org/zap"
)

// Presenter renders the session's event stream on the terminal. It is
// the only consumer of the event channel; the pipeline never blocks on
// rendering beyond the channel buffer.
type Presenter struct {
	logger *zap.Logger
	out    io.Writer
	bar    *progressbar.ProgressBar

	total        int
	succeeded    int
	failed       int
	tokenExpired bool
	done         chan struct{}
}

// New creates a presenter writing to stderr.
func New(logger *zap.Logger) *Presenter {
	return NewWithWriter(logger, os.Stderr)
}

// NewWithWriter creates a presenter with an explicit writer (tests).
func NewWithWriter(logger *zap.Logger, out io.Writer) *Presenter {
	return &Presenter{
		logger: logger,
		out:    out,
		done:   make(chan struct{}),
	}
}

// Run consumes events until the channel closes. Call in a goroutine;
// Done is closed when the stream ends.
func (p *Presenter) Run(events <-chan event.Event) {
	defer close(p.done)
	for e := range events {
		p.handle(e)
	}
}

// Done is closed once the event stream has been fully consumed.
func (p *Presenter) Done() <-chan struct{} {
	return p.done
}

// TokenExpired reports whether the run hit an expired session token.
func (p *Presenter) TokenExpired() bool {
	return p.tokenExpired
}

// Failed returns the number of failed downloads observed.
func (p *Presenter) Failed() int {
	return p.failed
}

func (p *Presenter) handle(e event.Event) {
	switch ev := e.(type) {
	case event.SearchStarted:
		p.logger.Info("searching envelopes",
			zap.Time("from", ev.From),
			zap.Time("to", ev.To))

	case event.PageFound:
		p.total = ev.Total
		p.logger.Info("envelopes discovered",
			zap.Int("page", ev.Count),
			zap.Int("total", ev.Total))

	case event.DownloadStarted:
		if p.bar == nil && p.total > 0 {
			p.bar = progressbar.NewOptions(p.total,
				progressbar.OptionSetWriter(p.out),
				progressbar.OptionSetDescription("downloading"),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)
		}

	case event.DownloadProgress:
		p.succeeded++
		if p.bar != nil {
			p.bar.Add(1)
		}

	case event.DownloadFailed:
		p.failed++
		if p.bar != nil {
			p.bar.Add(1)
		}
		p.logger.Warn("download failed",
			zap.String("envelope_id", ev.EnvelopeID),
			zap.String("error", ev.Error))

	case event.Retrying:
		p.logger.Warn("retrying request",
			zap.Int("attempt", ev.Attempt),
			zap.Duration("delay", ev.Delay),
			zap.String("cause", ev.Cause))

	case event.TokenExpired:
		p.tokenExpired = true
		p.logger.Error("session token expired, reauthentication required")

	case event.BatchComplete:
		if p.bar != nil {
			p.bar.Finish()
		}
		p.logger.Info("export complete",
			zap.Int("downloaded", ev.Total),
			zap.Int("discovered", p.total))

	case event.Cancelled:
		p.logger.Info("export cancelled, finishing in-flight downloads")
	}
}

// Summarize prints the end-of-run report. Partial failures are listed
// but never fail the process.
func (p *Presenter) Summarize(outcomes []export.Outcome) {
	var total int64
	var failures []export.Outcome
	for _, o := range outcomes {
		if o.OK {
			total += o.Bytes
		} else {
			failures = append(failures, o)
		}
	}

	fmt.Fprintf(p.out, "downloaded %d of %d envelopes (%s)\n",
		len(outcomes)-len(failures), len(outcomes), bytesize.New(float64(total)))

	for _, f := range failures {
		fmt.Fprintf(p.out, "  failed %s: %s\n", f.EnvelopeID, f.Err)
	}

	if p.tokenExpired {
		fmt.Fprintln(p.out, "session token expired: re-authenticate and run again")
	}
}
