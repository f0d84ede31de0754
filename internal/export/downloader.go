package export

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/tmcpro/docusign-exporter/internal/config"
	"github.com/tmcpro/docusign-exporter/internal/dsapi"
	"github.com/tmcpro/docusign-exporter/internal/event"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// DownloadAll downloads every discovered envelope in chunks of the
// configured parallel bound. Chunks run strictly in sequence; within a
// chunk all downloads run concurrently and the chunk joins before the
// next one starts. The cancellation flag is checked before each chunk;
// envelopes in skipped chunks receive no Outcome. A single envelope's
// failure never aborts its chunk or later chunks. The final event of
// the batch is always batch.complete with the success count.
func (s *Session) DownloadAll(ctx context.Context) []Outcome {
	envelopes := s.Envelopes()
	total := len(envelopes)

	for start := 0; start < total; start += s.cfg.MaxParallel {
		if s.cancelled.Load() {
			s.logger.Info("batch cancelled",
				zap.Int("remaining", total-start))
			break
		}

		end := start + s.cfg.MaxParallel
		if end > total {
			end = total
		}
		chunk := envelopes[start:end]

		var wg sync.WaitGroup
		for _, env := range chunk {
			wg.Add(1)
			go func(env dsapi.Envelope) {
				defer wg.Done()
				s.downloadOne(ctx, env, total)
			}(env)
		}
		wg.Wait()
	}

	succeeded := 0
	outcomes := s.Outcomes()
	for _, o := range outcomes {
		if o.OK {
			succeeded++
		}
	}

	s.bus.Publish(event.NewBatchComplete(succeeded))
	s.logger.Info("batch complete",
		zap.Int("succeeded", succeeded),
		zap.Int("failed", len(outcomes)-succeeded),
		zap.Int("discovered", total))

	return outcomes
}

// downloadOne streams one envelope's documents to disk and records
// exactly one terminal Outcome for it.
func (s *Session) downloadOne(ctx context.Context, env dsapi.Envelope, total int) {
	s.bus.Publish(event.NewDownloadStarted(env.EnvelopeID))

	n, err := s.fetch(ctx, env.EnvelopeID)
	if err != nil {
		s.record(Outcome{EnvelopeID: env.EnvelopeID, Err: err.Error()})
		s.bus.Publish(event.NewDownloadFailed(env.EnvelopeID, err.Error()))
		s.logger.Warn("download failed",
			zap.String("envelope_id", env.EnvelopeID),
			zap.Error(err))
		return
	}

	done := s.completed.Add(1)
	percent := float64(done) / float64(total) * 100
	s.record(Outcome{EnvelopeID: env.EnvelopeID, OK: true, Bytes: n})
	s.bus.Publish(event.NewDownloadProgress(env.EnvelopeID, percent))
	s.logger.Debug("download complete",
		zap.String("envelope_id", env.EnvelopeID),
		zap.Int64("bytes", n))
}

// fetch streams the document body for one envelope into its output
// file. On any failure the partial file is removed.
func (s *Session) fetch(ctx context.Context, envelopeID string) (int64, error) {
	var body io.ReadCloser
	var err error
	ext := ".pdf"
	if s.cfg.OutputMode == config.ModeIndividual {
		body, err = s.client.DownloadArchive(ctx, envelopeID)
		ext = ".zip"
	} else {
		body, err = s.client.DownloadCombined(ctx, envelopeID)
	}
	if err != nil {
		return 0, err
	}
	defer body.Close()

	path := filepath.Join(s.cfg.OutputDir, envelopeID+ext)
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(f, body)
	err = multierr.Append(err, f.Close())
	if err != nil {
		os.Remove(path)
		return 0, err
	}

	return n, nil
}
