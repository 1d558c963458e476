// Package stream runs the line-oriented batch mode: one JSON document per
// input line, one sanitised document per output line, order preserved.
package stream

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/tweetwash/tweetwash/pkg/telemetry"
)

// Sanitiser transforms one JSON document. The returned string must always be
// valid JSON; a non-nil error reports a parse failure without invalidating
// the output. *sanitise.Sanitiser satisfies this.
type Sanitiser interface {
	Sanitise(doc string) (string, error)
}

// Stats summarises one batch run.
type Stats struct {
	Documents   int
	ParseErrors int
}

// Processor reads documents line by line and sanitises each independently.
// Documents are never reordered or buffered across lines, and one malformed
// line never aborts the batch.
//
// The active sanitiser can be swapped while a run is in progress (keep-file
// hot reload); each document sees exactly one sanitiser.
type Processor struct {
	mu      sync.RWMutex
	san     Sanitiser
	metrics *telemetry.StreamMetrics
}

// NewProcessor returns a Processor using the given sanitiser. metrics may be
// nil when no registry is configured.
func NewProcessor(san Sanitiser, metrics *telemetry.StreamMetrics) *Processor {
	return &Processor{san: san, metrics: metrics}
}

// Swap replaces the active sanitiser for subsequent documents.
func (p *Processor) Swap(san Sanitiser) {
	p.mu.Lock()
	p.san = san
	p.mu.Unlock()
}

func (p *Processor) current() Sanitiser {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.san
}

// Run processes in until EOF or context cancellation, writing one document
// per line to out. The returned error reports stream-level failures (read
// error, oversized line, write error, cancellation); per-document parse
// failures are emitted as error-object lines and counted instead.
func (p *Processor) Run(ctx context.Context, in io.Reader, out io.Writer) (Stats, error) {
	runID := uuid.NewString()
	tracer := otel.Tracer("tweetwash/stream")
	ctx, span := tracer.Start(ctx, "stream.run")
	span.SetAttributes(attribute.String("run.id", runID))
	defer span.End()

	var stats Stats

	scanner := bufio.NewScanner(in)
	// Support large documents (up to 10MB per line).
	buf := make([]byte, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	writer := bufio.NewWriter(out)
	defer writer.Flush()

	log.Debug().Str("run_id", runID).Msg("Batch run started")

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		start := time.Now()
		result, err := p.current().Sanitise(scanner.Text())
		elapsed := time.Since(start)

		stats.Documents++
		if p.metrics != nil {
			p.metrics.Documents.Inc()
			p.metrics.Duration.Observe(elapsed.Seconds())
		}
		if err != nil {
			stats.ParseErrors++
			if p.metrics != nil {
				p.metrics.ParseErrors.Inc()
			}
			log.Warn().Err(err).Str("run_id", runID).Int("line", stats.Documents).Msg("Document failed to parse, emitted error object")
		}

		if _, err := writer.WriteString(result); err != nil {
			return stats, fmt.Errorf("write output: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return stats, fmt.Errorf("write output: %w", err)
		}
	}

	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("read input: %w", err)
	}
	if err := writer.Flush(); err != nil {
		return stats, fmt.Errorf("flush output: %w", err)
	}

	span.SetAttributes(
		attribute.Int("documents.total", stats.Documents),
		attribute.Int("documents.parse_errors", stats.ParseErrors),
	)
	log.Debug().Str("run_id", runID).Int("documents", stats.Documents).Int("parse_errors", stats.ParseErrors).Msg("Batch run finished")

	return stats, nil
}
