// Package tracing provides the otel tracer used to wrap compose, parse,
// and hybridSearch with spans (spec §4 Observability). It is a trimmed
// adaptation of the teacher's internal/observability.InitOTel: the
// OTLP/stdout exporter wiring is dropped (this module's go.mod only
// carries go.opentelemetry.io/otel's core and sdk packages, not the
// exporter packages the teacher's version pulls in), leaving a
// resource-tagged TracerProvider that samples and records spans in
// process. A real deployment attaches an exporter by calling
// SetTracerProvider with one built the same way the teacher does.
package tracing

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/neurobridge-labs/infobar-core/internal/config"
	"github.com/neurobridge-labs/infobar-core/internal/platform/logger"
)

const tracerName = "infobar-core"

var (
	initOnce sync.Once
	tp       *sdktrace.TracerProvider
)

// Init installs a sampling TracerProvider as the global otel provider.
// Safe to call more than once; only the first call takes effect.
func Init(log *logger.Logger) {
	initOnce.Do(func() {
		ratio := sampleRatio(log)
		tp = sdktrace.NewTracerProvider(
			sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
		)
		otel.SetTracerProvider(tp)
		if log != nil {
			log.Info("tracing initialized", "sampleRatio", ratio)
		}
	})
}

// Shutdown flushes and releases the installed TracerProvider, if any.
func Shutdown(ctx context.Context) {
	if tp != nil {
		_ = tp.Shutdown(ctx)
	}
}

// Start opens a span named "infobar.<op>" under the global tracer.
func Start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "infobar."+op, trace.WithAttributes(attrs...))
}

func sampleRatio(log *logger.Logger) float64 {
	raw := strings.TrimSpace(config.GetEnv("OTEL_SAMPLER_RATIO", "0.1", log))
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0.1
	}
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
