package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestInitWritesJSONWithServiceFields(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "parking-test", "test")
	t.Cleanup(func() { logger = nil })

	Info(context.Background(), "ticket generated", "spot", 1)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "ticket generated", line["msg"])
	assert.Equal(t, "parking-test", line["service"])
	assert.Equal(t, "test", line["environment"])
	assert.EqualValues(t, 1, line["spot"])
}

func TestDebugOnlyInDevelopment(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "parking-test", "production")
	t.Cleanup(func() { logger = nil })

	Debug(context.Background(), "hidden")
	assert.Empty(t, buf.String())

	InitWithWriter(&buf, "parking-test", "development")
	Debug(context.Background(), "shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestWithContextAddsTraceIDs(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "parking-test", "test")
	t.Cleanup(func() { logger = nil })

	tp := sdktrace.NewTracerProvider()
	defer tp.Shutdown(context.Background())

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	Warn(ctx, "traced")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, span.SpanContext().TraceID().String(), line["traceId"])
	assert.Equal(t, span.SpanContext().SpanID().String(), line["spanId"])
}

// memoryExporter keeps the bodies of exported log records.
type memoryExporter struct {
	mu     sync.Mutex
	bodies []string
}

func (e *memoryExporter) Export(_ context.Context, records []sdklog.Record) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, r := range records {
		e.bodies = append(e.bodies, r.Body().AsString())
	}
	return nil
}

func (e *memoryExporter) Shutdown(context.Context) error   { return nil }
func (e *memoryExporter) ForceFlush(context.Context) error { return nil }

func (e *memoryExporter) Bodies() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.bodies...)
}

func TestRecordsReachLoggerProvider(t *testing.T) {
	exporter := &memoryExporter{}
	lp := sdklog.NewLoggerProvider(sdklog.WithProcessor(sdklog.NewSimpleProcessor(exporter)))
	global.SetLoggerProvider(lp)
	t.Cleanup(func() {
		_ = lp.Shutdown(context.Background())
		logger = nil
	})

	var buf bytes.Buffer
	InitWithWriter(&buf, "parking-test", "test")

	Info(context.Background(), "ticket closed", "ticket", 7)

	assert.Equal(t, []string{"ticket closed"}, exporter.Bodies())
	assert.Contains(t, buf.String(), "ticket closed")
}
