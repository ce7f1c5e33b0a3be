package bwlog_test

import (
	"context"
	"sync"
	"testing"

	"github.com/basewarphq/bwfn/bwlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observed(t *testing.T) (context.Context, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	return bwlog.WithLogger(context.Background(), zap.New(core)), logs
}

func TestAddContext_AppearsInLaterLines(t *testing.T) {
	t.Parallel()
	ctx, logs := observed(t)
	ctx = bwlog.NewScope(ctx)

	bwlog.Printf(ctx, "before")
	bwlog.AddContext(ctx, "A-S001")
	bwlog.AddContext(ctx, "price-rise")
	bwlog.Printf(ctx, "after %d", 2)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "before", entries[0].Message)
	assert.Equal(t, "A-S001 price-rise after 2", entries[1].Message)
}

func TestAddContext_VisibleToCaller(t *testing.T) {
	t.Parallel()
	ctx, logs := observed(t)
	ctx = bwlog.NewScope(ctx)

	callee := func(ctx context.Context) { bwlog.AddContext(ctx, "sub-1") }
	callee(ctx)
	bwlog.Log(ctx).Info("done")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, []any{"sub-1"}, entries[0].ContextMap()["context"])
}

func TestNewScope_Isolates(t *testing.T) {
	t.Parallel()
	ctx, logs := observed(t)

	first := bwlog.NewScope(ctx)
	bwlog.AddContext(first, "X")

	second := bwlog.NewScope(ctx)
	bwlog.Printf(second, "hello")

	assert.Empty(t, bwlog.Tags(second))
	assert.Equal(t, []string{"X"}, bwlog.Tags(first))
	assert.NotContains(t, logs.All()[0].Message, "X")
}

func TestAddContext_WithoutScope(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	bwlog.AddContext(ctx, "dropped")
	assert.Empty(t, bwlog.Tags(ctx))
}

func TestTags_ReturnsCopy(t *testing.T) {
	t.Parallel()
	ctx := bwlog.NewScope(context.Background())
	bwlog.AddContext(ctx, "a")

	tags := bwlog.Tags(ctx)
	tags[0] = "mutated"
	assert.Equal(t, []string{"a"}, bwlog.Tags(ctx))
}

func TestScope_ConcurrentAdds(t *testing.T) {
	t.Parallel()
	ctx := bwlog.NewScope(context.Background())

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bwlog.AddContext(ctx, "t")
		}()
	}
	wg.Wait()
	assert.Len(t, bwlog.Tags(ctx), 50)
}

func TestLog_NoLoggerIsNop(t *testing.T) {
	t.Parallel()
	assert.NotPanics(t, func() {
		bwlog.Log(context.Background()).Info("nothing")
		bwlog.Printf(context.Background(), "nothing")
	})
}

func TestErrorf_TraceCorrelation(t *testing.T) {
	t.Parallel()
	ctx, logs := observed(t)
	ctx = bwlog.NewScope(ctx)

	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	ctx, span := tp.Tracer("test").Start(ctx, "op")
	bwlog.AddContext(ctx, "rec-1")
	bwlog.Errorf(ctx, "failed: %s", "boom")
	span.End()

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Equal(t, "rec-1 failed: boom", entries[0].Message)
	assert.Equal(t, span.SpanContext().TraceID().String(), entries[0].ContextMap()["trace_id"])

	ended := rec.Ended()
	require.Len(t, ended, 1)
	require.Len(t, ended[0].Events(), 1)
	assert.Equal(t, "exception", ended[0].Events()[0].Name)
}

func TestEnsureScope(t *testing.T) {
	t.Parallel()
	ctx := bwlog.NewScope(context.Background())
	bwlog.AddContext(ctx, "kept")
	assert.Equal(t, []string{"kept"}, bwlog.Tags(bwlog.EnsureScope(ctx)))

	fresh := bwlog.EnsureScope(context.Background())
	bwlog.AddContext(fresh, "new")
	assert.Equal(t, []string{"new"}, bwlog.Tags(fresh))
}
