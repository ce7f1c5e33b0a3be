// Package bwqueue processes the records of an SQS-triggered invocation one at
// a time, in order.
//
// [Batch.Handle] has all-or-nothing semantics: the first record whose handler
// fails stops the batch, and the error is returned so that Lambda redelivers
// the whole batch. Records before the failing one are processed again on
// redelivery, so every [RecordHandler] must be idempotent.
//
// [Batch.HandleReport] is the opt-in alternative for event source mappings
// that enable ReportBatchItemFailures. It keeps going after a failure and
// reports the failed message IDs, so only those are redelivered.
//
// Each record runs in its own logging scope seeded with the message ID, so
// tags added while handling one record never show up in the log lines of the
// next.
package bwqueue

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"github.com/basewarphq/bwfn/bwlog"
	"github.com/basewarphq/bwfn/bwtrace"
	"github.com/basewarphq/bwfn/bwvalid"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// RecordHandler handles one queue record. services is the dependency bag
// built once per cold start.
type RecordHandler[S any] func(ctx context.Context, msg events.SQSMessage, services S) error

type options struct {
	logger *zap.Logger
	trace  []bwtrace.Option
}

// Option configures a Batch.
type Option func(*options)

// WithLogger sets the logger used when the invocation context carries none.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithTrace adds options for the tracing wrapper around the record handler.
// The parameters are named "record" and "services" unless overridden here.
func WithTrace(opts ...bwtrace.Option) Option {
	return func(o *options) { o.trace = append(o.trace, opts...) }
}

// Batch runs a RecordHandler over every record of an SQS event.
type Batch[S any] struct {
	services S
	handle   func(context.Context, events.SQSMessage, S) error
	logger   *zap.Logger
}

// New creates a Batch that passes services to every invocation of h.
func New[S any](services S, h RecordHandler[S], opts ...Option) *Batch[S] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	traceOpts := append([]bwtrace.Option{bwtrace.WithParams("record", "services")}, o.trace...)
	return &Batch[S]{
		services: services,
		handle:   bwtrace.WrapErr2[events.SQSMessage, S](h, traceOpts...),
		logger:   o.logger,
	}
}

// Handle processes the records in order and stops at the first failure,
// returning its error unchanged. An empty batch succeeds.
func (b *Batch[S]) Handle(ctx context.Context, ev events.SQSEvent) error {
	ctx = b.withLogger(ctx)
	for _, msg := range ev.Records {
		if err := b.process(ctx, msg); err != nil {
			return err
		}
	}
	return nil
}

// HandleReport processes every record and reports the ones that failed.
// The returned error is always nil; failures are reported per item.
func (b *Batch[S]) HandleReport(ctx context.Context, ev events.SQSEvent) (events.SQSEventResponse, error) {
	ctx = b.withLogger(ctx)
	var resp events.SQSEventResponse
	for _, msg := range ev.Records {
		if err := b.process(ctx, msg); err != nil {
			resp.BatchItemFailures = append(resp.BatchItemFailures, events.SQSBatchItemFailure{
				ItemIdentifier: msg.MessageId,
			})
		}
	}
	return resp, nil
}

func (b *Batch[S]) withLogger(ctx context.Context) context.Context {
	if b.logger == nil || bwlog.HasLogger(ctx) {
		return ctx
	}
	return bwlog.WithLogger(ctx, b.logger)
}

func (b *Batch[S]) process(ctx context.Context, msg events.SQSMessage) (err error) {
	ctx = bwlog.NewScope(ctx)
	bwlog.AddContext(ctx, msg.MessageId)

	defer func() {
		if rec := recover(); rec != nil {
			err = errors.Newf("panic in record handler: %v", rec)
		}
		if err != nil {
			bwlog.Log(ctx).Error("record failed",
				zap.String("message_id", msg.MessageId), zap.Error(err))
		}
	}()

	return b.handle(ctx, msg, b.services)
}

// DecodeJSON validates the body of msg with schema and returns the typed
// value. A nil schema decodes into T using its validate tags.
func DecodeJSON[T any](ctx context.Context, msg events.SQSMessage, schema bwvalid.Schema) (T, error) {
	var zero T
	if schema == nil {
		schema = bwvalid.Struct[T]()
	}

	val, issues, err := bwvalid.ParseBody(ctx, schema, msg.Body)
	if err != nil {
		return zero, errors.Wrapf(err, "decode message %s", msg.MessageId)
	}
	if len(issues) > 0 {
		return zero, errors.Wrapf(issues, "decode message %s", msg.MessageId)
	}

	out, ok := val.(T)
	if !ok {
		return zero, errors.AssertionFailedf("schema produced %T, want %T", val, zero)
	}
	return out, nil
}
