package bwroute

import (
	"context"
	"maps"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/basewarphq/bwfn/bwlog"
	"github.com/basewarphq/bwfn/bwvalid"
	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/basewarphq/bwfn/bwroute"

type route struct {
	method     string
	pattern    *Pattern
	handler    Handler
	pathSchema bwvalid.Schema
	bodySchema bwvalid.Schema
}

// RouteInfo describes a registered route.
type RouteInfo struct {
	Method  string
	Pattern string
}

// Router dispatches API Gateway proxy events to the first registered route
// whose method and path match. Routes are never reordered: a greedy route
// registered before a more specific literal route shadows it.
type Router struct {
	routes []route
	logger *zap.Logger
	tracer trace.Tracer
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the logger used when the invocation context carries none.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Router) { r.logger = logger }
}

// WithTracerProvider sets the provider for the per-route span.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(r *Router) { r.tracer = tp.Tracer(instrumentationName) }
}

// New creates an empty router.
func New(opts ...Option) *Router {
	r := &Router{tracer: noop.NewTracerProvider().Tracer(instrumentationName)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RouteOption configures a single route.
type RouteOption func(*route)

// WithPathSchema validates the merged path parameters before the handler
// runs. The validated value is available as Request.PathValue.
func WithPathSchema(schema bwvalid.Schema) RouteOption {
	return func(rt *route) { rt.pathSchema = schema }
}

// WithBodySchema validates the JSON body before the handler runs. The
// validated value is available as Request.BodyValue.
func WithBodySchema(schema bwvalid.Schema) RouteOption {
	return func(rt *route) { rt.bodySchema = schema }
}

// Handle registers a route. The path pattern uses {name} for one segment and
// {name+} as the last segment for the remainder of the path.
func (r *Router) Handle(method, path string, h Handler, opts ...RouteOption) error {
	if method == "" {
		return errors.Newf("route %q: empty method", path)
	}
	if h == nil {
		return errors.Newf("route %s %q: nil handler", method, path)
	}
	pat, err := ParsePattern(path)
	if err != nil {
		return err
	}

	rt := route{method: strings.ToUpper(method), pattern: pat, handler: h}
	for _, opt := range opts {
		opt(&rt)
	}
	r.routes = append(r.routes, rt)
	return nil
}

// MustHandle is like Handle but panics on a malformed route.
func (r *Router) MustHandle(method, path string, h Handler, opts ...RouteOption) {
	if err := r.Handle(method, path, h, opts...); err != nil {
		panic(err)
	}
}

func (r *Router) GET(path string, h Handler, opts ...RouteOption) {
	r.MustHandle(http.MethodGet, path, h, opts...)
}

func (r *Router) POST(path string, h Handler, opts ...RouteOption) {
	r.MustHandle(http.MethodPost, path, h, opts...)
}

func (r *Router) PUT(path string, h Handler, opts ...RouteOption) {
	r.MustHandle(http.MethodPut, path, h, opts...)
}

func (r *Router) PATCH(path string, h Handler, opts ...RouteOption) {
	r.MustHandle(http.MethodPatch, path, h, opts...)
}

func (r *Router) DELETE(path string, h Handler, opts ...RouteOption) {
	r.MustHandle(http.MethodDelete, path, h, opts...)
}

// Routes lists the registered routes in matching order.
func (r *Router) Routes() []RouteInfo {
	infos := make([]RouteInfo, len(r.routes))
	for i, rt := range r.routes {
		infos[i] = RouteInfo{Method: rt.method, Pattern: rt.pattern.String()}
	}
	return infos
}

// Route handles one API Gateway proxy event. It never returns an error:
// every failure is converted into a response. The signature matches what
// lambda.Start expects.
func (r *Router) Route(ctx context.Context, ev events.APIGatewayProxyRequest) (resp Response, _ error) {
	ctx = bwlog.EnsureScope(ctx)
	if r.logger != nil && !bwlog.HasLogger(ctx) {
		ctx = bwlog.WithLogger(ctx, r.logger)
	}

	defer func() {
		if rec := recover(); rec != nil {
			resp = r.fail(ctx, errors.Newf("panic in handler: %v", rec))
		}
	}()

	resp, err := r.dispatch(ctx, ev)
	if err != nil {
		return r.fail(ctx, err), nil
	}
	return resp, nil
}

func (r *Router) dispatch(ctx context.Context, ev events.APIGatewayProxyRequest) (Response, error) {
	method := strings.ToUpper(ev.HTTPMethod)
	for _, rt := range r.routes {
		if rt.method != method {
			continue
		}
		params, ok := rt.pattern.Match(ev.Path)
		if !ok {
			continue
		}
		return r.serve(ctx, rt, ev, params)
	}
	return Response{}, NotFound()
}

func (r *Router) serve(
	ctx context.Context, rt route, ev events.APIGatewayProxyRequest, params map[string]string,
) (Response, error) {
	ctx, span := r.tracer.Start(ctx, rt.method+" "+rt.pattern.String(), trace.WithAttributes(
		attribute.String("http.request.method", rt.method),
		attribute.String("http.route", rt.pattern.String()),
		attribute.String("url.path", ev.Path),
	))
	defer span.End()

	merged := make(map[string]string, len(ev.PathParameters)+len(params))
	maps.Copy(merged, ev.PathParameters)
	maps.Copy(merged, params)
	ev.PathParameters = merged

	req := &Request{APIGatewayProxyRequest: ev}
	if err := r.validate(ctx, rt, req); err != nil {
		return Response{}, err
	}

	resp, err := rt.handler(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, KindOf(err).String())
		return Response{}, err
	}
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	return resp, nil
}

// validate runs the path schema then the body schema, collecting the issues
// of both before deciding. A body that is missing or not JSON, with no other
// issue, gets a plain 400 message.
func (r *Router) validate(ctx context.Context, rt route, req *Request) error {
	var issues bwvalid.Issues

	if rt.pathSchema != nil {
		val, pathIssues, err := rt.pathSchema.Validate(ctx, bwvalid.PathParams(req.PathParameters))
		if err != nil {
			return errors.Wrap(err, "validate path parameters")
		}
		issues = append(issues, pathIssues.In("path")...)
		req.PathValue = val
	}

	if rt.bodySchema != nil {
		body, err := req.RawBody()
		if err != nil {
			return err
		}
		val, bodyIssues, err := bwvalid.ParseBody(ctx, rt.bodySchema, body)
		if err != nil {
			return err
		}
		issues = append(issues, bodyIssues.In("body")...)
		req.BodyValue = val
	}

	if msg, ok := bodyReadFailure(issues); ok {
		return BadRequest(msg)
	}
	if len(issues) > 0 {
		return Invalid(issues)
	}
	return nil
}

func (r *Router) fail(ctx context.Context, err error) Response {
	resp := responseFor(err)
	log := bwlog.Log(ctx)
	if resp.StatusCode >= http.StatusInternalServerError {
		// zap adds the %+v form, including the stack, as errorVerbose.
		log.Error("request failed", zap.Error(err))
	} else {
		log.Info("request rejected", zap.Int("status", resp.StatusCode), zap.Error(err))
	}
	return resp
}
