package middleware

import (
	"zilean/internal/observability"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// TracingMiddleware opens a server span per request, continuing any trace
// context propagated by the caller, and echoes the trace ID back in the
// X-Trace-ID header so clients can quote it in bug reports.
func TracingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := otel.GetTextMapPropagator().Extract(
			c.UserContext(), propagation.HeaderCarrier(c.GetReqHeaders()))

		ctx, span := observability.Tracer.Start(ctx, c.Method()+" "+c.Path(),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(requestAttributes(c)...),
		)
		defer span.End()

		traceID := span.SpanContext().TraceID().String()
		c.Locals("traceID", traceID)
		c.Set("X-Trace-ID", traceID)
		c.SetUserContext(ctx)

		err := c.Next()
		finishSpan(c, span, err)
		return err
	}
}

// requestAttributes tags the span with the request metadata available before
// the handler runs. The requestid middleware has already run at this point.
func requestAttributes(c *fiber.Ctx) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("http.method", c.Method()),
		attribute.String("http.path", c.Path()),
		attribute.String("http.url", c.OriginalURL()),
		attribute.String("http.ip", c.IP()),
		attribute.String("http.user_agent", c.Get("User-Agent")),
	}
	if rid, ok := c.Locals("requestid").(string); ok {
		attrs = append(attrs, attribute.String("request.id", rid))
	}
	return attrs
}

// finishSpan records what only became known after the handler ran: the
// response status, the principal the session middleware resolved, and any
// handler error.
func finishSpan(c *fiber.Ctx, span trace.Span, err error) {
	span.SetAttributes(attribute.Int("http.status_code", c.Response().StatusCode()))
	if uid, ok := c.Locals("userID").(uint); ok {
		span.SetAttributes(attribute.Int64("user.id", int64(uid)))
	}
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String("error", err.Error()))
	}
}
