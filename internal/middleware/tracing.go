package middleware

import (
	"strconv"
	"strings"

	"bookblog/internal/models"
	"bookblog/internal/observability"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// TraceIDHeader carries the request's trace ID back to the browser so an
// error page can be matched to its trace.
const TraceIDHeader = "X-Trace-ID"

// TracingMiddleware opens a server span per request. The span is named after
// the matched route template ("GET /post/:id") once routing has happened, so
// every post page lands in the same span family. Blog ids taken from the
// route params are attached as attributes.
func TracingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := otel.GetTextMapPropagator().Extract(c.UserContext(), propagation.HeaderCarrier(c.GetReqHeaders()))

		ctx, span := observability.Tracer.Start(ctx, c.Method(),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", c.Method()),
				attribute.String("http.target", c.OriginalURL()),
				attribute.String("http.client_ip", c.IP()),
			),
		)
		defer span.End()

		traceID := span.SpanContext().TraceID().String()
		c.Locals("traceID", traceID)
		c.Set(TraceIDHeader, traceID)
		if requestID, ok := c.Locals("requestid").(string); ok {
			span.SetAttributes(attribute.String("request.id", requestID))
		}

		c.SetUserContext(ctx)
		err := c.Next()

		route := routeTemplate(c)
		span.SetName(c.Method() + " " + route)
		span.SetAttributes(attribute.String("http.route", route))
		span.SetAttributes(blogAttributes(c, route)...)

		// The app error handler has not run yet, so derive the status the
		// user will see from the error itself.
		status := c.Response().StatusCode()
		if err != nil {
			status = models.StatusCode(err)
			span.RecordError(err)
		}
		span.SetAttributes(attribute.Int("http.status_code", status))
		if status >= fiber.StatusInternalServerError {
			span.SetStatus(codes.Error, strconv.Itoa(status))
		}

		if userID, ok := c.Locals("userID").(uint); ok {
			span.SetAttributes(attribute.Int64("blog.admin_id", int64(userID)))
		}
		return err
	}
}

// routeTemplate returns the path template of the handler that served the
// request. Requests that only passed through app.Use middleware matched no
// route.
func routeTemplate(c *fiber.Ctx) string {
	route := c.Route()
	if route == nil || route.Method != c.Method() {
		return "unmatched"
	}
	return route.Path
}

func blogAttributes(c *fiber.Ctx, route string) []attribute.KeyValue {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return nil
	}
	switch {
	case strings.HasPrefix(route, "/post/"):
		return []attribute.KeyValue{attribute.Int64("blog.post_id", int64(id))}
	case strings.HasPrefix(route, "/admin/review/"):
		return []attribute.KeyValue{
			attribute.Int64("blog.review_id", int64(id)),
			attribute.String("blog.action", strings.Clone(c.Params("action"))),
		}
	}
	return nil
}
