package feedback

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/querystack/relfeed/internal/domain"
	"github.com/querystack/relfeed/internal/domain/feedback/request"
	"github.com/querystack/relfeed/internal/metrics"
	"github.com/querystack/relfeed/internal/query"
)

// Handler handles feedback requests.
type Handler interface {
	Handle(ctx context.Context, req request.Request) (*Response, error)
}

// InstrumentedHandler wraps a Handler with request metrics and logging.
// Stage metrics (seed/expansion durations) are recorded inside the
// service; this layer owns request-level accounting only.
type InstrumentedHandler struct {
	inner  Handler
	logger *zap.Logger
}

// NewInstrumented wraps a handler with observability.
func NewInstrumented(inner Handler, logger *zap.Logger) *InstrumentedHandler {
	return &InstrumentedHandler{inner: inner, logger: logger}
}

// Handle delegates to the inner handler and records the outcome.
func (h *InstrumentedHandler) Handle(
	ctx context.Context, req request.Request,
) (*Response, error) {
	start := time.Now()

	res, err := h.inner.Handle(ctx, req)

	duration := time.Since(start)
	parser := req.Parser()
	if parser == "" {
		parser = query.DefaultParser
	}

	if err != nil {
		metrics.FeedbackRequestsTotal.WithLabelValues(parser, statusLabel(err)).Inc()
		h.logger.Error("Feedback request failed",
			zap.String("query", req.Query()),
			zap.String("parser", parser),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return nil, err
	}

	metrics.FeedbackRequestsTotal.WithLabelValues(parser, "ok").Inc()

	h.logger.Debug("Feedback request completed",
		zap.String("query", req.Query()),
		zap.String("parser", parser),
		zap.Duration("duration", duration),
		zap.Int("num_found", res.Docs.NumFound),
		zap.Int("terms", len(res.Terms)),
	)

	return res, nil
}

// statusLabel classifies an error as a caller mistake or an engine fault.
func statusLabel(err error) string {
	switch {
	case errors.Is(err, domain.ErrMissingQuery),
		errors.Is(err, domain.ErrQuerySyntax),
		errors.Is(err, domain.ErrUnknownParser):
		return "client_error"
	default:
		return "error"
	}
}
