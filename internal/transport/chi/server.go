// Package chi exposes the feedback pipeline over HTTP.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/querystack/relfeed/internal/domain"
	"github.com/querystack/relfeed/internal/domain/feedback/request"
	"github.com/querystack/relfeed/internal/domain/feedback/term"
	"github.com/querystack/relfeed/internal/engine"
	"github.com/querystack/relfeed/internal/metrics"
	feedbackuc "github.com/querystack/relfeed/internal/usecase/feedback"
	"github.com/querystack/relfeed/internal/version"
)

// Error response codes.
const (
	CodeMissingQuery  = "missing_query"
	CodeQuerySyntax   = "query_syntax_error"
	CodeUnknownParser = "unknown_parser"
	CodeBadRequest    = "bad_request"
	CodeInternalError = "internal_error"
)

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server exposes the feedback endpoint and operational routes.
type Server struct {
	feedback      feedbackuc.Handler
	uniqueKey     string
	apiKeys       []string
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(feedback feedbackuc.Handler, uniqueKey string, apiKeys []string, logger *zap.Logger) *Server {
	s := &Server{
		feedback:  feedback,
		uniqueKey: uniqueKey,
		apiKeys:   apiKeys,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrMissingQuery, http.StatusBadRequest, CodeMissingQuery),
		sentinelHandler(domain.ErrQuerySyntax, http.StatusBadRequest, CodeQuerySyntax),
		sentinelHandler(domain.ErrUnknownParser, http.StatusBadRequest, CodeUnknownParser),
	}
	return s
}

// Router assembles the middleware chain and routes.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(jsonRecoverer(s.logger))
	r.Use(chimw.RequestID)
	r.Use(wideEventMiddleware(s.logger))
	r.Use(BearerAuthMiddleware(s.apiKeys))
	r.Use(metrics.Middleware())

	r.Get("/api/v1/feedback", s.Feedback)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	return r
}

// Feedback handles GET /api/v1/feedback.
func (s *Server) Feedback(w http.ResponseWriter, r *http.Request) {
	params, err := bindParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	req, err := request.New(params)
	if err != nil {
		if errors.Is(err, domain.ErrMissingQuery) {
			s.handleDomainError(w, err)
			return
		}
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	res, err := s.feedback.Handle(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, s.responseBody(res, req))
}

// responseBody assembles the JSON document. A map keeps facet_counts
// renderable as an explicit null, which a struct field cannot express
// alongside "absent".
func (s *Server) responseBody(res *feedbackuc.Response, req request.Request) map[string]any {
	body := map[string]any{
		"response": s.docListBody(res.Docs, req.IncludeScore()),
	}

	if res.Match != nil {
		body["match"] = s.docListBody(*res.Match, true)
	}

	switch res.TermStyle {
	case term.StyleList:
		// List style carries bare term texts; only details qualifies
		// them with the source field.
		list := make([]string, 0, len(res.Terms))
		for _, it := range res.Terms {
			list = append(list, it.Text())
		}
		body["interestingTerms"] = list
	case term.StyleDetails:
		details := make([]map[string]any, 0, len(res.Terms))
		for _, it := range res.Terms {
			details = append(details, map[string]any{
				"term":  it.Label(),
				"boost": it.Boost(),
			})
		}
		body["interestingTerms"] = details
	case term.StyleNone:
		// field absent
	}

	if res.FacetRequested {
		if res.FacetCounts == nil {
			body["facet_counts"] = nil
		} else {
			body["facet_counts"] = map[string]any{"facet_fields": res.FacetCounts}
		}
	}

	if res.Debug != nil {
		body["debug"] = res.Debug
	}
	if res.DebugError != "" {
		body["exception_during_debug"] = res.DebugError
	}

	return body
}

func (s *Server) docListBody(list engine.DocList, withScore bool) map[string]any {
	docs := make([]map[string]any, 0, len(list.Docs))
	for _, d := range list.Docs {
		doc := make(map[string]any, len(d.Fields)+2)
		for k, v := range d.Fields {
			doc[k] = v
		}
		doc[s.uniqueKey] = d.ID
		if withScore {
			doc["score"] = d.Score
		}
		docs = append(docs, doc)
	}
	return map[string]any{
		"numFound": list.NumFound,
		"start":    list.Start,
		"docs":     docs,
	}
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": version.Version,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a client-safe message without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrMissingQuery,
		domain.ErrQuerySyntax,
		domain.ErrUnknownParser,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return err.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler matching a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
