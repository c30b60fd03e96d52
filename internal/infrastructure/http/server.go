// Package http provides the HTTP server infrastructure.
// Framework/driver layer - outermost circle.
package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nicemagician/nice-classification/internal/domain/entities"
	"github.com/nicemagician/nice-classification/internal/domain/usecases"
)

// classifyTimeout bounds one classification request end to end, covering the
// embedding call, retrieval fan-out and the oracle round trip.
const classifyTimeout = 90 * time.Second

// Server is the HTTP server for the classification API.
type Server struct {
	classifier *usecases.Classifier
	addr       string
	log        *zap.Logger
}

// NewServer creates a new HTTP server.
func NewServer(classifier *usecases.Classifier, addr string, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		classifier: classifier,
		addr:       addr,
		log:        log,
	}
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/classify", s.handleClassify)
	mux.HandleFunc("/api/health", s.handleHealth)
	return corsMiddleware(s.loggingMiddleware(mux))
}

// Start runs the HTTP server until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
	}

	s.log.Info("server starting", zap.String("addr", s.addr))

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	return server.ListenAndServe()
}

type classifyRequest struct {
	Query    string `json:"query"`
	Language string `json:"language,omitempty"`
}

// handleClassify processes a classification request.
func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, entities.ErrInvalidInput, "method not allowed")
		return
	}

	var req classifyRequest
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, entities.ErrInvalidInput, "malformed request body")
			return
		}
	} else {
		r.ParseForm()
		req.Query = r.FormValue("query")
		req.Language = r.FormValue("language")
	}

	ctx, cancel := context.WithTimeout(r.Context(), classifyTimeout)
	defer cancel()

	answer, err := s.classifier.Classify(ctx, entities.Query{
		Text:     req.Query,
		Language: req.Language,
	})
	if err != nil {
		kind := entities.KindOf(err)
		s.log.Warn("classification failed",
			zap.String("kind", string(kind)),
			zap.Error(err))
		writeError(w, statusForKind(kind), kind, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(answer)
}

// handleHealth returns server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// statusForKind maps error kinds onto HTTP status codes. Upstream failures
// surface as 502 so callers can tell them apart from our own faults.
func statusForKind(kind entities.ErrorKind) int {
	switch kind {
	case entities.ErrInvalidInput:
		return http.StatusBadRequest
	case entities.ErrTimeout:
		return http.StatusGatewayTimeout
	case entities.ErrEmbeddingUnavailable, entities.ErrSourceUnavailable, entities.ErrOracleUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, kind entities.ErrorKind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{
			"kind":    string(kind),
			"message": message,
		},
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)))
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			return
		}
		next.ServeHTTP(w, r)
	})
}
