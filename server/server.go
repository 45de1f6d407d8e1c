// Package server exposes the sentiment pipeline over HTTP. The model is
// loaded once at startup; requests only vectorize and predict.
package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/mlbridge/mlbridge/pkg/errors"
	"github.com/mlbridge/mlbridge/sentiment"
)

const shutdownTimeout = 10 * time.Second

// Server serves the prediction API.
type Server struct {
	pipeline *sentiment.Pipeline
	logger   zerolog.Logger
}

// New creates a Server around a loaded pipeline. A nil pipeline is allowed;
// /health reports it and the predict endpoints fail cleanly.
func New(pipeline *sentiment.Pipeline, logger zerolog.Logger) *Server {
	return &Server{pipeline: pipeline, logger: logger}
}

// Handler builds the route table with request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/predict", s.handlePredict)
	mux.HandleFunc("/predict/batch", s.handlePredictBatch)
	return s.logRequests(mux)
}

// ListenAndServe runs the server until the context is canceled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "server failed")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info().Msg("server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown failed")
	}
	return nil
}

// statusRecorder captures the response code for the request log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "healthy",
		"model_loaded": s.pipeline != nil,
	})
}

type predictRequest struct {
	Text *string `json:"text"`
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req predictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Text == nil {
		writeError(w, http.StatusBadRequest, `Missing "text" field`)
		return
	}
	if strings.TrimSpace(*req.Text) == "" {
		writeError(w, http.StatusBadRequest, "Text cannot be empty")
		return
	}
	if s.pipeline == nil {
		writeError(w, http.StatusInternalServerError, "model not loaded")
		return
	}

	prediction, err := s.pipeline.Predict(*req.Text)
	if err != nil {
		s.logger.Error().Err(err).Msg("prediction failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, prediction)
}

type predictBatchRequest struct {
	Texts json.RawMessage `json:"texts"`
}

// batchPrediction is the per-item batch response shape; unlike the single
// endpoint it omits the full score map.
type batchPrediction struct {
	Text       string  `json:"text"`
	Sentiment  string  `json:"sentiment"`
	Confidence float64 `json:"confidence"`
}

func (s *Server) handlePredictBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req predictBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Texts == nil {
		writeError(w, http.StatusBadRequest, `Missing "texts" array`)
		return
	}

	var texts []string
	if err := json.Unmarshal(req.Texts, &texts); err != nil {
		writeError(w, http.StatusBadRequest, `"texts" must be an array`)
		return
	}
	if len(texts) == 0 {
		writeError(w, http.StatusBadRequest, `"texts" must not be empty`)
		return
	}
	if s.pipeline == nil {
		writeError(w, http.StatusInternalServerError, "model not loaded")
		return
	}

	predictions, err := s.pipeline.PredictBatch(texts)
	if err != nil {
		s.logger.Error().Err(err).Msg("batch prediction failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	results := make([]batchPrediction, len(predictions))
	for i, p := range predictions {
		results[i] = batchPrediction{
			Text:       p.Text,
			Sentiment:  p.Sentiment,
			Confidence: p.Confidence,
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"predictions": results})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
