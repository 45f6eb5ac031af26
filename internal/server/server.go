// Package server exposes uncertainty propagation over HTTP.
//
//	POST /propagate  evaluate a request, see request.Request
//	GET  /schema     operation schema for client registration
//	GET  /health     liveness check
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/njchilds90/errprop"
	"github.com/njchilds90/errprop/internal/config"
	"github.com/njchilds90/errprop/internal/logger"
	"github.com/njchilds90/errprop/internal/request"
)

const maxBodyBytes = 1 << 20 // 1 MiB

// RequestIDHeader carries the per-request id on responses.
const RequestIDHeader = "X-Request-ID"

type ctxKey struct{}

// Server serves propagation requests. Compiled engines are shared between
// requests through an LRU cache keyed by variables and formula.
type Server struct {
	addr      string
	precision int
	engines   *lru.Cache
	limiter   *rate.Limiter
	log       *zap.SugaredLogger
	handler   http.Handler
}

// New builds a server from cfg.
func New(cfg *config.Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cache, err := lru.New(cfg.Server.CacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "create engine cache")
	}
	limit := rate.Limit(cfg.Server.RateLimit)
	if cfg.Server.RateLimit == 0 {
		limit = rate.Inf
	}

	s := &Server{
		addr:      cfg.Server.Addr,
		precision: cfg.Format.Precision,
		engines:   cache,
		limiter:   rate.NewLimiter(limit, cfg.Server.Burst),
		log:       logger.ComponentLogger("server"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/propagate", s.handlePropagate)
	mux.HandleFunc("/schema", s.handleSchema)
	mux.HandleFunc("/health", s.handleHealth)
	s.handler = s.withRequestID(s.withRecover(mux))
	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.handler }

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infow("errprop server listening", logger.FieldAddress, s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "listen")
	case <-ctx.Done():
		s.log.Infow("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// RequestID returns the id assigned to the request carried by ctx.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

func (s *Server) withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.log.Errorw("panic in handler",
					logger.FieldRequestID, RequestID(r.Context()),
					"path", r.URL.Path,
					"panic", fmt.Sprint(rec),
					"stack", string(debug.Stack()))
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handlePropagate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if !s.limiter.Allow() {
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	start := time.Now()
	id := RequestID(r.Context())
	log := s.log.With(logger.FieldRequestID, id)

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()

	req, err := request.Decode(r.Body)
	if err != nil {
		s.fail(w, log, err)
		return
	}
	eng, err := s.engine(req)
	if err != nil {
		s.fail(w, log, err)
		return
	}
	resp, err := request.Run(r.Context(), eng, req, s.precision)
	if err != nil {
		s.fail(w, log, err)
		return
	}

	log.Infow("propagated",
		logger.FieldVariables, req.Variables,
		logger.FieldCount, len(resp.Results),
		logger.FieldDurationMS, time.Since(start).Milliseconds())
	writeJSON(w, http.StatusOK, resp)
}

// engine returns the cached engine for req, compiling it on a miss. Two
// concurrent misses for the same key both compile; the results are equal.
func (s *Server) engine(req *request.Request) (*errprop.Engine, error) {
	key := req.CacheKey()
	if v, ok := s.engines.Get(key); ok {
		return v.(*errprop.Engine), nil
	}
	eng, err := request.Compile(req, errprop.WithLogger(s.log.Named("engine")))
	if err != nil {
		return nil, err
	}
	s.engines.Add(key, eng)
	return eng, nil
}

func (s *Server) fail(w http.ResponseWriter, log *zap.SugaredLogger, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		log.Warnw("request body too large", logger.FieldError, err)
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
	case request.IsClientError(err):
		log.Infow("rejected request", logger.FieldError, err.Error())
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.Errorw("propagation failed", logger.FieldError, fmt.Sprintf("%+v", err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, request.Schema())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"time":           time.Now().UTC().Format(time.RFC3339),
		"cached_engines": s.engines.Len(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, request.Response{Error: msg})
}
