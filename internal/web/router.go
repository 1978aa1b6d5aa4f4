package web

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// RouterOption configures the behaviour of NewRouter.
type RouterOption func(*routerConfig)

// WithRateLimit sets the token-bucket parameters. Zero RPS disables the
// limiter.
func WithRateLimit(rps float64, burst int) RouterOption {
	return func(cfg *routerConfig) {
		if rps <= 0 {
			cfg.limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		cfg.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

type routerConfig struct {
	limiter *rate.Limiter
}

// NewRouter creates the HTTP router with standard middleware.
func NewRouter(h *Handler, logger *zap.Logger, opts ...RouterOption) http.Handler {
	cfg := routerConfig{
		limiter: rate.NewLimiter(25, 50),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	mux := http.NewServeMux()
	mux.Handle("GET /{$}", http.HandlerFunc(h.handleHome))
	mux.Handle("POST /{$}", http.HandlerFunc(h.handleChat))
	mux.Handle("GET /reset/{$}", http.HandlerFunc(h.handleReset))
	mux.Handle("GET /healthz", http.HandlerFunc(h.handleHealth))

	var root http.Handler = mux
	root = recoveryMiddleware(logger, root)
	root = loggingMiddleware(logger, root)
	root = rateLimitMiddleware(cfg.limiter, root)
	root = requestIDMiddleware(root)

	return root
}

type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func loggingMiddleware(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		logger.Info("request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", requestIDFromContext(r.Context())),
		)
	})
}

func recoveryMiddleware(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("panic recovered", zap.Any("error", rec))
				writeError(w, http.StatusInternalServerError, "Internal error", "unexpected server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func rateLimitMiddleware(limiter *rate.Limiter, next http.Handler) http.Handler {
	if limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if limiter.Allow() {
			next.ServeHTTP(w, r)
			return
		}
		writeError(w, http.StatusTooManyRequests, "Too many requests", "rate limit exceeded, please retry shortly")
	})
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)
		ctx := context.WithValue(r.Context(), requestIDContextKey, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDContextKey).(string); ok {
		return id
	}
	return ""
}
