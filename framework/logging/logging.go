// Package logging builds the application's zerolog logger and the request
// logging middleware.
//
// Handlers reach the request-scoped logger through zerolog.Ctx:
//
//	zerolog.Ctx(r.Context()).Info().Str("file_id", id).Msg("stored")
package logging

import (
	"io"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/km-arc/go-uploads/framework/config"
)

// New builds the logger described by cfg. Local environments write to a
// console writer; every other environment writes JSON lines to stderr.
func New(cfg *config.Config) zerolog.Logger {
	return NewWriter(os.Stderr, cfg.Log.Level, cfg.IsLocal())
}

// NewWriter builds a logger writing to w. An unknown level falls back to info.
func NewWriter(w io.Writer, level string, console bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	if console {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// ── Middleware ───────────────────────────────────────────────────────────────

// RequestLogger logs one line per request and stores a request-scoped logger
// (carrying request_id when middleware.RequestID ran first) in the context.
//
// 5xx responses log at error, 4xx at warn, everything else at info.
func RequestLogger(base zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			lc := base.With()
			if id := middleware.GetReqID(r.Context()); id != "" {
				lc = lc.Str("request_id", id)
			}
			logger := lc.Logger()
			r = r.WithContext(logger.WithContext(r.Context()))

			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}

				var e *zerolog.Event
				switch {
				case status >= 500:
					e = logger.Error()
				case status >= 400:
					e = logger.Warn()
				default:
					e = logger.Info()
				}
				e.
					Dur("latency", time.Since(start)).
					Int("status", status).
					Int("bytes", ww.BytesWritten()).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Str("ip", r.RemoteAddr).
					Str("user_agent", r.UserAgent()).
					Msg("API")
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
