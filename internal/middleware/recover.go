package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"
)

// RecoverMiddleware converts panics inside a request into a 500 response
// so the client always receives a terminal answer.
type RecoverMiddleware struct {
	logger *slog.Logger
}

// NewRecoverMiddleware creates a new panic recovery middleware.
func NewRecoverMiddleware(logger *slog.Logger) *RecoverMiddleware {
	return &RecoverMiddleware{
		logger: logger,
	}
}

// Handler returns middleware that recovers from panics in downstream
// handlers. API requests get the {ok, message} envelope; everything else
// gets plain text. The panic value and stack are logged, never sent to
// the client.
func (m *RecoverMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				// The server handles this one itself
				panic(rec)
			}

			m.logger.Error("panic recovered",
				"panic", rec,
				"method", r.Method,
				"path", r.URL.Path,
				"stack", string(debug.Stack()),
			)

			if isAPIRequest(r) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(`{"ok": false, "message": "An unexpected error occurred"}`))
				return
			}

			http.Error(w, "An unexpected error occurred", http.StatusInternalServerError)
		}()

		next.ServeHTTP(w, r)
	})
}
