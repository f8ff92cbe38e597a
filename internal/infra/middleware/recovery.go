package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime/debug"

	"mark1-ai/internal/domain"
)

type recoveryResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details string `json:"details"`
}

// Recovery converts handler panics into a well-formed HTTP 500 response.
// The stack trace goes to the operator log only; callers get a generic
// message without internal detail.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic in request handler",
						"request_id", domain.RequestIDFromContext(r.Context()),
						"path", r.URL.Path,
						"panic", rec,
						"stack", string(debug.Stack()),
					)

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(recoveryResponse{
						Success: false,
						Error:   "Search failed",
						Details: "internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
