package middleware

import (
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"mark1-ai/internal/domain"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
)

// newRequestID generates a sortable ULID request identifier.
func newRequestID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// RequestID assigns each request a ULID, stores it in the request context,
// and echoes it in the X-Request-ID response header. An inbound
// X-Request-ID is preserved so upstream proxies can correlate logs.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = newRequestID()
		}
		w.Header().Set("X-Request-ID", id)

		ctx := domain.ContextWithRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
