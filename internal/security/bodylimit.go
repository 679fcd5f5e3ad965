package security

import (
	"net/http"

	"github.com/novincode/irannahal-api/internal/common"
)

// BodyLimit caps request payload sizes. Cart and checkout payloads are tiny,
// so anything oversized is hostile or broken.
type BodyLimit struct {
	Max int64
}

// Middleware rejects requests whose declared length exceeds the limit and
// truncates streamed bodies at the same boundary.
func (b BodyLimit) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if b.Max <= 0 || r.Body == nil {
			next.ServeHTTP(w, r)
			return
		}
		if r.ContentLength > b.Max {
			common.JSONError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "request body too large", nil)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, b.Max)
		next.ServeHTTP(w, r)
	})
}
