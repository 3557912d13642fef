package handler

import (
	"net/http"

	"github.com/rs/zerolog"
)

// logFromRequest returns the logger attached to the request context, or a
// disabled logger when none was attached.
func logFromRequest(r *http.Request) *zerolog.Logger {
	return zerolog.Ctx(r.Context())
}
