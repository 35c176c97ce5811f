// Package middleware holds the application's HTTP middleware.
package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/rs/zerolog"

	gohttp "github.com/km-arc/go-uploads/framework/http"
)

// Bearer guards routes with a static API token. Requests carrying
// "Authorization: Bearer <token>" are marked authorized for the form request
// policy; anything else gets 401. An empty token disables the guard.
//
//	r.Middleware(middleware.Bearer(cfg.Upload.Token))
func Bearer(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := gohttp.NewRequest(r).BearerToken()
			if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				zerolog.Ctx(r.Context()).Warn().Msg("bearer token rejected")
				gohttp.NewResponse(w).Unauthorized()
				return
			}
			next.ServeHTTP(w, gohttp.MarkAuthorized(r))
		})
	}
}
