package middleware

import (
	"mime"
	"net/http"
	"net/url"
)

// CSRF rejects cross-site state-changing requests. Unsafe methods must
// send a JSON body, which a plain HTML form cannot produce without a CORS
// preflight, and any Origin header must name this host.
func CSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}

		if origin := r.Header.Get("Origin"); origin != "" {
			u, err := url.Parse(origin)
			if err != nil || u.Host != r.Host {
				writeError(w, http.StatusForbidden, "FORBIDDEN", "Cross-origin request rejected")
				return
			}
		}

		if r.ContentLength != 0 {
			mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
			if err != nil || mediaType != "application/json" {
				writeError(w, http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE", "Request body must be application/json")
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}
