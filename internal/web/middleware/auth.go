package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
)

// AccessTokenAuth returns middleware that requires one of tokens on every
// request. With no tokens configured all requests pass through.
//
// The token is read from "Authorization: Bearer <token>", the X-Access-Token
// header, or the access_token query parameter. The query form exists for
// EventSource and download links, which cannot set headers.
func AccessTokenAuth(tokens []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(tokens) == 0 {
				next.ServeHTTP(w, r)
				return
			}

			token := requestToken(r)
			if token == "" {
				slog.Warn("auth: missing access token",
					"path", r.URL.Path,
					"method", r.Method,
					"remote_addr", r.RemoteAddr,
				)
				writeAuthError(w, http.StatusUnauthorized, "missing access token", "AUTH001")
				return
			}

			if !isValidToken(token, tokens) {
				slog.Warn("auth: invalid access token",
					"path", r.URL.Path,
					"method", r.Method,
					"remote_addr", r.RemoteAddr,
				)
				writeAuthError(w, http.StatusForbidden, "invalid access token", "AUTH002")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func requestToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if t, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(t)
		}
	}
	if t := r.Header.Get("X-Access-Token"); t != "" {
		return t
	}
	return r.URL.Query().Get("access_token")
}

// isValidToken compares against every token in constant time so the timing
// does not reveal which one matched.
func isValidToken(token string, valid []string) bool {
	ok := 0
	for _, v := range valid {
		ok |= subtle.ConstantTimeCompare([]byte(token), []byte(v))
	}
	return ok == 1
}

func writeAuthError(w http.ResponseWriter, status int, message, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"error":"` + message + `","message":"` + message + `","code":"` + code + `"}`))
}
