package middleware

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

// CredentialKey is the context key under which the caller's raw credential is stored.
const CredentialKey contextKey = "credential"

// parseAuthorization strips an optional "Bearer " prefix.
func parseAuthorization(header string) string {
	header = strings.TrimSpace(header)
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}

// WithCredential stores credential in ctx.
func WithCredential(ctx context.Context, credential string) context.Context {
	return context.WithValue(ctx, CredentialKey, credential)
}

// GetCredentialFromContext returns the credential stored by the auth middleware.
func GetCredentialFromContext(ctx context.Context) (string, bool) {
	credential, ok := ctx.Value(CredentialKey).(string)
	return credential, ok && credential != ""
}

// Credential copies the Authorization header into the request context. It does not verify
// anything; resolution to a principal is left to the service.
func Credential(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		credential := parseAuthorization(r.Header.Get("Authorization"))
		if credential != "" {
			r = r.WithContext(WithCredential(r.Context(), credential))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireCredential rejects requests without an Authorization header with 403.
func RequireCredential(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetCredentialFromContext(r.Context()); !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"value":"forbidden"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}
