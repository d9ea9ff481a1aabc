package http

import (
	"crypto/subtle"
	"net/http"
)

// CredentialStore resolves the password for a write-API username.
// Implementations are provided by the keybackend package.
type CredentialStore interface {
	Lookup(username string) (string, error)
}

// BasicAuthConfig holds the credential source guarding the write API.
type BasicAuthConfig struct {
	Realm       string
	Credentials CredentialStore
}

// BasicAuthMiddleware returns a middleware that enforces HTTP basic
// authentication against the configured credential store. Password
// comparison is constant time so the check does not leak prefixes.
func BasicAuthMiddleware(config BasicAuthConfig) func(http.Handler) http.Handler {
	realm := config.Realm
	if realm == "" {
		realm = "mediafold"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if !ok || !credentialsMatch(config.Credentials, user, pass) {
				w.Header().Set("WWW-Authenticate", `Basic realm="`+realm+`"`)
				WriteError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func credentialsMatch(store CredentialStore, user, pass string) bool {
	if store == nil {
		return false
	}

	want, err := store.Lookup(user)
	if err != nil {
		// Burn a comparison anyway so a miss costs the same as a mismatch.
		subtle.ConstantTimeCompare([]byte(pass), []byte(pass))
		return false
	}

	return subtle.ConstantTimeCompare([]byte(pass), []byte(want)) == 1
}
