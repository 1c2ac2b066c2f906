package auth

import (
	"errors"
	"net/http"
)

// Middleware rejects requests without a valid bearer token: 401 when none
// is presented, 403 when the presented one does not verify. The principal
// is stored in the request context for the next handler.
func (i *Issuer) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := i.Authenticate(r.Header.Get("Authorization"))
		if err != nil {
			status := http.StatusForbidden
			if errors.Is(err, ErrMissingToken) {
				status = http.StatusUnauthorized
			}
			http.Error(w, http.StatusText(status), status)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
	})
}
