package auth

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Middleware rejects requests without a valid bearer token and attaches the
// decoded principal to the request context otherwise.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := a.Authorize(r)
		if err != nil {
			msg := "Token inválido o expirado"
			if errors.Is(err, ErrMissingToken) {
				msg = "No autorizado: falta token"
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"message": msg})
			return
		}

		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), claims)))
	})
}
