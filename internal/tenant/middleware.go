package tenant

import (
	"encoding/json"
	"net/http"
)

// Middleware attaches the resolved tenant Context to every request.
func (r *Resolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		tc := r.Resolve(req)
		next.ServeHTTP(w, req.WithContext(WithContext(req.Context(), tc)))
	})
}

// RequireTenant rejects requests that carry no asserted tenant. Routes that
// skip this gate tolerate anonymous context; routes behind it demand an
// explicit tenant assertion.
func RequireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		tc, ok := FromContext(req.Context())
		if !ok || !tc.Asserted {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{
				"error": "Missing X-Tenant-ID header",
			})

			return
		}

		next.ServeHTTP(w, req)
	})
}
