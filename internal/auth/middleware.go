package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

type contextKey string

const employeeIDContextKey contextKey = "employee_id"

// EmployeeIDFromContext returns the authenticated employee id placed in the
// context by RequireStage.
func EmployeeIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(employeeIDContextKey).(string)
	return id
}

// BearerToken extracts the token from the Authorization header.
func BearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

// RequireStage is middleware that rejects requests without a valid bearer
// token at the given stage. On success the employee id is available via
// EmployeeIDFromContext.
func (t *Tokens) RequireStage(stage string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr, ok := BearerToken(r)
		if !ok {
			unauthorized(w, "missing authorization header")
			return
		}

		employeeID, err := t.Verify(tokenStr, stage)
		if err != nil {
			log.Debug().Err(err).Str("path", r.URL.Path).Msg("token rejected")
			unauthorized(w, "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), employeeIDContextKey, employeeID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"success":false,"message":"` + msg + `"}`))
}
