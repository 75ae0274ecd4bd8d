package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/dwella/rent-engine/ledger"
)

type contextKey string

const ownerKey contextKey = "owner_id"

// RequireAuth resolves the bearer token to its account and stores the
// owner id in the request context. Requests without a valid token get 401.
func (h *Handler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			h.Metrics.IncrementAuthFailure()
			writeError(w, http.StatusUnauthorized, "Missing bearer token", nil)
			return
		}
		user, err := h.Auth.CurrentUser(r.Context(), token)
		if err != nil {
			h.Metrics.IncrementAuthFailure()
			h.writeServiceError(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), ownerKey, user.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	return token, token != ""
}

// ownerFrom returns the authenticated owner. Only valid behind RequireAuth.
func ownerFrom(ctx context.Context) ledger.OwnerID {
	owner, _ := ctx.Value(ownerKey).(ledger.OwnerID)
	return owner
}
