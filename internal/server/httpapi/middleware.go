package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/nozoku/nozoku-server/internal/common"
	"github.com/nozoku/nozoku-server/internal/server/auth"
)

type contextKey string

const userIDKey contextKey = "userID"

// userIDFromContext returns the authenticated user id set by withAuth.
func userIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

// bearerToken extracts the access token. The WebSocket upgrade cannot set
// headers from browsers, so a token query parameter is accepted as well.
func bearerToken(r *http.Request) string {
	header := r.Header.Get(common.AuthHeaderName)
	if strings.HasPrefix(header, common.BearerPrefix) {
		return strings.TrimPrefix(header, common.BearerPrefix)
	}
	return r.URL.Query().Get("token")
}

// withTimeout bounds the request context so a stuck database or object
// storage call fails the request instead of holding the connection open.
func (s *Server) withTimeout(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), s.config.RequestTimeout)
		defer cancel()
		next(w, r.WithContext(ctx))
	}
}

// withAuth validates the access token and stores the user id in the request
// context. Requests without a valid token get 401.
func (s *Server) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, common.ErrorUnauthorized)
			return
		}

		userID, err := auth.GetUserIDFromToken(token, []byte(s.config.SecretKey))
		if err != nil {
			writeError(w, common.ErrorUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next(w, r.WithContext(ctx))
	}
}
