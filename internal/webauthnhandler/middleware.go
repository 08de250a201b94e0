package webauthnhandler

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"log/slog"
	"net/http"

	"github.com/myrjola/gympal/internal/contexthelpers"
	"github.com/myrjola/gympal/internal/errors"
	"github.com/myrjola/gympal/internal/logging"
)

// AuthenticateMiddleware resolves the signed-in user of the session. Requests from known users get an authenticated
// context; sessions pointing at a deleted user are treated as anonymous and forget the stale id.
func (h *WebAuthnHandler) AuthenticateMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		webAuthnID := h.sessionManager.GetBytes(ctx, string(userIDSessionKey))
		if webAuthnID == nil {
			next.ServeHTTP(w, r)
			return
		}

		userID, err := h.lookupUserID(ctx, webAuthnID)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.sessionManager.Remove(ctx, string(userIDSessionKey))
		case err != nil:
			h.logger.LogAttrs(ctx, slog.LevelError, "lookup session user", errors.SlogError(err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		default:
			r = contexthelpers.AuthenticateContext(r, userID)
		}

		ctx = logging.WithAttrs(r.Context(),
			slog.String("session_hash", h.sessionHash(r)),
			slog.Int("user_id", userID),
		)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sessionHash identifies the session in logs without revealing the token.
func (h *WebAuthnHandler) sessionHash(r *http.Request) string {
	sum := sha256.Sum256([]byte(h.sessionManager.Token(r.Context())))
	return hex.EncodeToString(sum[:8])
}
