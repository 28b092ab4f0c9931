package middleware

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/tempohq/tempo/internal/database"
	"github.com/tempohq/tempo/internal/request"
	"github.com/tempohq/tempo/internal/validation"
)

// TelegramIDHeader carries the caller's chat-platform identity. The bot and
// any trusted front end set it on every request; the gateway strips it from
// external traffic.
const TelegramIDHeader = "X-Telegram-ID"

// UsernameHeader optionally carries the caller's display name, used to keep
// the stored username current.
const UsernameHeader = "X-Telegram-Username"

// Auth resolves the caller's identity from the Telegram id header,
// creating the user on first contact, and attaches the user to the request
// context. Requests without a valid header are rejected with 401.
func Auth(users database.UserRepositoryInterface, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			telegramID := r.Header.Get(TelegramIDHeader)
			if telegramID == "" {
				respondError(w, http.StatusUnauthorized, "Missing "+TelegramIDHeader+" header")
				return
			}
			if err := validation.ValidateTelegramID(telegramID); err != nil {
				respondError(w, http.StatusUnauthorized, "Invalid "+TelegramIDHeader+" header")
				return
			}

			var username *string
			if name := r.Header.Get(UsernameHeader); name != "" {
				sanitized := validation.SanitizeText(name)
				username = &sanitized
			}

			ctx := r.Context()
			user, err := users.GetOrCreate(ctx, telegramID, username)
			if err != nil {
				logger.Error("auth_user_resolution_failed", zap.Error(err))
				respondError(w, http.StatusInternalServerError, "Failed to resolve user")
				return
			}

			next.ServeHTTP(w, r.WithContext(request.WithUser(ctx, user)))
		})
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]any{
		"success": false,
		"error":   message,
	}

	_ = json.NewEncoder(w).Encode(response)
}
