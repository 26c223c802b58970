package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/capstone-maru/maru/internal/auth"
	"github.com/capstone-maru/maru/internal/middleware"
)

// TokenVerifier resolves a bearer token to a member ID.
type TokenVerifier interface {
	VerifyAccessToken(token string) (string, error)
}

var _ TokenVerifier = (*auth.TokenService)(nil)

// Authenticate identifies the requester from an "Authorization: Bearer"
// header. Requests without the header continue anonymously; a malformed,
// invalid or expired token is rejected with 401 instead of being downgraded
// to anonymous.
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			scheme, token, ok := strings.Cut(header, " ")
			token = strings.TrimSpace(token)
			if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
				WriteError(w, r.Context(), http.StatusUnauthorized, ErrCodeAuthFailed, "Authorization header must be a bearer token")
				return
			}

			memberID, err := verifier.VerifyAccessToken(token)
			if err != nil {
				msg := "Invalid access token"
				if errors.Is(err, auth.ErrExpiredToken) {
					msg = "Access token has expired"
				}
				WriteError(w, r.Context(), http.StatusUnauthorized, ErrCodeAuthFailed, msg)
				return
			}

			ctx := middleware.SetMemberID(r.Context(), memberID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
