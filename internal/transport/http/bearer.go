package http

import (
	"context"
	"net/http"
	"strings"

	"userauth/internal/domain"
	"userauth/internal/dto"
	obsmw "userauth/internal/observability/middleware"
	"userauth/internal/service"

	"github.com/google/uuid"
)

type claimsKey struct{}

// requireAccessToken rejects requests without a valid access token and
// stores the verified claims in the request context.
func requireAccessToken(tokens service.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := obsmw.Logger(r.Context())
			raw := r.Header.Get("Authorization")
			if !strings.HasPrefix(strings.ToLower(raw), "bearer ") {
				logger.Warn("auth missing bearer")
				writeError(w, r, domain.ErrInvalidToken)
				return
			}
			tokStr := strings.TrimSpace(raw[len("Bearer "):])

			claims, err := tokens.VerifyAccess(r.Context(), dto.VerifyRequest{Token: tokStr})
			if err != nil {
				logger.Warn("auth invalid token", "err", err)
				writeError(w, r, err)
				return
			}
			if _, err := uuid.Parse(claims.Subject); err != nil {
				logger.Warn("auth bad subject", "subject", claims.Subject)
				writeError(w, r, domain.ErrInvalidToken)
				return
			}
			ctx := context.WithValue(r.Context(), claimsKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func claimsFrom(ctx context.Context) (dto.VerifyResponse, bool) {
	v, ok := ctx.Value(claimsKey{}).(dto.VerifyResponse)
	return v, ok
}

// currentUserID is only called behind requireAccessToken, which has already
// checked that the subject parses.
func currentUserID(r *http.Request) domain.UserID {
	claims, _ := claimsFrom(r.Context())
	id, _ := uuid.Parse(claims.Subject)
	return id
}
