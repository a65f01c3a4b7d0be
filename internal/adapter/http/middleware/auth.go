package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/iho/palletledger/internal/adapter/http/dto"
	"github.com/iho/palletledger/internal/domain"
	"github.com/iho/palletledger/internal/infrastructure/auth"
)

// TokenVerifier validates bearer tokens.
type TokenVerifier interface {
	Verify(tokenString string) (*auth.Claims, error)
}

// AuthFailureRecorder counts rejected requests by reason.
type AuthFailureRecorder interface {
	AuthFailure(reason string)
}

// Auth rejects requests without a valid bearer token and stores the caller
// in the request context. recorder may be nil.
func Auth(verifier TokenVerifier, recorder AuthFailureRecorder) func(http.Handler) http.Handler {
	fail := func(w http.ResponseWriter, reason, message string) {
		if recorder != nil {
			recorder.AuthFailure(reason)
		}
		writeJSONError(w, http.StatusUnauthorized, "unauthorized", message)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				fail(w, "missing", "missing authorization header")
				return
			}

			scheme, token, ok := strings.Cut(header, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
				fail(w, "malformed", "invalid authorization header format")
				return
			}

			claims, err := verifier.Verify(token)
			if err != nil {
				if errors.Is(err, domain.ErrExpiredToken) {
					fail(w, "expired", "token expired")
					return
				}
				fail(w, "invalid", "invalid token")
				return
			}

			ctx := domain.WithUser(r.Context(), claims.User())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireWrite allows only roles that may book entries and close months.
func RequireWrite(next http.Handler) http.Handler {
	return requireRole(domain.Role.CanWrite)(next)
}

// RequireDelete allows only roles that may delete partners.
func RequireDelete(next http.Handler) http.Handler {
	return requireRole(domain.Role.CanDelete)(next)
}

func requireRole(allowed func(domain.Role) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := domain.UserFromContext(r.Context())
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", domain.ErrUnauthorized.Error())
				return
			}

			if !allowed(user.Role) {
				writeJSONError(w, http.StatusForbidden, "forbidden", domain.ErrInsufficientRole.Error())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(dto.ErrorResponse{Error: code, Message: message})
}
