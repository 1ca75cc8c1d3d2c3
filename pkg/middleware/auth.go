package middleware

import (
	"errors"
	"net/http"
	"strings"

	"gig-booking/internal/data/entity"
	"gig-booking/pkg/utils"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Claims is the access token payload. Tokens are issued by the identity
// service; this service only validates them.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// ParseActor validates the token and resolves its canonical actor.
func ParseActor(secret, tokenStr string) (entity.Actor, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return entity.Actor{}, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return entity.Actor{}, errors.New("invalid token")
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return entity.Actor{}, errors.New("subject is not a user id")
	}

	role, ok := entity.NormalizeRole(claims.Role)
	if !ok {
		return entity.Actor{}, errors.New("unknown role")
	}

	return entity.Actor{UserID: userID, Role: role}, nil
}

// AuthJWT requires a valid bearer token and stores the actor in the context.
func AuthJWT(secret string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				utils.ResponseUnauthorized(w, "Missing authorization token")
				return
			}

			tokenStr, found := strings.CutPrefix(authHeader, "Bearer ")
			if !found || tokenStr == "" {
				utils.ResponseUnauthorized(w, "Invalid token format. Use: Bearer <token>")
				return
			}

			actor, err := ParseActor(secret, tokenStr)
			if err != nil {
				logger.Warn("Rejected access token",
					zap.Error(err),
					zap.String("path", r.URL.Path),
				)
				utils.ResponseUnauthorized(w, "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(utils.SetActorContext(r.Context(), actor)))
		})
	}
}

// RequireRole lets only the listed roles through. Must run after AuthJWT.
func RequireRole(logger *zap.Logger, roles ...entity.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := utils.GetActorFromContext(r.Context())
			if !ok {
				utils.ResponseUnauthorized(w, "Authentication required")
				return
			}

			if !actor.Is(roles...) {
				logger.Warn("Role check failed",
					zap.String("user_id", actor.UserID.String()),
					zap.String("role", string(actor.Role)),
					zap.String("path", r.URL.Path),
				)
				utils.ResponseForbidden(w, "ROLE_NOT_ALLOWED", "Insufficient role")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
