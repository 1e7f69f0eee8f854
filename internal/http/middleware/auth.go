package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const actorClaimsKey contextKey = "actorClaims"

// ActorClaims is the JWT payload for platform users: the subject is the
// user ID, role distinguishes patients, doctors and admins.
type ActorClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// ActorJWT enforces an HMAC-signed JWT on authenticated endpoints and puts
// the claims on the request context.
func ActorJWT(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				http.Error(w, "auth disabled", http.StatusUnauthorized)
				return
			}
			auth := r.Header.Get("Authorization")
			if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
				http.Error(w, "missing authorization header", http.StatusUnauthorized)
				return
			}
			tokenString := strings.TrimPrefix(auth, "Bearer ")
			claims := ActorClaims{}
			token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), actorClaimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ContextWithActor attaches actor claims to a context, bypassing token
// verification. Meant for handler tests.
func ContextWithActor(ctx context.Context, claims ActorClaims) context.Context {
	return context.WithValue(ctx, actorClaimsKey, claims)
}

// ActorFromContext returns the authenticated user's claims if present.
func ActorFromContext(ctx context.Context) (ActorClaims, bool) {
	claims, ok := ctx.Value(actorClaimsKey).(ActorClaims)
	return claims, ok
}
