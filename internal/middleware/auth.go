package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"

	"github.com/compranal/supplier_portal/internal/errors"
	"github.com/compranal/supplier_portal/internal/httputil"
	"github.com/compranal/supplier_portal/internal/logging"
)

type bearerKey struct{}

// Claims are the JWT claims the gateway puts in internal-user tokens.
type Claims struct {
	Username string `json:"username"`
	Mail     string `json:"mail,omitempty"`
	Role     string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// AdminAuth validates the bearer token on internal routes. The token is
// issued by the gateway's directory login and signed with the shared
// HS256 secret; the raw bearer is kept in the context so handlers can
// forward it upstream.
type AdminAuth struct {
	secret []byte
	logger *logging.Logger
}

// NewAdminAuth creates the internal-route authentication middleware.
func NewAdminAuth(secret string, logger *logging.Logger) *AdminAuth {
	if logger == nil {
		logger = logging.NewDefault("auth")
	}
	return &AdminAuth{secret: []byte(secret), logger: logger}
}

// Middleware returns the authentication middleware.
func (a *AdminAuth) Middleware() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				a.reject(w, r, errors.Unauthorized("Autenticación requerida"))
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				a.reject(w, r, errors.Unauthorized("Encabezado Authorization inválido"))
				return
			}

			claims, err := a.validate(parts[1])
			if err != nil {
				a.reject(w, r, err)
				return
			}

			ctx := logging.WithUserID(r.Context(), claims.Username)
			if claims.Role != "" {
				ctx = context.WithValue(ctx, logging.RoleKey, claims.Role)
			}
			ctx = context.WithValue(ctx, bearerKey{}, parts[1])

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (a *AdminAuth) validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.InvalidToken(nil).WithDetails("method", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, errors.InvalidToken(err)
	}
	if !token.Valid {
		return nil, errors.InvalidToken(nil)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || claims.Username == "" {
		return nil, errors.InvalidToken(nil)
	}
	return claims, nil
}

func (a *AdminAuth) reject(w http.ResponseWriter, r *http.Request, err error) {
	a.logger.WithContext(r.Context()).WithError(err).WithFields(map[string]interface{}{
		"path":   r.URL.Path,
		"method": r.Method,
	}).Warn("authentication failed")
	httputil.WriteError(w, err)
}

// Bearer returns the raw bearer token placed in ctx by AdminAuth, or "".
func Bearer(ctx context.Context) string {
	if token, ok := ctx.Value(bearerKey{}).(string); ok {
		return token
	}
	return ""
}
