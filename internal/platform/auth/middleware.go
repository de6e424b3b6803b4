package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// Roles recognised in access tokens.
const (
	RoleAdministrator = "administrator"
	RoleDoctor        = "doctor"
	RoleOther         = "other"
)

// User is the acting user extracted from an access token. The discharge
// workflow stamps audit notes with it.
type User struct {
	ID   uuid.UUID
	Name string
	Role string
}

type contextKey string

const userKey contextKey = "acting_user"

type Claims struct {
	jwt.RegisteredClaims
	Name string `json:"name"`
	Role string `json:"role"`
}

// JWTMiddleware validates HMAC-signed bearer tokens and places the acting
// user on the request context.
func JWTMiddleware(signingKey []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
			}

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
				return signingKey, nil
			}, jwt.WithValidMethods([]string{"HS256"}))
			if err != nil || !token.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			userID, err := uuid.Parse(claims.Subject)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid subject")
			}

			user := &User{ID: userID, Name: claims.Name, Role: claims.Role}
			c.SetRequest(c.Request().WithContext(WithUser(c.Request().Context(), user)))
			return next(c)
		}
	}
}

// DevAuthMiddleware grants unauthenticated requests an administrator identity.
// Development only.
func DevAuthMiddleware() echo.MiddlewareFunc {
	devUser := &User{
		ID:   uuid.MustParse("00000000-0000-0000-0000-000000000001"),
		Name: "Dev Admin",
		Role: RoleAdministrator,
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if UserFromContext(c.Request().Context()) == nil {
				c.SetRequest(c.Request().WithContext(WithUser(c.Request().Context(), devUser)))
			}
			return next(c)
		}
	}
}

// WithUser returns a context carrying the acting user.
func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFromContext returns the acting user, or nil when unauthenticated.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userKey).(*User)
	return u
}
