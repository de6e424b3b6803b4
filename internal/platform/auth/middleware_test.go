package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

var testKey = []byte("test-signing-key")

func signToken(t *testing.T, sub, name, role string) string {
	t.Helper()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Name: name,
		Role: role,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testKey)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func doRequest(mw echo.MiddlewareFunc, authHeader string) (*httptest.ResponseRecorder, *User) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var captured *User
	handler := mw(func(c echo.Context) error {
		captured = UserFromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec, captured
}

func TestJWTMiddlewareValidToken(t *testing.T) {
	id := uuid.New()
	token := signToken(t, id.String(), "Dr. House", RoleDoctor)

	rec, user := doRequest(JWTMiddleware(testKey), "Bearer "+token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if user == nil {
		t.Fatal("expected user on context")
	}
	if user.ID != id || user.Name != "Dr. House" || user.Role != RoleDoctor {
		t.Errorf("unexpected user: %+v", user)
	}
}

func TestJWTMiddlewareMissingHeader(t *testing.T) {
	rec, _ := doRequest(JWTMiddleware(testKey), "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestJWTMiddlewareBadToken(t *testing.T) {
	rec, _ := doRequest(JWTMiddleware(testKey), "Bearer not-a-token")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestJWTMiddlewareBadSubject(t *testing.T) {
	token := signToken(t, "not-a-uuid", "X", RoleDoctor)
	rec, _ := doRequest(JWTMiddleware(testKey), "Bearer "+token)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestDevAuthMiddlewareInjectsAdmin(t *testing.T) {
	rec, user := doRequest(DevAuthMiddleware(), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if user == nil || user.Role != RoleAdministrator {
		t.Errorf("expected administrator dev user, got %+v", user)
	}
}

func TestRequireRole(t *testing.T) {
	cases := []struct {
		name string
		user *User
		want int
	}{
		{"doctor allowed", &User{ID: uuid.New(), Role: RoleDoctor}, http.StatusOK},
		{"admin always allowed", &User{ID: uuid.New(), Role: RoleAdministrator}, http.StatusOK},
		{"other forbidden", &User{ID: uuid.New(), Role: RoleOther}, http.StatusForbidden},
		{"anonymous unauthorized", nil, http.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.user != nil {
				req = req.WithContext(WithUser(req.Context(), tc.user))
			}
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			handler := RequireRole(RoleDoctor)(func(c echo.Context) error {
				return c.NoContent(http.StatusOK)
			})
			if err := handler(c); err != nil {
				e.HTTPErrorHandler(err, c)
			}
			if rec.Code != tc.want {
				t.Errorf("expected %d, got %d", tc.want, rec.Code)
			}
		})
	}
}
