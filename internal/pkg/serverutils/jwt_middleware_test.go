package serverutils

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func newProtectedApp() *fiber.App {
	app := fiber.New()
	app.Get("/protected", JwtMiddleware, func(ctx *fiber.Ctx) error {
		userId, err := UserIdFromLocals(ctx)
		if err != nil {
			return err
		}
		return ctx.SendString(userId.String())
	})
	return app
}

func request(t *testing.T, app *fiber.App, token string) (int, string) {
	t.Helper()
	req := httptest.NewRequest("GET", "/protected", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestJwtMiddleware_ValidToken(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	app := newProtectedApp()
	userId := uuid.New()

	status, body := request(t, app, signToken(t, jwt.MapClaims{"user_id": userId.String()}))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, userId.String(), body)
}

func TestJwtMiddleware_MissingToken(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	status, _ := request(t, newProtectedApp(), "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestJwtMiddleware_SignedTokenWithoutSubject(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	app := newProtectedApp()

	// validly signed, but no user_id claim at all
	status, _ := request(t, app, signToken(t, jwt.MapClaims{"role": "user"}))
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestJwtMiddleware_SignedTokenWithNonStringSubject(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	app := newProtectedApp()

	status, _ := request(t, app, signToken(t, jwt.MapClaims{"user_id": 12345}))
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestJwtMiddleware_SignedTokenWithNonUuidSubject(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	app := newProtectedApp()

	status, _ := request(t, app, signToken(t, jwt.MapClaims{"user_id": "not-a-uuid"}))
	assert.Equal(t, fiber.StatusUnauthorized, status)
}
