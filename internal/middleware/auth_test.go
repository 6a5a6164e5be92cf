package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"ngabarin/gateway/internal/testutil"

	"github.com/gofiber/fiber/v2"
)

func newAuthApp() *fiber.App {
	app := fiber.New()
	app.Get("/me", AuthMiddleware, func(c *fiber.Ctx) error {
		uniqueID, _ := c.Locals("uniqueID").(string)
		return c.SendString(GetUserID(c) + " " + uniqueID)
	})
	return app
}

func do(t *testing.T, app *fiber.App, req *http.Request) (int, string) {
	t.Helper()
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestAuthMiddleware_TokenSources(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	token, err := testutil.Token("test-secret", "u1", "a@example.com", "#ALICE-123")
	if err != nil {
		t.Fatal(err)
	}

	cookie := httptest.NewRequest("GET", "/me", nil)
	cookie.Header.Set("Cookie", "token="+token)

	bearer := httptest.NewRequest("GET", "/me", nil)
	bearer.Header.Set("Authorization", "Bearer "+token)

	query := httptest.NewRequest("GET", "/me?token="+token, nil)

	for name, req := range map[string]*http.Request{"cookie": cookie, "bearer": bearer, "query": query} {
		t.Run(name, func(t *testing.T) {
			code, body := do(t, newAuthApp(), req)
			if code != fiber.StatusOK {
				t.Fatalf("expected 200, got %d", code)
			}
			if body != "u1 #ALICE-123" {
				t.Errorf("unexpected locals %q", body)
			}
		})
	}
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	app := newAuthApp()

	if code, _ := do(t, app, httptest.NewRequest("GET", "/me", nil)); code != fiber.StatusUnauthorized {
		t.Errorf("missing token: expected 401, got %d", code)
	}

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	if code, _ := do(t, app, req); code != fiber.StatusUnauthorized {
		t.Errorf("bad token: expected 401, got %d", code)
	}
}
