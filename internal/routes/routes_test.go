package routes

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"ngabarin/gateway/internal/handlers"
	"ngabarin/gateway/internal/testutil"
	ws "ngabarin/gateway/internal/websocket"

	"github.com/gofiber/fiber/v2"
)

func newApp(t *testing.T) *fiber.App {
	t.Helper()
	app := fiber.New()
	h := handlers.New(ws.NewHub(nil), ws.ClientOptions{}, t.TempDir(), 1)
	SetupRoutes(app, h)
	return app
}

func TestHealth(t *testing.T) {
	resp, err := newApp(t).Test(httptest.NewRequest("GET", "/api/v1/health", nil))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK || body["status"] != "ok" {
		t.Errorf("unexpected health response %d %v", resp.StatusCode, body)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	app := newApp(t)

	for _, path := range []string{"/api/v1/ws", "/api/v1/ws/stats"} {
		resp, err := app.Test(httptest.NewRequest("GET", path, nil))
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != fiber.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", path, resp.StatusCode)
		}
	}
}

func TestWebSocketRouteRequiresUpgrade(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	token, err := testutil.Token("test-secret", "u1", "a@example.com", "#A-1")
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest("GET", "/api/v1/ws", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := newApp(t).Test(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != fiber.StatusUpgradeRequired {
		t.Errorf("expected 426, got %d", resp.StatusCode)
	}
}
