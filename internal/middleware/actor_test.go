package middleware

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/netbill/netbill/internal/ledger"
)

func newActorApp() *fiber.App {
	app := fiber.New()
	app.Use(ActorContext())
	app.Get("/whoami", func(c *fiber.Ctx) error {
		actor, _ := ledger.ActorFromContext(c)
		return c.JSON(fiber.Map{"actor_id": actor.ID, "tenant_id": actor.TenantID})
	})
	return app
}

func TestActorContextRejectsMissingHeaders(t *testing.T) {
	app := newActorApp()

	req := httptest.NewRequest(fiber.MethodGet, "/whoami", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected %d got %d", fiber.StatusUnauthorized, resp.StatusCode)
	}
}

func TestActorContextRejectsMalformedIdentity(t *testing.T) {
	app := newActorApp()

	req := httptest.NewRequest(fiber.MethodGet, "/whoami", nil)
	req.Header.Set("X-Actor-ID", "not-a-uuid")
	req.Header.Set("X-Tenant-ID", "11111111-1111-1111-1111-111111111111")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("expected %d got %d", fiber.StatusUnauthorized, resp.StatusCode)
	}
}

func TestActorContextForwardsIdentity(t *testing.T) {
	app := newActorApp()

	req := httptest.NewRequest(fiber.MethodGet, "/whoami", nil)
	req.Header.Set("X-Actor-ID", "eeeeeeee-eeee-eeee-eeee-eeeeeeeeeeee")
	req.Header.Set("X-Tenant-ID", "11111111-1111-1111-1111-111111111111")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected %d got %d", fiber.StatusOK, resp.StatusCode)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	resp.Body.Close()

	var decoded map[string]string
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded["actor_id"] != "eeeeeeee-eeee-eeee-eeee-eeeeeeeeeeee" {
		t.Fatalf("actor not forwarded: %v", decoded)
	}
	if decoded["tenant_id"] != "11111111-1111-1111-1111-111111111111" {
		t.Fatalf("tenant not forwarded: %v", decoded)
	}
}
