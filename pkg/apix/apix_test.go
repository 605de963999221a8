package apix_test

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Abraxas-365/flavormind/pkg/apix"
	"github.com/Abraxas-365/flavormind/pkg/errx"
	"github.com/gofiber/fiber/v2"
)

func newApp(diagnostic bool) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: apix.ErrorHandler(diagnostic)})
	app.Get("/ok", func(c *fiber.Ctx) error {
		return apix.OK(c, fiber.Map{"n": 1}, "Login successful")
	})
	app.Get("/created", func(c *fiber.Ctx) error {
		return apix.Created(c, nil, "")
	})
	app.Get("/validation", func(c *fiber.Ctx) error {
		return apix.ValidationFailed([]errx.FieldError{{Field: "email", Message: "Please provide a valid email", Value: "nope"}})
	})
	app.Get("/forbidden", func(c *fiber.Ctx) error {
		return errx.New("Admin access required", errx.TypeForbidden)
	})
	app.Get("/external", func(c *fiber.Ctx) error {
		return errx.New("Logout failed", errx.TypeExternal).WithCause(errors.New("redis: connection refused"))
	})
	app.Get("/raw", func(c *fiber.Ctx) error {
		return errors.New("boom")
	})
	app.Use(apix.NotFound)
	return app
}

func do(t *testing.T, app *fiber.App, path string) (int, map[string]interface{}) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
	if err != nil {
		t.Fatalf("request %s: %v", path, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	var body map[string]interface{}
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("decode %s: %v (%s)", path, err, raw)
	}
	return resp.StatusCode, body
}

func TestSuccessEnvelope(t *testing.T) {
	status, body := do(t, newApp(false), "/ok")
	if status != 200 || body["success"] != true || body["message"] != "Login successful" {
		t.Fatalf("unexpected: %d %v", status, body)
	}
	if _, ok := body["timestamp"].(string); !ok {
		t.Fatalf("timestamp missing")
	}
	if data, _ := body["data"].(map[string]interface{}); data["n"] != float64(1) {
		t.Fatalf("data lost: %v", body["data"])
	}

	status, body = do(t, newApp(false), "/created")
	if status != 201 || body["message"] != "Resource created successfully" || body["data"] != nil {
		t.Fatalf("unexpected: %d %v", status, body)
	}
}

func TestValidationEnvelope(t *testing.T) {
	status, body := do(t, newApp(false), "/validation")
	if status != 422 || body["success"] != false || body["message"] != "Validation failed" {
		t.Fatalf("unexpected: %d %v", status, body)
	}
	errs, _ := body["errors"].([]interface{})
	if len(errs) != 1 {
		t.Fatalf("errors = %v", body["errors"])
	}
	first := errs[0].(map[string]interface{})
	if first["field"] != "email" || first["value"] != "nope" {
		t.Fatalf("field error = %v", first)
	}
}

func TestProductionHidesCause(t *testing.T) {
	app := newApp(false)

	status, body := do(t, app, "/forbidden")
	if status != 403 || body["message"] != "Admin access required" || body["errors"] != nil {
		t.Fatalf("unexpected: %d %v", status, body)
	}

	status, body = do(t, app, "/external")
	if status != 500 || body["message"] != "Logout failed" || body["errors"] != nil {
		t.Fatalf("cause leaked: %d %v", status, body)
	}

	status, body = do(t, app, "/raw")
	if status != 500 || body["message"] != "Something went wrong" {
		t.Fatalf("raw error leaked: %d %v", status, body)
	}
}

func TestDiagnosticModeShowsCause(t *testing.T) {
	app := newApp(true)

	_, body := do(t, app, "/external")
	diag, _ := body["errors"].(map[string]interface{})
	if diag["cause"] != "redis: connection refused" {
		t.Fatalf("cause missing in diagnostic mode: %v", body)
	}

	_, body = do(t, app, "/raw")
	if body["message"] != "boom" {
		t.Fatalf("raw message should show in diagnostic mode: %v", body)
	}
}

func TestNotFound(t *testing.T) {
	status, body := do(t, newApp(false), "/api/v1/nope?x=1")
	if status != 404 || body["message"] != "Route /api/v1/nope?x=1 not found" {
		t.Fatalf("unexpected: %d %v", status, body)
	}
}
