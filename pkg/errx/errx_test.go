package errx_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/Abraxas-365/flavormind/pkg/errx"
)

var testRegistry = errx.NewRegistry("TEST")

var (
	codeMissing = testRegistry.Register("MISSING", errx.TypeNotFound, http.StatusNotFound, "Thing not found")
	codeDown    = testRegistry.Register("DOWN", errx.TypeExternal, http.StatusInternalServerError, "Upstream unavailable")
)

func TestRegistryPrefixesCodes(t *testing.T) {
	err := testRegistry.New(codeMissing)
	if err.Code != "TEST_MISSING" {
		t.Fatalf("code = %q", err.Code)
	}
	if err.HTTPStatus != http.StatusNotFound || err.Message != "Thing not found" {
		t.Fatalf("unexpected error: %+v", err)
	}
	if _, ok := testRegistry.Get("MISSING"); !ok {
		t.Fatalf("registered code not retrievable")
	}
}

func TestHasCodeWalksChain(t *testing.T) {
	inner := testRegistry.NewWithCause(codeDown, errors.New("dial tcp: refused"))
	outer := fmt.Errorf("resolve account: %w", inner)

	if !errx.HasCode(outer, codeDown) {
		t.Fatalf("code not found through fmt wrapping")
	}
	if errx.HasCode(outer, codeMissing) {
		t.Fatalf("unexpected match")
	}
	if errx.HasCode(errors.New("plain"), codeDown) {
		t.Fatalf("plain error should not match")
	}
}

func TestWrapKeepsRegisteredCode(t *testing.T) {
	base := testRegistry.New(codeMissing).WithDetail("id", "abc")
	wrapped := errx.Wrap(base, "lookup failed", errx.TypeNotFound)

	if wrapped.Code != "TEST_MISSING" || wrapped.HTTPStatus != http.StatusNotFound {
		t.Fatalf("wrap lost code: %+v", wrapped)
	}
	if wrapped.Details["id"] != "abc" {
		t.Fatalf("wrap lost details")
	}
	if errx.Wrap(nil, "x", errx.TypeInternal) != nil {
		t.Fatalf("wrapping nil must return nil")
	}
}

func TestStatusOfAndPublicMessage(t *testing.T) {
	if got := errx.StatusOf(errx.New("Admin access required", errx.TypeForbidden)); got != http.StatusForbidden {
		t.Fatalf("forbidden status = %d", got)
	}
	if got := errx.StatusOf(errx.New("Too many attempts", errx.TypeBusiness)); got != http.StatusBadRequest {
		t.Fatalf("business status = %d", got)
	}
	raw := errors.New("pq: connection reset")
	if got := errx.StatusOf(raw); got != http.StatusInternalServerError {
		t.Fatalf("raw status = %d", got)
	}
	if got := errx.PublicMessage(raw, "Something went wrong"); got != "Something went wrong" {
		t.Fatalf("raw error text leaked: %q", got)
	}
}
