package integration

import (
	"net/http"
	"testing"

	"github.com/acikit/go-aci-validator/internal/domain"
)

// entryResponse mirrors the registry entry JSON returned by the API.
type entryResponse struct {
	Name       string                   `json:"name"`
	Descriptor domain.ServerDescriptor  `json:"descriptor"`
	Outcome    *domain.ValidationOutcome `json:"outcome"`
	Details    *domain.ServerDescriptor `json:"details"`
}

func TestListAndGetServers(t *testing.T) {
	h := NewTestHarness(t)
	h.Store.Register("content", h.IDOL.Descriptor())

	t.Run("list", func(t *testing.T) {
		var body struct {
			Servers []entryResponse `json:"servers"`
		}
		h.GET("/api/servers").Status(http.StatusOK).JSON(&body)

		if len(body.Servers) != 1 {
			t.Fatalf("Expected 1 server, got %d", len(body.Servers))
		}
		if body.Servers[0].Name != "content" {
			t.Errorf("Expected server 'content', got %q", body.Servers[0].Name)
		}
		if body.Servers[0].Outcome != nil {
			t.Error("Expected no outcome before validation")
		}
	})

	t.Run("get", func(t *testing.T) {
		var entry entryResponse
		h.GET("/api/servers/content").Status(http.StatusOK).JSON(&entry)
		if entry.Descriptor.Port != h.IDOL.ACIPort {
			t.Errorf("Expected ACI port %d, got %d", h.IDOL.ACIPort, entry.Descriptor.Port)
		}
	})

	t.Run("get unknown", func(t *testing.T) {
		h.GET("/api/servers/nope").Status(http.StatusNotFound)
	})
}

func TestValidateRegisteredServer(t *testing.T) {
	h := NewTestHarness(t)
	h.Store.Register("content", h.IDOL.Descriptor())

	var entry entryResponse
	h.WithAuth(testAdminToken).
		POST("/api/servers/content/validate", nil).
		Status(http.StatusOK).
		JSON(&entry)

	if entry.Outcome == nil || !entry.Outcome.Valid {
		t.Fatalf("Expected a valid outcome, got %+v", entry.Outcome)
	}
	if entry.Details == nil {
		t.Fatal("Expected discovered details")
	}
	if entry.Details.IndexPort != h.IDOL.IndexPort {
		t.Errorf("Expected discovered index port %d, got %d", h.IDOL.IndexPort, entry.Details.IndexPort)
	}
	if entry.Details.ServicePort != h.IDOL.ServicePort {
		t.Errorf("Expected discovered service port %d, got %d", h.IDOL.ServicePort, entry.Details.ServicePort)
	}

	// the outcome is persisted in the registry
	var after entryResponse
	h.GET("/api/servers/content").Status(http.StatusOK).JSON(&after)
	if after.Outcome == nil || !after.Outcome.Valid {
		t.Error("Expected the stored entry to carry the outcome")
	}
}

func TestValidateWrongServerType(t *testing.T) {
	h := NewTestHarness(t)

	sd := h.IDOL.Descriptor()
	sd.ProductTypes = []domain.ProductType{domain.ProductTypeDIH}
	h.Store.Register("content", sd)

	var entry entryResponse
	h.WithAuth(testAdminToken).
		POST("/api/servers/content/validate", nil).
		Status(http.StatusOK).
		JSON(&entry)

	if entry.Outcome == nil || entry.Outcome.Valid {
		t.Fatalf("Expected an invalid outcome, got %+v", entry.Outcome)
	}
	if entry.Outcome.Reason != domain.ValidationIncorrectServerType {
		t.Errorf("Expected INCORRECT_SERVER_TYPE, got %q", entry.Outcome.Reason)
	}
	if len(entry.Outcome.FriendlyNames) != 1 || entry.Outcome.FriendlyNames[0] != "Distributed Index Handler" {
		t.Errorf("Unexpected friendly names: %v", entry.Outcome.FriendlyNames)
	}
}

func TestValidateRequiresAdminToken(t *testing.T) {
	h := NewTestHarness(t)
	h.Store.Register("content", h.IDOL.Descriptor())

	h.POST("/api/servers/content/validate", nil).Status(http.StatusUnauthorized)
	h.WithAuth("wrong-token").POST("/api/servers/content/validate", nil).Status(http.StatusUnauthorized)
}

func TestAdHocValidation(t *testing.T) {
	h := NewTestHarness(t)

	t.Run("reachable server", func(t *testing.T) {
		var body struct {
			Outcome domain.ValidationOutcome `json:"outcome"`
			Details *domain.ServerDescriptor `json:"details"`
		}
		h.WithAuth(testAdminToken).
			POST("/api/validate", h.IDOL.Descriptor()).
			Status(http.StatusOK).
			JSON(&body)

		if !body.Outcome.Valid {
			t.Fatalf("Expected a valid outcome, got %+v", body.Outcome)
		}
		if body.Details == nil || body.Details.IndexPort != h.IDOL.IndexPort {
			t.Errorf("Expected discovered index port %d, got %+v", h.IDOL.IndexPort, body.Details)
		}
	})

	t.Run("missing host", func(t *testing.T) {
		var body struct {
			Outcome domain.ValidationOutcome `json:"outcome"`
		}
		h.WithAuth(testAdminToken).
			POST("/api/validate", domain.ServerDescriptor{Port: 9000}).
			Status(http.StatusOK).
			JSON(&body)

		if body.Outcome.Valid || body.Outcome.Reason != domain.ValidationRequiredFieldMissing {
			t.Errorf("Expected REQUIRED_FIELD_MISSING, got %+v", body.Outcome)
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		h.WithAuth(testAdminToken).
			POST("/api/validate", "not a descriptor").
			Status(http.StatusBadRequest)
	})
}
