package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/legacy-capsule/capsule-backend/internal/catalog"
)

func catalogSnapshot(t *testing.T) *catalog.Snapshot {
	t.Helper()
	snap, err := catalog.NewSnapshot(
		[]catalog.Template{
			{ID: "memory-letter", Name: "Memory Letter", Price: decimal.RequireFromString("12.99"), Fields: []string{"title", "message", "signature"}},
			{ID: "birthday-card", Name: "Birthday Time Capsule Card", Price: decimal.RequireFromString("9.99")},
		},
		[]catalog.Bundle{
			{ID: "milestone", Name: "Milestone Bundle", OriginalPrice: decimal.RequireFromString("22.98"), SalePrice: decimal.RequireFromString("17.99"), Templates: []string{"memory-letter", "birthday-card"}},
		},
	)
	if err != nil {
		t.Fatalf("build snapshot: %v", err)
	}
	return snap
}

func TestListTemplates(t *testing.T) {
	t.Parallel()

	handler := ListTemplates(catalogSnapshot(t), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/templates", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data []catalog.Template `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data) != 2 {
		t.Fatalf("expected 2 templates, got %d", len(envelope.Data))
	}
	if envelope.Data[0].ID != "memory-letter" {
		t.Fatalf("unexpected first template: %s", envelope.Data[0].ID)
	}
}

func TestListBundles(t *testing.T) {
	t.Parallel()

	handler := ListBundles(catalogSnapshot(t), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bundles", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data []catalog.Bundle `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data) != 1 || envelope.Data[0].ID != "milestone" {
		t.Fatalf("unexpected bundles: %+v", envelope.Data)
	}
}

func TestListTemplatesNilSnapshot(t *testing.T) {
	t.Parallel()

	handler := ListTemplates(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/templates", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", resp.Code)
	}
}
