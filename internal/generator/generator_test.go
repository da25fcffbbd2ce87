package generator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/blogforge/distributor/internal/logger"
	"github.com/blogforge/distributor/internal/models"
)

func testSpec() *models.CampaignSpec {
	return &models.CampaignSpec{
		Identity: models.CoreIdentity{PrimaryKeyword: "best crm"},
	}
}

func TestClient_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/generate" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("auth header = %q", got)
		}
		var spec models.CampaignSpec
		if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
			t.Errorf("decode brief: %v", err)
		}
		if spec.Identity.PrimaryKeyword != "best crm" {
			t.Errorf("keyword = %q", spec.Identity.PrimaryKeyword)
		}
		json.NewEncoder(w).Encode(models.GeneratedContent{
			H1:       "Ten CRM Tips",
			BodyHTML: "<p>body</p>",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret", 5*time.Second, logger.NewNopLogger())
	content, err := client.Generate(context.Background(), testSpec())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if content.H1 != "Ten CRM Tips" {
		t.Errorf("h1 = %q", content.H1)
	}
}

func TestClient_Generate_ServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "brief rejected", http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 5*time.Second, logger.NewNopLogger())
	_, err := client.Generate(context.Background(), testSpec())
	if !errors.Is(err, ErrGenerationFailed) {
		t.Fatalf("expected ErrGenerationFailed, got %v", err)
	}
}

func TestClient_Generate_EmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.GeneratedContent{H1: "title only"})
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 5*time.Second, logger.NewNopLogger())
	_, err := client.Generate(context.Background(), testSpec())
	if !errors.Is(err, ErrGenerationFailed) {
		t.Fatalf("expected ErrGenerationFailed for empty body, got %v", err)
	}
}
