package scanclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"roomscan/pkg/domain"
)

func TestDetectUploadsMultipartAndDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/detect" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		file, header, err := r.FormFile("image")
		if err != nil {
			t.Errorf("form file: %v", err)
		} else {
			file.Close()
			if header.Filename != "scan.jpg" {
				t.Errorf("filename = %q", header.Filename)
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"detections": []domain.DetectedFurniture{
				{ID: "d1", Label: "sofa", Confidence: 0.91, Box: domain.BoundingBox{X: 0.1, Y: 0.2, Width: 0.5, Height: 0.4}},
			},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	detections, err := client.Detect(context.Background(), []byte("jpegdata"), "scan.jpg", "image/jpeg")
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if len(detections) != 1 || detections[0].Label != "sofa" {
		t.Fatalf("unexpected detections: %+v", detections)
	}
}

func TestDetectSurfacesBackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "vision unavailable"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	if _, err := client.Detect(context.Background(), []byte("x"), "scan.jpg", "image/jpeg"); err == nil {
		t.Fatalf("expected error for success=false")
	}
}

func TestMatchesClampsLimitAndDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("limit"); got != "10" {
			t.Errorf("limit = %q, want clamped 10", got)
		}
		if got := r.URL.Query().Get("category"); got != "sofa" {
			t.Errorf("category = %q", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success":  true,
			"category": "sofa",
			"products": []domain.ProductMatch{{ID: "p1", Name: "Loveseat", Retailer: "Wayfair"}},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	products, err := client.Matches(context.Background(), "sofa", 25)
	if err != nil {
		t.Fatalf("matches: %v", err)
	}
	if len(products) != 1 || products[0].Retailer != "Wayfair" {
		t.Fatalf("unexpected products: %+v", products)
	}
}

func TestMatchesRejectsEmptyCategory(t *testing.T) {
	client := NewClient("http://127.0.0.1:0", time.Second)
	if _, err := client.Matches(context.Background(), "  ", 3); err == nil {
		t.Fatalf("expected error for empty category")
	}
}

func TestMatchAllPreservesOrder(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		category := r.URL.Query().Get("category")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success":  true,
			"category": category,
			"products": []domain.ProductMatch{{ID: "p-" + category, Name: category}},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	detections := []domain.DetectedFurniture{
		{ID: "d1", Label: "sofa"},
		{ID: "d2", Label: "lamp"},
		{ID: "d3", Label: "table"},
	}
	results, err := client.MatchAll(context.Background(), detections, 3)
	if err != nil {
		t.Fatalf("match all: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("results len = %d", len(results))
	}
	for i, det := range detections {
		if len(results[i]) != 1 || results[i][0].ID != "p-"+det.Label {
			t.Fatalf("result %d out of order: %+v", i, results[i])
		}
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestMatchAllPropagatesFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("category") == "lamp" {
			w.WriteHeader(http.StatusBadGateway)
			_ = json.NewEncoder(w).Encode(map[string]string{"detail": "retailer down"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "products": []domain.ProductMatch{}})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, time.Second)
	detections := []domain.DetectedFurniture{{Label: "sofa"}, {Label: "lamp"}}
	_, err := client.MatchAll(context.Background(), detections, 3)
	if err == nil {
		t.Fatalf("expected propagated failure")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadGateway {
		t.Fatalf("expected APIError 502, got %v", err)
	}
}
