package listing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestResolveMapsCatalogResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/cars/car-42" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "car-42",
			"title": "Toyota Avanza 1.3 G 2019",
			"price": "Rp 165.000.000",
			"year": 2019,
			"mileage": 45000,
			"color": "Silver",
			"image_url": "https://cdn.example.com/car-42.jpg"
		}`))
	}))
	defer srv.Close()

	car, err := NewClient(srv.URL).Resolve(context.Background(), "car-42")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if car.CarID != "car-42" || car.Title != "Toyota Avanza 1.3 G 2019" {
		t.Fatalf("unexpected car: %+v", car)
	}
	if car.Price != "Rp 165.000.000" || car.Year != 2019 || car.Mileage != 45000 {
		t.Fatalf("fields not mapped: %+v", car)
	}
}

func TestResolveNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Resolve(context.Background(), "car-999")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResolveServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL).Resolve(context.Background(), "car-1"); err == nil {
		t.Fatal("expected error for 500 response")
	}
}

func TestResolveRequiresID(t *testing.T) {
	if _, err := NewClient("http://localhost").Resolve(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty id")
	}
}
