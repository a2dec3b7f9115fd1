// Package listing resolves car listing metadata from the catalog service.
package listing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/otomarket/chat-platform/internal/model"
)

// ErrNotFound is returned when the catalog has no listing with that ID.
var ErrNotFound = errors.New("listing not found")

// Resolver resolves a listing ID to its display metadata.
type Resolver interface {
	Resolve(ctx context.Context, carID string) (*model.CarInfo, error)
}

// Client is an HTTP client for the listing catalog.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a catalog client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// catalogCar is the catalog's wire shape for one listing.
type catalogCar struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Price    string `json:"price"`
	Year     int    `json:"year"`
	Mileage  int    `json:"mileage"`
	Color    string `json:"color"`
	ImageURL string `json:"image_url"`
}

// Resolve fetches display metadata for one listing.
func (c *Client) Resolve(ctx context.Context, carID string) (*model.CarInfo, error) {
	if carID == "" {
		return nil, errors.New("car id is required")
	}

	endpoint := fmt.Sprintf("%s/api/v1/cars/%s", c.baseURL, url.PathEscape(carID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrNotFound
	default:
		return nil, fmt.Errorf("catalog returned status %d", resp.StatusCode)
	}

	var car catalogCar
	if err := json.NewDecoder(resp.Body).Decode(&car); err != nil {
		return nil, fmt.Errorf("decode catalog response: %w", err)
	}

	return &model.CarInfo{
		CarID:    car.ID,
		Title:    car.Title,
		Price:    car.Price,
		Year:     car.Year,
		Mileage:  car.Mileage,
		Color:    car.Color,
		ImageURL: car.ImageURL,
	}, nil
}
