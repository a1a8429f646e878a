// Package fleet talks to the third-party fleet routing API that tracks live
// vehicle positions. Vehicles are keyed by driver id.
package fleet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var ErrNotConfigured = errors.New("fleet api key is not configured")

type LatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type Location struct {
	LatLng LatLng `json:"latLng"`
	Time   string `json:"time"`
}

type Vehicle struct {
	VehicleID    string    `json:"vehicleId"`
	LastLocation *Location `json:"lastLocation,omitempty"`
}

type listResponse struct {
	Vehicles []Vehicle `json:"vehicles"`
}

type createRequest struct {
	VehicleID     string   `json:"vehicleId"`
	Name          string   `json:"name"`
	StartLocation Location `json:"startLocation"`
}

type updateRequest struct {
	VehicleState struct {
		Location LatLng `json:"location"`
	} `json:"vehicleState"`
	UpdateMask string `json:"updateMask"`
}

// StatusError is returned for any non-2xx response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fleet api returned %d: %s", e.StatusCode, e.Body)
}

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

// ListVehicles returns every vehicle the fleet service knows about.
func (c *Client) ListVehicles(ctx context.Context) ([]Vehicle, error) {
	var out listResponse
	if err := c.do(ctx, http.MethodGet, "/v1/fleets/vehicles", nil, &out); err != nil {
		return nil, err
	}
	return out.Vehicles, nil
}

// CreateVehicle registers a vehicle starting at lat/lng.
func (c *Client) CreateVehicle(ctx context.Context, id, name string, lat, lng float64) error {
	body := createRequest{
		VehicleID:     id,
		Name:          name,
		StartLocation: Location{LatLng: LatLng{Latitude: lat, Longitude: lng}},
	}
	return c.do(ctx, http.MethodPost, "/v1/fleets:createVehicle", body, nil)
}

// UpdateVehicleLocation pushes a new position for an existing vehicle.
func (c *Client) UpdateVehicleLocation(ctx context.Context, id string, lat, lng float64) error {
	var body updateRequest
	body.VehicleState.Location = LatLng{Latitude: lat, Longitude: lng}
	body.UpdateMask = "vehicleState.location"
	return c.do(ctx, http.MethodPost, "/v1/fleets/vehicles/"+url.PathEscape(id)+":updateVehicle", body, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	if c.apiKey == "" {
		return ErrNotConfigured
	}

	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(buf)
	}

	endpoint := c.baseURL + path + "?key=" + url.QueryEscape(c.apiKey)
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("fleet api %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
