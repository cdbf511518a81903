package distance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"delivery-route-service/internal/domain"
	"delivery-route-service/internal/platform/obs"
	"delivery-route-service/internal/ports"
)

type geocodeResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

// RemoteGeocodeProvider resolves addresses via an OpenRouteService-style
// /geocode/search endpoint. It backs the optional pre-partition step for
// depots/orders whose Location carries only an Address.
type RemoteGeocodeProvider struct {
	transport *httpTransport
	baseURL   string
}

func NewRemoteGeocodeProvider(baseURL, apiKey string, timeout time.Duration) *RemoteGeocodeProvider {
	return &RemoteGeocodeProvider{
		transport: newHTTPTransport(apiKey, timeout),
		baseURL:   strings.TrimRight(baseURL, "/"),
	}
}

func (p *RemoteGeocodeProvider) Geocode(ctx context.Context, address string) (_ domain.Location, err error) {
	defer obs.Time(ctx, "geocode.remote")(&err)

	address = strings.TrimSpace(address)
	if address == "" {
		return domain.Location{}, fmt.Errorf("geocode: address must not be empty")
	}

	endpoint := p.baseURL + "/geocode/search"

	resp, err := p.transport.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := p.transport.newRequest(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		q := req.URL.Query()
		q.Set("text", address)
		q.Set("size", "1")
		req.URL.RawQuery = q.Encode()
		return req, nil
	})
	if err != nil {
		return domain.Location{}, fmt.Errorf("geocode %q: %w", address, err)
	}
	defer resp.Body.Close()

	var decoded geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.Location{}, fmt.Errorf("geocode %q: decode response: %w", address, err)
	}

	if len(decoded.Features) == 0 {
		return domain.Location{}, fmt.Errorf("geocode %q: no results", address)
	}

	coords := decoded.Features[0].Geometry.Coordinates
	if len(coords) != 2 {
		return domain.Location{}, fmt.Errorf("geocode %q: invalid coordinate format", address)
	}

	return domain.Location{Lng: coords[0], Lat: coords[1], Address: address}, nil
}

var _ ports.GeocodeProvider = (*RemoteGeocodeProvider)(nil)
