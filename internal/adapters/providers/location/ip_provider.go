package location

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/carelink/er-routing/internal/domain/entities"
	"github.com/carelink/er-routing/internal/domain/providers"
)

// IPProvider resolves an approximate position from an ipapi-style JSON
// endpoint. Used when no device-level position source is wired in.
type IPProvider struct {
	endpoint   string
	httpClient *http.Client
}

// NewIPProvider creates an IP-geolocation provider
func NewIPProvider(endpoint string, timeout time.Duration) providers.LocationProvider {
	return &IPProvider{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (p *IPProvider) Locate(ctx context.Context) (entities.GeoPoint, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint, nil)
	if err != nil {
		return entities.GeoPoint{}, err
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return entities.GeoPoint{}, fmt.Errorf("ip geolocation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return entities.GeoPoint{}, fmt.Errorf("ip geolocation returned status %d", resp.StatusCode)
	}

	var payload struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return entities.GeoPoint{}, fmt.Errorf("ip geolocation returned invalid payload: %w", err)
	}

	point := entities.GeoPoint{
		Latitude:   payload.Latitude,
		Longitude:  payload.Longitude,
		ObservedAt: time.Now(),
	}
	if err := point.Validate(); err != nil {
		return entities.GeoPoint{}, err
	}
	return point, nil
}
