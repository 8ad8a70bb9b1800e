package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is the raw HTTP interface to the hospital registry feed
type Client interface {
	ListHospitals(ctx context.Context, region string) (*HospitalListResponse, error)
	GetCapacity(ctx context.Context, hospitalID string) (*CapacityResponse, error)
}

type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// HospitalPayload is the loose upstream directory record. Validation into
// the strict entity shape happens in the registry adapter, not here.
type HospitalPayload struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Address     string   `json:"address"`
	PhoneNumber string   `json:"phoneNumber"`
	Specialties []string `json:"specialties"`
	Location    struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"location"`
}

type HospitalListResponse struct {
	Data      []HospitalPayload `json:"data"`
	Timestamp time.Time         `json:"timestamp"`
}

// CapacityResponse is the loose upstream capacity record for one hospital
type CapacityResponse struct {
	HospitalID    string          `json:"hospitalId"`
	GeneralBeds   *int            `json:"generalBeds"`
	SpecialtyBeds map[string]int  `json:"specialtyBeds"`
	Equipment     map[string]bool `json:"equipment"`
	TypicalBeds   *int            `json:"typicalBeds"`
	ObservedAt    time.Time       `json:"observedAt"`
}

func NewClient(baseURL string, timeout time.Duration) *HTTPClient {
	trimmed := strings.TrimRight(baseURL, "/")
	return &HTTPClient{
		baseURL: trimmed,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// WithHTTPClient overrides the underlying HTTP client, used in tests
func (c *HTTPClient) WithHTTPClient(client *http.Client) *HTTPClient {
	c.httpClient = client
	return c
}

func (c *HTTPClient) ListHospitals(ctx context.Context, region string) (*HospitalListResponse, error) {
	parsed, err := url.Parse(fmt.Sprintf("%s/hospitals", c.baseURL))
	if err != nil {
		return nil, err
	}
	query := parsed.Query()
	if region != "" {
		query.Set("region", region)
	}
	parsed.RawQuery = query.Encode()

	out := &HospitalListResponse{}
	if err := c.doJSON(ctx, http.MethodGet, parsed.String(), out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) GetCapacity(ctx context.Context, hospitalID string) (*CapacityResponse, error) {
	if strings.TrimSpace(hospitalID) == "" {
		return nil, fmt.Errorf("hospital id is required")
	}
	endpoint := fmt.Sprintf("%s/hospitals/%s/capacity", c.baseURL, url.PathEscape(hospitalID))
	out := &CapacityResponse{}
	if err := c.doJSON(ctx, http.MethodGet, endpoint, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) doJSON(ctx context.Context, method, endpoint string, out interface{}) error {
	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("registry returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return err
	}

	return nil
}
