package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"time"
)

const defaultBaseURL = "https://maps.googleapis.com/maps/api/geocode"

// ErrNoPostalCode means the coordinates resolved to an address without a
// usable US ZIP code.
var ErrNoPostalCode = errors.New("no postal code for location")

var zipPattern = regexp.MustCompile(`^\d{5}$`)

// Client calls the Google Geocoding API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewClient(apiKey string) *Client {
	return NewClientWithBaseURL(apiKey, defaultBaseURL)
}

func NewClientWithBaseURL(apiKey, baseURL string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Location is a reverse-geocoded point.
type Location struct {
	ZIPCode string `json:"zipCode"`
	Address string `json:"address"`
}

type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		FormattedAddress  string `json:"formatted_address"`
		AddressComponents []struct {
			LongName string   `json:"long_name"`
			Types    []string `json:"types"`
		} `json:"address_components"`
	} `json:"results"`
}

// ReverseGeocode resolves lat/lng to a 5-digit ZIP by scanning the first
// result's address components. Returns ErrNoPostalCode when no component
// matches or the value is not a 5-digit string.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lng float64) (*Location, error) {
	endpoint := fmt.Sprintf("%s/json?latlng=%s&key=%s",
		c.baseURL,
		url.QueryEscape(fmt.Sprintf("%f,%f", lat, lng)),
		url.QueryEscape(c.apiKey),
	)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("geocoding request failed: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, _ := io.ReadAll(httpResp.Body)

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoding API returned status %d", httpResp.StatusCode)
	}

	var resp geocodeResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse geocoding response: %w", err)
	}

	if resp.Status != "OK" || len(resp.Results) == 0 {
		return nil, ErrNoPostalCode
	}

	for _, result := range resp.Results {
		for _, component := range result.AddressComponents {
			if !hasType(component.Types, "postal_code") {
				continue
			}
			if !zipPattern.MatchString(component.LongName) {
				continue
			}
			return &Location{
				ZIPCode: component.LongName,
				Address: result.FormattedAddress,
			}, nil
		}
	}

	return nil, ErrNoPostalCode
}

func hasType(types []string, want string) bool {
	for _, t := range types {
		if t == want {
			return true
		}
	}
	return false
}
