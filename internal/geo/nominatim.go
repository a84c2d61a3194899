package geo

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"woflstrology/internal/model"
)

// NominatimResolver geocodes through an OpenStreetMap Nominatim instance.
type NominatimResolver struct {
	BaseURL   string
	UserAgent string
	Client    *http.Client
	Zones     ZoneFinder
}

// NewNominatimResolver creates a resolver with an optional proxy.
func NewNominatimResolver(baseURL, userAgent, proxyURL string, timeout time.Duration) *NominatimResolver {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &NominatimResolver{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		UserAgent: userAgent,
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

func (r *NominatimResolver) Name() string { return "nominatim" }

// nominatimResult is one entry of the /search response.
type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Type        string `json:"type"`
	Address     struct {
		City    string `json:"city"`
		Town    string `json:"town"`
		Village string `json:"village"`
		State   string `json:"state"`
		Country string `json:"country"`
	} `json:"address"`
}

func (n nominatimResult) label() string {
	city := n.Address.City
	if city == "" {
		city = n.Address.Town
	}
	if city == "" {
		city = n.Address.Village
	}
	if city == "" {
		city = n.Name
	}
	switch {
	case city != "" && n.Address.Country != "":
		return city + ", " + n.Address.Country
	case city != "":
		return city
	}
	return n.DisplayName
}

// Resolve looks up query and returns the best match.
func (r *NominatimResolver) Resolve(ctx context.Context, query string) (model.Location, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return model.Location{}, ErrEmptyQuery
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("addressdetails", "1")
	params.Set("limit", "1")
	params.Set("accept-language", "en")
	u := fmt.Sprintf("%s/search?%s", r.BaseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return model.Location{}, err
	}
	req.Header.Set("User-Agent", r.UserAgent)

	resp, err := r.Client.Do(req)
	if err != nil {
		return model.Location{}, fmt.Errorf("nominatim fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.Location{}, fmt.Errorf("nominatim read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return model.Location{}, fmt.Errorf("nominatim: status %d, body: %s", resp.StatusCode, string(body))
	}

	var results []nominatimResult
	if err := json.Unmarshal(body, &results); err != nil {
		return model.Location{}, fmt.Errorf("nominatim decode: %w", err)
	}
	if len(results) == 0 {
		return model.Location{}, fmt.Errorf("%q: %w", query, ErrLocationNotFound)
	}

	first := results[0]
	lat, err := strconv.ParseFloat(first.Lat, 64)
	if err != nil {
		return model.Location{}, fmt.Errorf("nominatim: bad latitude %q: %w", first.Lat, err)
	}
	lon, err := strconv.ParseFloat(first.Lon, 64)
	if err != nil {
		return model.Location{}, fmt.Errorf("nominatim: bad longitude %q: %w", first.Lon, err)
	}

	return r.Zones.Apply(model.Location{
		Query:       query,
		Name:        first.label(),
		Coordinates: model.Coordinates{Lat: lat, Lon: lon},
		Source:      r.Name(),
	}), nil
}
