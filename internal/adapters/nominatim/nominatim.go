package nominatim

import (
	"context"
	"delivery-quote-service/internal/adapters/httpclient"
	"delivery-quote-service/internal/domain"
	"delivery-quote-service/internal/platform/obs"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

type Config struct {
	BaseURL     string
	CountryCode string
	// CountryName is appended to every query to bias results.
	CountryName string
}

// Client implements ports.Geocoder and ports.AddressSearcher against a
// Nominatim (OpenStreetMap) search endpoint.
type Client struct {
	http        *httpclient.Client
	log         logrus.FieldLogger
	endpoint    string
	countryCode string
	countryName string
}

func New(cfg Config, http *httpclient.Client, log logrus.FieldLogger) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("nominatim: base url is empty")
	}
	if http == nil {
		return nil, errors.New("nominatim: http client is nil")
	}

	return &Client{
		http:        http,
		log:         log,
		endpoint:    base + "/search",
		countryCode: cfg.CountryCode,
		countryName: cfg.CountryName,
	}, nil
}

type place struct {
	PlaceID     int64  `json:"place_id"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

func (p place) coordinates() (domain.Coordinates, error) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(p.Lat), 64)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("parse lat %q: %w", p.Lat, err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(p.Lon), 64)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("parse lon %q: %w", p.Lon, err)
	}

	c := domain.Coordinates{Lat: lat, Lon: lon}
	if err := c.Validate(); err != nil {
		return domain.Coordinates{}, err
	}
	return c, nil
}

// normalize collapses whitespace.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func (c *Client) qualify(text string) string {
	if c.countryName == "" {
		return text
	}
	return text + ", " + c.countryName
}

func (c *Client) search(ctx context.Context, text string, limit int, details bool) ([]place, error) {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("q", c.qualify(text))
	q.Set("limit", strconv.Itoa(limit))
	if c.countryCode != "" {
		q.Set("countrycodes", c.countryCode)
	}
	if details {
		q.Set("addressdetails", "1")
	}

	var decoded []place
	if err := c.http.GetJSON(ctx, c.endpoint, q, &decoded); err != nil {
		return nil, err
	}
	return decoded, nil
}

// Geocode resolves one address. Every failure, including transport errors,
// is reported as domain.ErrNotFound; the cause stays in the chain.
func (c *Client) Geocode(ctx context.Context, address string) (_ domain.GeocodeResult, err error) {
	defer obs.Time(ctx, c.log, "nominatim.Geocode")(&err)

	norm := normalize(address)
	if norm == "" {
		return domain.GeocodeResult{}, fmt.Errorf("geocode: empty address: %w", domain.ErrNotFound)
	}

	places, err := c.search(ctx, norm, 1, false)
	if err != nil {
		return domain.GeocodeResult{}, fmt.Errorf("geocode %q: %w: %w", norm, domain.ErrNotFound, err)
	}
	if len(places) == 0 {
		return domain.GeocodeResult{}, fmt.Errorf("geocode %q: no results: %w", norm, domain.ErrNotFound)
	}

	coords, err := places[0].coordinates()
	if err != nil {
		return domain.GeocodeResult{}, fmt.Errorf("geocode %q: %w: %w", norm, domain.ErrNotFound, err)
	}

	return domain.GeocodeResult{
		Coordinates: coords,
		DisplayName: places[0].DisplayName,
	}, nil
}

// Search returns up to limit candidates for a partial address.
// Candidates with unparsable coordinates are skipped.
func (c *Client) Search(ctx context.Context, query string, limit int) (_ []domain.AddressSuggestion, err error) {
	defer obs.Time(ctx, c.log, "nominatim.Search")(&err)

	norm := normalize(query)
	if norm == "" {
		return []domain.AddressSuggestion{}, nil
	}

	places, err := c.search(ctx, norm, limit, true)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", norm, err)
	}

	out := make([]domain.AddressSuggestion, 0, len(places))
	for _, p := range places {
		coords, err := p.coordinates()
		if err != nil {
			c.log.WithError(err).WithField("place_id", p.PlaceID).Debug("skipping suggestion")
			continue
		}
		out = append(out, domain.AddressSuggestion{
			ID:          p.PlaceID,
			DisplayName: p.DisplayName,
			Coordinates: coords,
		})
		if limit > 0 && len(out) == limit {
			break
		}
	}

	return out, nil
}
