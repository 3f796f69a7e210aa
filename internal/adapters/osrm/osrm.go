package osrm

import (
	"context"
	"delivery-quote-service/internal/adapters/httpclient"
	"delivery-quote-service/internal/domain"
	"delivery-quote-service/internal/platform/obs"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
)

// Client implements ports.RouteProvider using the OSRM route service.
type Client struct {
	http    *httpclient.Client
	log     logrus.FieldLogger
	baseURL string
	profile string
}

func New(baseURL string, http *httpclient.Client, log logrus.FieldLogger) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return nil, errors.New("osrm: base url is empty")
	}
	if http == nil {
		return nil, errors.New("osrm: http client is nil")
	}

	return &Client{
		http:    http,
		log:     log,
		baseURL: base,
		profile: "driving",
	}, nil
}

type routeResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"` // meters
		Duration float64 `json:"duration"` // seconds
	} `json:"routes"`
}

// Route requests a driving route without geometry between two coordinates.
func (c *Client) Route(ctx context.Context, origin, destination domain.Coordinates) (_ domain.RouteLeg, err error) {
	defer obs.Time(ctx, c.log, "osrm.Route")(&err)

	// OSRM expects lon,lat pairs.
	endpoint := fmt.Sprintf("%s/route/v1/%s/%.6f,%.6f;%.6f,%.6f",
		c.baseURL, c.profile, origin.Lon, origin.Lat, destination.Lon, destination.Lat)

	q := url.Values{}
	q.Set("overview", "false")

	var decoded routeResponse
	if err := c.http.GetJSON(ctx, endpoint, q, &decoded); err != nil {
		return domain.RouteLeg{}, fmt.Errorf("osrm route: %w: %w", domain.ErrProviderUnavailable, err)
	}

	if decoded.Code != "Ok" {
		return domain.RouteLeg{}, fmt.Errorf("osrm route: code %q: %w", decoded.Code, domain.ErrProviderUnavailable)
	}
	if len(decoded.Routes) == 0 {
		return domain.RouteLeg{}, fmt.Errorf("osrm route: no routes: %w", domain.ErrProviderUnavailable)
	}

	r := decoded.Routes[0]
	if r.Distance < 0 || r.Duration < 0 {
		return domain.RouteLeg{}, fmt.Errorf("osrm route: negative metrics: %w", domain.ErrProviderUnavailable)
	}

	return domain.RouteLeg{
		DistanceKm:  r.Distance / 1000,
		DurationMin: r.Duration / 60,
	}, nil
}
