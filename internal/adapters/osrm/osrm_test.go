package osrm

import (
	"context"
	"delivery-quote-service/internal/adapters/httpclient"
	"delivery-quote-service/internal/domain"
	"delivery-quote-service/internal/platform/logging"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, httpclient.New(httpclient.Options{}), logging.Discard())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return c
}

var (
	augusta  = domain.Coordinates{Lat: -23.5534, Lon: -46.6524}
	paulista = domain.Coordinates{Lat: -23.5614, Lon: -46.6559}
)

func TestRouteConvertsUnits(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		want := "/route/v1/driving/-46.652400,-23.553400;-46.655900,-23.561400"
		if r.URL.Path != want {
			t.Errorf("path = %q, want %q", r.URL.Path, want)
		}
		if r.URL.Query().Get("overview") != "false" {
			t.Errorf("overview = %q", r.URL.Query().Get("overview"))
		}
		w.Write([]byte(`{"code":"Ok","routes":[{"distance":5200,"duration":900}]}`))
	})

	leg, err := c.Route(context.Background(), augusta, paulista)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if leg.DistanceKm != 5.2 || leg.DurationMin != 15 {
		t.Fatalf("leg = %+v, want 5.2km 15min", leg)
	}
}

func TestRouteFailuresAreProviderUnavailable(t *testing.T) {
	tests := []struct {
		name string
		body string
		code int
	}{
		{"non ok code", `{"code":"NoRoute","routes":[]}`, http.StatusOK},
		{"no routes", `{"code":"Ok","routes":[]}`, http.StatusOK},
		{"server error", `oops`, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.code)
				w.Write([]byte(tt.body))
			})

			_, err := c.Route(context.Background(), augusta, paulista)
			if !errors.Is(err, domain.ErrProviderUnavailable) {
				t.Fatalf("err = %v, want ErrProviderUnavailable", err)
			}
		})
	}
}
