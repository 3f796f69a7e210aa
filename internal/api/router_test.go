package api

import (
	"bytes"
	"delivery-quote-service/internal/adapters/fake"
	"delivery-quote-service/internal/api/dto"
	"delivery-quote-service/internal/domain"
	"delivery-quote-service/internal/platform/logging"
	"delivery-quote-service/internal/services"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var (
	augusta  = domain.Coordinates{Lat: -23.5530, Lon: -46.6530}
	paulista = domain.Coordinates{Lat: -23.5614, Lon: -46.6559}
)

type testEnv struct {
	router    *gin.Engine
	publisher *fake.Publisher
	searcher  *fake.Searcher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logging.Discard()

	geo := fake.NewGeocoder(map[string]domain.GeocodeResult{
		"Rua Augusta, 500, São Paulo":   {Coordinates: augusta},
		"Av. Paulista, 1500, São Paulo": {Coordinates: paulista},
	})
	provider := fake.NewRouteProvider([]fake.MockPair{
		{From: augusta, To: paulista, Meters: 5200, Seconds: 900},
	})
	legs := services.NewLegResolver(services.PrimaryRouteStrategy{Provider: provider}, services.FallbackRouteStrategy{}, log)
	agg := services.NewRouteAggregator(geo, legs, log)

	searcher := &fake.Searcher{Results: map[string][]domain.AddressSuggestion{
		"Av. Paul": {{
			ID:          42,
			DisplayName: "Avenida Paulista, Bela Vista, São Paulo, Região Imediata de São Paulo, Brasil",
			Coordinates: paulista,
		}},
	}}
	publisher := &fake.Publisher{}

	quotes := services.NewQuoteService(
		services.NewSessionStore(time.Hour),
		agg,
		searcher,
		publisher,
		services.QuoteServiceConfig{SuggestDelay: 20 * time.Millisecond, SuggestTimeout: time.Second},
		log,
	)
	return &testEnv{router: NewRouter(quotes, log), publisher: publisher, searcher: searcher}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func (e *testEnv) newSession(t *testing.T, origin, stop string) dto.SessionResponse {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/sessions", dto.CreateSessionRequest{Origin: origin})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body)
	}
	sess := decode[dto.SessionResponse](t, rec)

	rec = e.do(t, http.MethodPatch, "/sessions/"+sess.ID+"/stops/"+sess.Stops[0].ID, map[string]string{"address": stop})
	if rec.Code != http.StatusOK {
		t.Fatalf("patch stop status = %d: %s", rec.Code, rec.Body)
	}
	return decode[dto.SessionResponse](t, rec)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatalf("missing request id header")
	}
}

func TestCalculateAndAccept(t *testing.T) {
	env := newTestEnv(t)
	sess := env.newSession(t, "Rua Augusta, 500, São Paulo", "Av. Paulista, 1500, São Paulo")

	rec := env.do(t, http.MethodPost, "/sessions/"+sess.ID+"/calculate", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("calculate status = %d: %s", rec.Code, rec.Body)
	}
	got := decode[dto.SessionResponse](t, rec)

	if got.State != services.StateResolved || got.Result == nil {
		t.Fatalf("session = %+v", got)
	}
	if got.Result.DistanceKm != 5.2 || got.Result.DurationMin != 15 {
		t.Fatalf("result = %+v, want 5.2km / 15min", got.Result)
	}
	if got.Price == nil || math.Abs(*got.Price-26.20) > 1e-9 {
		t.Fatalf("price = %v, want 26.20", got.Price)
	}
	if !strings.Contains(string(got.Result.Geometry), `"LineString"`) {
		t.Fatalf("geometry = %s", got.Result.Geometry)
	}

	rec = env.do(t, http.MethodPost, "/sessions/"+sess.ID+"/accept", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("accept status = %d: %s", rec.Code, rec.Body)
	}
	draft := decode[domain.DeliveryDraft](t, rec)
	if draft.Value != 26.20 || !strings.Contains(draft.Description, "Distance: 5.2km | Time: 15min") {
		t.Fatalf("draft = %+v", draft)
	}
	if len(env.publisher.Published()) != 1 {
		t.Fatalf("draft was not published")
	}

	if rec := env.do(t, http.MethodGet, "/sessions/"+sess.ID, nil); rec.Code != http.StatusNotFound {
		t.Fatalf("accepted session still reachable: %d", rec.Code)
	}
}

func TestCalculateReportsMissingDestination(t *testing.T) {
	env := newTestEnv(t)
	sess := env.newSession(t, "Rua Augusta, 500, São Paulo", "Rua Inexistente, 0")

	rec := env.do(t, http.MethodPost, "/sessions/"+sess.ID+"/calculate", nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	res := decode[dto.ErrorResponse](t, rec)
	if !strings.Contains(res.Error, "destination") {
		t.Fatalf("error = %q, want a destination failure", res.Error)
	}
	if res.Session == nil || res.Session.State != services.StateFailed || res.Session.Price != nil {
		t.Fatalf("session = %+v", res.Session)
	}
}

func TestOriginChangeResetsResult(t *testing.T) {
	env := newTestEnv(t)
	sess := env.newSession(t, "Rua Augusta, 500, São Paulo", "Av. Paulista, 1500, São Paulo")

	if rec := env.do(t, http.MethodPost, "/sessions/"+sess.ID+"/calculate", nil); rec.Code != http.StatusOK {
		t.Fatalf("calculate status = %d", rec.Code)
	}

	rec := env.do(t, http.MethodPut, "/sessions/"+sess.ID+"/origin", dto.OriginRequest{Origin: "Rua da Consolação, 100"})
	got := decode[dto.SessionResponse](t, rec)
	if got.State != services.StateIdle || got.Result != nil || got.Quote != nil {
		t.Fatalf("session = %+v, want idle with no result", got)
	}

	rec = env.do(t, http.MethodPost, "/sessions/"+sess.ID+"/apply-price", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("apply-price status = %d, want 409", rec.Code)
	}
}

func TestStopEditing(t *testing.T) {
	env := newTestEnv(t)
	sess := env.newSession(t, "Rua Augusta, 500, São Paulo", "Av. Paulista, 1500, São Paulo")
	first := sess.Stops[0].ID

	if rec := env.do(t, http.MethodDelete, "/sessions/"+sess.ID+"/stops/"+first, nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("removing the last stop: status = %d, want 400", rec.Code)
	}

	rec := env.do(t, http.MethodPost, "/sessions/"+sess.ID+"/stops", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add stop status = %d", rec.Code)
	}
	added := decode[domain.RouteStop](t, rec)
	if added.Order != 2 {
		t.Fatalf("new stop order = %d, want 2", added.Order)
	}

	rec = env.do(t, http.MethodPost, "/sessions/"+sess.ID+"/stops/"+added.ID+"/move", dto.MoveStopRequest{Direction: "up"})
	if rec.Code != http.StatusOK {
		t.Fatalf("move status = %d: %s", rec.Code, rec.Body)
	}
	got := decode[dto.SessionResponse](t, rec)
	if got.Stops[0].ID != added.ID || got.Stops[0].Order != 1 || got.Stops[1].Order != 2 {
		t.Fatalf("stops after move = %+v", got.Stops)
	}

	rec = env.do(t, http.MethodPost, "/sessions/"+sess.ID+"/stops/"+added.ID+"/move", map[string]string{"direction": "sideways"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad direction status = %d, want 400", rec.Code)
	}

	if rec := env.do(t, http.MethodDelete, "/sessions/"+sess.ID+"/stops/unknown", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown stop status = %d, want 404", rec.Code)
	}
}

func TestEstimate(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/estimate?distance_km=10&vehicle=car&extra_stops=2", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	q := decode[domain.PriceQuote](t, rec)
	if q.SuggestedTotal != 53 {
		t.Fatalf("total = %v, want 53", q.SuggestedTotal)
	}

	if rec := env.do(t, http.MethodGet, "/estimate?distance_km=1&vehicle=truck", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown vehicle status = %d, want 400", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/estimate?distance_km=-1", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("negative distance status = %d, want 400", rec.Code)
	}
	for _, d := range []string{"1e308", "Inf", "NaN"} {
		if rec := env.do(t, http.MethodGet, "/estimate?distance_km="+d, nil); rec.Code != http.StatusBadRequest {
			t.Fatalf("distance %s status = %d, want 400", d, rec.Code)
		}
	}
}

func TestUnknownSession(t *testing.T) {
	env := newTestEnv(t)
	if rec := env.do(t, http.MethodPost, "/sessions/nope/calculate", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestSuggestionsOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	sess := env.newSession(t, "Rua Augusta, 500, São Paulo", "")

	rec := env.do(t, http.MethodPost, "/sessions/"+sess.ID+"/suggestions", dto.SuggestionQuery{Field: "stop-1", Query: "Av. Paul"})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		rec = env.do(t, http.MethodGet, "/sessions/"+sess.ID+"/suggestions?field=stop-1", nil)
		res := decode[dto.SuggestionsResponse](t, rec)
		if len(res.Suggestions) == 1 {
			if res.Suggestions[0].Label != "Avenida Paulista, Bela Vista, São Paulo" {
				t.Fatalf("label = %q", res.Suggestions[0].Label)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("suggestions never arrived")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if rec := env.do(t, http.MethodDelete, "/sessions/"+sess.ID+"/suggestions?field=all", nil); rec.Code != http.StatusNoContent {
		t.Fatalf("clear status = %d", rec.Code)
	}
	res := decode[dto.SuggestionsResponse](t, env.do(t, http.MethodGet, "/sessions/"+sess.ID+"/suggestions?field=stop-1", nil))
	if len(res.Suggestions) != 0 {
		t.Fatalf("suggestions survived clear: %+v", res.Suggestions)
	}
}

func TestSuggestionStream(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	sess := env.newSession(t, "Rua Augusta, 500, São Paulo", "")

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/sessions/" + sess.ID + "/suggestions/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	for _, q := range []string{"Av. P", "Av. Pa", "Av. Paul"} {
		if err := conn.WriteJSON(dto.SuggestionQuery{Field: "stop-1", Query: q}); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg dto.SuggestionsResponse
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Query != "Av. Paul" || len(msg.Suggestions) != 1 || msg.Suggestions[0].ID != 42 {
		t.Fatalf("message = %+v", msg)
	}
	if q := env.searcher.Queries(); len(q) != 1 {
		t.Fatalf("provider queries = %q, want one", q)
	}
}
