package dto

import (
	"delivery-quote-service/internal/domain"
	"encoding/json"
	"fmt"

	"github.com/twpayne/go-geom"
	gjson "github.com/twpayne/go-geom/encoding/geojson"
)

// RouteGeometry encodes the waypoints as a GeoJSON LineString in lon/lat order.
// It returns nil for fewer than two points.
func RouteGeometry(waypoints []domain.Coordinates) (json.RawMessage, error) {
	if len(waypoints) < 2 {
		return nil, nil
	}

	flat := make([]float64, 0, 2*len(waypoints))
	for _, c := range waypoints {
		flat = append(flat, c.CoordsToList()...)
	}

	b, err := gjson.Marshal(geom.NewLineStringFlat(geom.XY, flat))
	if err != nil {
		return nil, fmt.Errorf("encode route geometry: %w", err)
	}
	return b, nil
}
