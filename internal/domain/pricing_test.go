package domain

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestEstimateMinimumFare(t *testing.T) {
	if got := Estimate(0, VehicleMoped, 0); !almostEqual(got, 12.00) {
		t.Fatalf("moped at 0km = %.2f, want 12.00", got)
	}
	if got := Estimate(0, VehicleCar, 0); !almostEqual(got, 18.00) {
		t.Fatalf("car at 0km = %.2f, want 18.00", got)
	}
}

func TestEstimateFloorHoldsForAnyDistance(t *testing.T) {
	for _, class := range []VehicleClass{VehicleCar, VehicleMoped} {
		floor := tariffs[class].minimumFare
		for _, stops := range []int{0, 1, 3} {
			for d := 0.0; d <= 50; d += 0.7 {
				got := Estimate(d, class, stops)
				want := floor + float64(stops)*ExtraStopFee
				if got < want-1e-9 {
					t.Fatalf("Estimate(%.1f, %s, %d) = %.2f, below floor %.2f", d, class, stops, got, want)
				}
			}
		}
	}
}

func TestEstimateStopFeeIsAdditive(t *testing.T) {
	base := Estimate(10, VehicleCar, 0)
	withStops := Estimate(10, VehicleCar, 2)

	if !almostEqual(withStops, base+10.00) {
		t.Fatalf("Estimate(10, car, 2) = %.2f, want %.2f", withStops, base+10.00)
	}
}

func TestEstimateFormula(t *testing.T) {
	tests := []struct {
		name  string
		km    float64
		class VehicleClass
		stops int
		want  float64
	}{
		{"car above floor", 5.2, VehicleCar, 0, 26.20},
		{"moped above floor", 10, VehicleMoped, 0, 33.00},
		{"moped below floor", 1, VehicleMoped, 0, 12.00},
		{"car rounds to cent", 1.234, VehicleCar, 0, 18.00},
		{"car with one extra stop", 3.001, VehicleCar, 1, 23.50},
		{"negative stops ignored", 10, VehicleCar, -3, 43.00},
		{"negative distance priced as zero", -4, VehicleCar, 0, 18.00},
		{"unknown class priced as car", 10, VehicleClass("truck"), 0, 43.00},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Estimate(tt.km, tt.class, tt.stops); !almostEqual(got, tt.want) {
				t.Fatalf("Estimate(%v, %s, %d) = %.4f, want %.2f", tt.km, tt.class, tt.stops, got, tt.want)
			}
		})
	}
}

func TestQuoteBreakdown(t *testing.T) {
	q := Quote(4, VehicleMoped, 2)

	if q.BaseFee != 8.00 || q.PerKmRate != 2.50 || q.MinimumFare != 12.00 {
		t.Fatalf("unexpected tariff: %+v", q)
	}
	if q.PerStopFee != 10.00 {
		t.Fatalf("per stop fee = %.2f, want 10.00", q.PerStopFee)
	}
	// 8 + 4*2.5 = 18 > 12, plus two extra stops.
	if !almostEqual(q.SuggestedTotal, 28.00) {
		t.Fatalf("suggested total = %.2f, want 28.00", q.SuggestedTotal)
	}
}

func TestParseVehicleClass(t *testing.T) {
	cases := map[string]VehicleClass{
		"":          VehicleCar,
		"car":       VehicleCar,
		"Motorista": VehicleCar,
		"moped":     VehicleMoped,
		" motoboy ": VehicleMoped,
	}
	for in, want := range cases {
		got, err := ParseVehicleClass(in)
		if err != nil {
			t.Fatalf("ParseVehicleClass(%q): unexpected error: %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseVehicleClass(%q) = %q, want %q", in, got, want)
		}
	}

	if _, err := ParseVehicleClass("bicycle"); err == nil {
		t.Fatal("expected error for unknown vehicle class")
	}
}

func TestQuoteKeepsTotalsFinite(t *testing.T) {
	for _, d := range []float64{math.Inf(1), math.Inf(-1), math.NaN()} {
		q := Quote(d, VehicleCar, 0)
		if q.DistanceKm != 0 || q.SuggestedTotal != 18.00 {
			t.Fatalf("Quote(%v) = %+v, want zero distance at the minimum fare", d, q)
		}
	}

	q := Quote(1e308, VehicleCar, 1)
	if q.DistanceKm != MaxDistanceKm {
		t.Fatalf("distance = %v, want %v", q.DistanceKm, MaxDistanceKm)
	}
	// 8 + 100000*3.5 plus one extra stop.
	if !almostEqual(q.SuggestedTotal, 350013.00) {
		t.Fatalf("suggested total = %.2f, want 350013.00", q.SuggestedTotal)
	}
}
