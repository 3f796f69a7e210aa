package dto

type EstimateQuery struct {
	DistanceKm float64 `form:"distance_km" binding:"gte=0,lte=100000"`
	Vehicle    string  `form:"vehicle"`
	ExtraStops int     `form:"extra_stops" binding:"gte=0"`
}
