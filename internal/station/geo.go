package station

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/airlog/airlog/internal/api/models"
)

// DefaultRadiusKm is the search radius used when none is given.
const DefaultRadiusKm = 10.0

// NearestQuery is a validated nearest-station query.
type NearestQuery struct {
	Lat      float64
	Lng      float64
	RadiusKm float64
}

// ParseNearest validates the raw nearest-station parameters.
func ParseNearest(params models.NearestParams) (NearestQuery, error) {
	q := NearestQuery{RadiusKm: DefaultRadiusKm}

	lat, err := parseBound(params.Lat)
	if err != nil || lat < -90 || lat > 90 {
		return NearestQuery{}, &ParameterError{Param: "lat", Message: "Invalid 'lat'. Must be a number between -90 and 90."}
	}
	q.Lat = lat

	lng, err := parseBound(params.Lng)
	if err != nil || lng < -180 || lng > 180 {
		return NearestQuery{}, &ParameterError{Param: "lng", Message: "Invalid 'lng'. Must be a number between -180 and 180."}
	}
	q.Lng = lng

	if strings.TrimSpace(params.Radius) != "" {
		radius, err := strconv.ParseFloat(strings.TrimSpace(params.Radius), 64)
		if err != nil || math.IsNaN(radius) || math.IsInf(radius, 0) || radius <= 0 {
			return NearestQuery{}, &ParameterError{Param: "radius", Message: "Invalid 'radius'. Must be a positive number of kilometres."}
		}
		q.RadiusKm = radius
	}

	return q, nil
}

// Nearby is a station paired with its distance from a query point.
type Nearby struct {
	Station    *Station
	DistanceKm float64
}

// Nearest returns the stations within the query radius, nearest first.
// Stations at equal distance keep their input order.
func Nearest(stations []*Station, q NearestQuery) []Nearby {
	var out []Nearby
	for _, st := range stations {
		d := haversineKm(q.Lat, q.Lng, st.Latitude, st.Longitude)
		if d <= q.RadiusKm {
			out = append(out, Nearby{Station: st, DistanceKm: d})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DistanceKm < out[j].DistanceKm
	})
	return out
}

// haversineKm calculates the great-circle distance between two points in kilometres.
func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadius = 6371.0 // km

	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadius * c
}
