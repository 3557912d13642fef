package station_test

import (
	"github.com/airlog/airlog/internal/station"
)

func ptr(v float64) *float64 { return &v }

// scenarioStations returns two stations with five records each, at
// timestamps 1000..5000 and 1500..5500.
func scenarioStations() []*station.Station {
	a := &station.Station{ID: "stn_a", Name: "Station A"}
	b := &station.Station{ID: "stn_b", Name: "Station B"}
	for i := 0; i < 5; i++ {
		a.Records = append(a.Records, station.Record{TS: float64(1000 + i*1000), NOx: 1, NO2: 2, NO: 3})
		b.Records = append(b.Records, station.Record{TS: float64(1500 + i*1000), NOx: 4, NO2: 5, NO: 6})
	}
	return []*station.Station{a, b}
}

func timestamps(records []station.AggregatedRecord) []float64 {
	out := make([]float64, 0, len(records))
	for _, r := range records {
		out = append(out, r.TS)
	}
	return out
}
