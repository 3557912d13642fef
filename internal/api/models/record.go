package models

// RecordCreateRequest is the request body for appending a pollution record.
type RecordCreateRequest struct {
	TS   Number `json:"ts"`
	NOx  Number `json:"nox"`
	NO2  Number `json:"no2"`
	NO   Number `json:"no"`
	PM10 Number `json:"pm10"`
	CO   Number `json:"co"`
	O3   Number `json:"o3"`
	SO2  Number `json:"so2"`
}

// Record is a pollution record. Optional readings serialize as null when absent.
type Record struct {
	TS   float64  `json:"ts"`
	NOx  float64  `json:"nox"`
	NO2  float64  `json:"no2"`
	NO   float64  `json:"no"`
	PM10 *float64 `json:"pm10"`
	CO   *float64 `json:"co"`
	O3   *float64 `json:"o3"`
	SO2  *float64 `json:"so2"`
}

// AggregatedRecord is a record tagged with its station's name.
type AggregatedRecord struct {
	StationName string `json:"stationName"`
	Record
}

// RecordFilterParams carries the raw, string-encoded listing filters.
type RecordFilterParams struct {
	From      string
	To        string
	Limit     string
	Pollutant string
}

// AggregatedRecordList is the response for listing records across stations.
type AggregatedRecordList struct {
	Count   int                `json:"count"`
	Records []AggregatedRecord `json:"records"`
}

// StationRecordList is the response for listing one station's records.
type StationRecordList struct {
	Message string   `json:"message"`
	Count   int      `json:"count"`
	Records []Record `json:"records"`
}

// PollutantStats summarizes the present readings of one pollutant.
type PollutantStats struct {
	Count int      `json:"count"`
	Min   *float64 `json:"min"`
	Max   *float64 `json:"max"`
	Mean  *float64 `json:"mean"`
}

// RecordSummary summarizes a station's filtered records.
type RecordSummary struct {
	StationID   string                    `json:"stationId"`
	StationName string                    `json:"stationName"`
	RecordCount int                       `json:"recordCount"`
	FirstTS     *float64                  `json:"firstTs"`
	LastTS      *float64                  `json:"lastTs"`
	Pollutants  map[string]PollutantStats `json:"pollutants"`
}
