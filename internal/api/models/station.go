package models

// StationCreateRequest is the request body for creating a station.
type StationCreateRequest struct {
	Name      string `json:"name"`
	Latitude  Number `json:"latitude"`
	Longitude Number `json:"longitude"`
}

// StationUpdateRequest is the request body for patching a station.
// Only the name is mutable.
type StationUpdateRequest struct {
	Name string `json:"name"`
}

// Station represents a monitoring station with its records.
type Station struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Records   []Record  `json:"records"`
	CreatedAt Timestamp `json:"createdAt"`
	UpdatedAt Timestamp `json:"updatedAt"`
}

// RequestLink points a client at a follow-up request.
type RequestLink struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// StationListItem is the projected view of a station used in listings.
type StationListItem struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Latitude  float64      `json:"latitude"`
	Longitude float64      `json:"longitude"`
	Request   *RequestLink `json:"request,omitempty"`
}

// StationList is the response for listing stations.
type StationList struct {
	Count    int               `json:"count"`
	Stations []StationListItem `json:"stations"`
}

// NearbyStation is a station with its distance from a query point.
type NearbyStation struct {
	StationListItem
	DistanceKm float64 `json:"distanceKm"`
}

// NearbyStationList is the response for the nearest stations query.
type NearbyStationList struct {
	Count    int             `json:"count"`
	Stations []NearbyStation `json:"stations"`
}

// StationCreatedResponse is returned after a station is created.
type StationCreatedResponse struct {
	Message        string  `json:"message"`
	CreatedStation Station `json:"createdStation"`
}

// StationUpdatedResponse is returned after a station is patched or a record appended.
type StationUpdatedResponse struct {
	Message        string       `json:"message"`
	UpdatedStation Station      `json:"updatedStation"`
	Request        *RequestLink `json:"request,omitempty"`
}

// MessageResponse carries a bare message.
type MessageResponse struct {
	Message string `json:"message"`
}

// NearestParams carries the raw, string-encoded nearest-station query.
type NearestParams struct {
	Lat    string
	Lng    string
	Radius string
}
