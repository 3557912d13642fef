package ingest

import "strings"

// StationIDFromTopic extracts the station ID from a topic shaped like
// ".../stations/{id}/records". It returns "" for any other shape.
func StationIDFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	for i := 0; i+2 < len(parts); i++ {
		if parts[i] == "stations" && parts[i+2] == "records" && parts[i+1] != "" {
			return parts[i+1]
		}
	}
	return ""
}
