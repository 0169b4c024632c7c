package domain

// Product is derived from the stations that build it.
type Product struct {
	Name         string `json:"productName"`
	StationCount int    `json:"stationCount"`
}

// WorkingStation is one physical position of a station. Assignments record
// the working station name.
type WorkingStation struct {
	ID        int64  `json:"id"`
	Name      string `json:"workingStationName"`
	StationID string `json:"stationID"`
}
