package domain

// Qualification is a (worker, station) performance rating, usually in 0..100.
type Qualification struct {
	PersonID  string  `json:"personID"`
	StationID string  `json:"stationID"`
	Score     float64 `json:"avg"`
}
