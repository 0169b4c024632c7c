package domain

import "time"

// Assignment is a persisted daily assignment of a worker to a station.
type Assignment struct {
	ID            int64     `json:"id"`
	Date          time.Time `json:"date"`
	StationName   string    `json:"workingStationName"`
	PersonID      string    `json:"personID"`
	NumberOfHours int32     `json:"numberOfHours"`
	CreatedAt     time.Time `json:"createdAt"`
}

// StationAssignment is one pairing of a scored assignment.
type StationAssignment struct {
	StationID string  `json:"stationID"`
	PersonID  string  `json:"personID"`
	Score     float64 `json:"score"`
}
