package domain

import "time"

// DraftEntry is one proposed pairing, denormalized so a draft can be
// confirmed without reloading employees and stations.
type DraftEntry struct {
	PersonID    string  `json:"personID"`
	FullName    string  `json:"fullName"`
	Email       string  `json:"email,omitempty"`
	StationID   string  `json:"stationId"`
	StationName string  `json:"stationName"`
	Score       float64 `json:"qualificationScore"`
}

// AssignmentDraft is an optimization result waiting for review.
type AssignmentDraft struct {
	ID                 string       `json:"id"`
	CreatedAt          time.Time    `json:"createdAt"`
	ExpiresAt          time.Time    `json:"expiresAt"`
	Entries            []DraftEntry `json:"entries"`
	UnassignedStations []string     `json:"unassignedStations"`
	IdleWorkers        []string     `json:"idleWorkers"`
	TotalScore         float64      `json:"totalScore"`
	SearchScore        float64      `json:"searchScore"`
	OptimalScore       *float64     `json:"optimalScore,omitempty"`
	Gap                *float64     `json:"gap,omitempty"`
	ExactFallback      bool         `json:"exactFallback,omitempty"`
	Generations        int          `json:"generations"`
	StopReason         string       `json:"stopReason"`
}
