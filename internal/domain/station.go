package domain

// Station.ID is the join key of qualifications and of the optimizer. HTTP
// routes and stored assignments address stations by name.
type Station struct {
	ID         string `json:"stationID"`
	Name       string `json:"stationName"`
	Product    string `json:"productName"`
	Department string `json:"department"`
}
