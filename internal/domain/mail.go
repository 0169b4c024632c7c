package domain

const (
	MailTypeAssignment = "assignment"
	MailTypeCreateUser = "create_user"
)

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

type AssignmentMailData struct {
	FullName      string  `json:"fullName"`
	StationName   string  `json:"stationName"`
	Date          string  `json:"date"`
	NumberOfHours int32   `json:"numberOfHours"`
	Score         float64 `json:"score"`
}

type CreateUserMailData struct {
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Password string `json:"password"`
}
