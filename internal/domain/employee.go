package domain

import "time"

type Employee struct {
	ID         int64     `json:"id"`
	PersonID   string    `json:"personID"`
	FirstName  string    `json:"firstName"`
	LastName   string    `json:"lastName"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	Department string    `json:"department"`
	Role       string    `json:"role"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
	Version    int32     `json:"-"`
}

func (e *Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}
