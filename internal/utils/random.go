package utils

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/Rashi-Foundation/Migdalor/backend/internal/domain"
)

var firstNames = []string{
	"Noa", "Yosef", "Tamar", "Omer", "Maya", "Itai", "Shira", "Eitan", "Lior", "Dana",
	"Amit", "Yael", "Ariel", "Roni", "Gal", "Nadav", "Michal", "Ido", "Hila", "Avi",
}
var lastNames = []string{
	"Cohen", "Levi", "Mizrahi", "Peretz", "Biton", "Dahan", "Avraham", "Friedman", "Azulay", "Katz",
	"Malka", "Amar", "Ohana", "Segal", "Golan", "Hadad", "Shapiro", "Ben David", "Vaknin", "Tal",
}

var departments = []string{"Assembly", "Packaging", "Quality", "Machining", "Logistics"}
var employeeRoles = []string{"Operator", "Technician", "Team Lead", "Inspector"}
var products = []string{"Valve", "Bracket", "Housing", "Panel", "Sensor", "Cable Harness"}

var digits = "0123456789"
var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*")

func GenerateRandomPersonID() string {
	id := make([]byte, 9)
	for i := range id {
		id[i] = digits[rand.Intn(len(digits))]
	}
	return string(id)
}

func GenerateRandomEmployee(emailDomainName string) *domain.Employee {
	firstName := firstNames[rand.Intn(len(firstNames))]
	lastName := lastNames[rand.Intn(len(lastNames))]
	personID := GenerateRandomPersonID()

	local := strings.ToLower(strings.ReplaceAll(firstName+"."+lastName, " ", ""))

	return &domain.Employee{
		PersonID:   personID,
		FirstName:  firstName,
		LastName:   lastName,
		Email:      fmt.Sprintf("%s.%s@%s", local, personID[len(personID)-3:], emailDomainName),
		Phone:      "05" + GenerateRandomID(0, 8),
		Department: departments[rand.Intn(len(departments))],
		Role:       employeeRoles[rand.Intn(len(employeeRoles))],
		Status:     "active",
	}
}

func GenerateRandomStation() *domain.Station {
	product := products[rand.Intn(len(products))]
	return &domain.Station{
		ID:         "ST" + GenerateRandomID(0, 6),
		Name:       fmt.Sprintf("%s-%s", strings.ReplaceAll(product, " ", ""), GenerateRandomID(2, 2)),
		Product:    product,
		Department: departments[rand.Intn(len(departments))],
	}
}

// GenerateRandomQualifications gives every employee a rating for a random
// subset of the stations, keeping the matrix sparse.
func GenerateRandomQualifications(employees []*domain.Employee, stations []*domain.Station, density float64) []domain.Qualification {
	quals := make([]domain.Qualification, 0)
	for _, e := range employees {
		for _, s := range stations {
			if rand.Float64() >= density {
				continue
			}
			quals = append(quals, domain.Qualification{
				PersonID:  e.PersonID,
				StationID: s.ID,
				Score:     float64(rand.Intn(1001)) / 10,
			})
		}
	}
	return quals
}

func GenerateRandomPassword(length int) string {
	random_password := make([]rune, length)
	for i := range random_password {
		random_password[i] = letters[rand.Intn(len(letters))]
	}
	return string(random_password)
}

func GenerateRandomID(letterLength int, digitLength int) string {
	random_id := make([]rune, letterLength+digitLength)
	for i := range random_id {
		if i < letterLength {
			random_id[i] = letters[rand.Intn(26)+26]
		} else {
			random_id[i] = rune(digits[rand.Intn(len(digits))])
		}
	}
	return string(random_id)
}
