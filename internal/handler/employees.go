package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Rashi-Foundation/Migdalor/backend/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// employeeConflict maps unique violations to a client message.
func employeeConflict(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return "", false
	}

	switch pgErr.ConstraintName {
	case "employees_person_id_key":
		return "an employee with this person ID already exists", true
	case "employees_email_key":
		return "an employee with this email already exists", true
	}
	return "", false
}

func (h *Handler) GetAllEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.repository.GetAllEmployees()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "employees loaded", employees)
}

func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PersonID   string `json:"personID" validate:"required,max=20"`
		FirstName  string `json:"firstName" validate:"required"`
		LastName   string `json:"lastName" validate:"required"`
		Email      string `json:"email" validate:"omitempty,email"`
		Phone      string `json:"phone" validate:"omitempty,max=20"`
		Department string `json:"department"`
		Role       string `json:"role"`
		Status     string `json:"status" validate:"omitempty,oneof=active inactive"`
	}

	if err := h.decodeValid(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	employee := &domain.Employee{
		PersonID:   strings.TrimSpace(req.PersonID),
		FirstName:  strings.TrimSpace(req.FirstName),
		LastName:   strings.TrimSpace(req.LastName),
		Email:      strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:      strings.TrimSpace(req.Phone),
		Department: strings.TrimSpace(req.Department),
		Role:       strings.TrimSpace(req.Role),
		Status:     req.Status,
	}
	if employee.Status == "" {
		employee.Status = "active"
	}

	if err := h.repository.CreateEmployee(employee); err != nil {
		if msg, ok := employeeConflict(err); ok {
			h.errorResponse(w, r, msg)
			return
		}
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "employee created", employee)
}

// UpdateEmployee changes the fields present in the body and leaves the rest.
// The person ID itself cannot change.
func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	personID := chi.URLParam(r, "personID")

	var req struct {
		FirstName  *string `json:"firstName" validate:"omitempty,min=1"`
		LastName   *string `json:"lastName" validate:"omitempty,min=1"`
		Email      *string `json:"email" validate:"omitempty,email"`
		Phone      *string `json:"phone" validate:"omitempty,max=20"`
		Department *string `json:"department"`
		Role       *string `json:"role"`
		Status     *string `json:"status" validate:"omitempty,oneof=active inactive"`
	}

	if err := h.decodeValid(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	employee, err := h.repository.GetEmployeeByPersonID(personID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, fmt.Sprintf("employee %q does not exist", personID))
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	updated := *employee
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&updated.FirstName, req.FirstName)
	set(&updated.LastName, req.LastName)
	set(&updated.Email, req.Email)
	set(&updated.Phone, req.Phone)
	set(&updated.Department, req.Department)
	set(&updated.Role, req.Role)
	set(&updated.Status, req.Status)
	updated.Email = strings.ToLower(updated.Email)

	if err := h.repository.UpdateEmployee(&updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			h.errorResponse(w, r, "employee changed while updating, please retry")
			return
		}
		if msg, ok := employeeConflict(err); ok {
			h.errorResponse(w, r, msg)
			return
		}
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "employee updated", &updated)
}
