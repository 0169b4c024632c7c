package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/Rashi-Foundation/Migdalor/backend/internal/domain"
	"github.com/Rashi-Foundation/Migdalor/backend/internal/utils"
	"github.com/jackc/pgx/v5/pgconn"
)

func (h *Handler) GetAssignments(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		h.errorResponse(w, r, "date parameter is required")
		return
	}

	from, to, err := utils.ParseAssignmentDate(date)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	assignments, err := h.repository.GetAssignmentsBetween(from, to)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "assignments loaded", assignments)
}

func (h *Handler) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date               string `json:"date" validate:"required,datetime=2006-01-02"`
		WorkingStationName string `json:"workingStationName" validate:"required"`
		PersonID           string `json:"personID" validate:"required"`
		NumberOfHours      int32  `json:"numberOfHours" validate:"required,min=1,max=24"`
	}

	if err := h.decodeValid(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	date, _, err := utils.ParseAssignmentDate(req.Date)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	if _, err := h.repository.GetStationByName(req.WorkingStationName); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, fmt.Sprintf("station %q does not exist", req.WorkingStationName))
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	assignment := &domain.Assignment{
		Date:          date,
		StationName:   req.WorkingStationName,
		PersonID:      req.PersonID,
		NumberOfHours: req.NumberOfHours,
	}
	if err := h.repository.CreateAssignment(assignment); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.ConstraintName == "assignments_person_id_fkey" {
			h.errorResponse(w, r, fmt.Sprintf("employee %q does not exist", req.PersonID))
			return
		}
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "assignment created", assignment)
}

// DeleteAssignment removes the n-th assignment of an employee on a day,
// counting from 1 in chronological order.
func (h *Handler) DeleteAssignment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date             string `json:"date" validate:"required,datetime=2006-01-02"`
		PersonID         string `json:"personID" validate:"required"`
		AssignmentNumber int    `json:"assignmentNumber" validate:"required,min=1"`
	}

	if err := h.decodeValid(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	from, to, err := utils.ParseAssignmentDate(req.Date)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.repository.DeleteNthAssignment(req.PersonID, from, to, req.AssignmentNumber); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, fmt.Sprintf("assignment #%d of %q on %s not found", req.AssignmentNumber, req.PersonID, req.Date))
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "assignment deleted", nil)
}
