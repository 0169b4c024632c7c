package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/Rashi-Foundation/Migdalor/backend/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type qualificationRequest struct {
	PersonID    string   `json:"personID" validate:"required"`
	StationName string   `json:"stationName" validate:"required"`
	Avg         *float64 `json:"avg" validate:"required,min=0,max=100"`
}

// resolveQualification checks that the employee and the station exist. A non-empty
// message is meant for the client.
func (h *Handler) resolveQualification(req *qualificationRequest) (*domain.Qualification, string, error) {
	if _, err := h.repository.GetEmployeeByPersonID(req.PersonID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Sprintf("employee %q does not exist", req.PersonID), nil
		}
		return nil, "", err
	}

	station, err := h.repository.GetStationByName(req.StationName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Sprintf("station %q does not exist", req.StationName), nil
		}
		return nil, "", err
	}

	return &domain.Qualification{PersonID: req.PersonID, StationID: station.ID, Score: *req.Avg}, "", nil
}

func (h *Handler) GetAllQualifications(w http.ResponseWriter, r *http.Request) {
	quals, err := h.repository.GetAllQualifications()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "qualifications loaded", quals)
}

// CreateQualification adds a score for a pair that has none yet.
func (h *Handler) CreateQualification(w http.ResponseWriter, r *http.Request) {
	var req qualificationRequest
	if err := h.decodeValid(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	q, msg, err := h.resolveQualification(&req)
	switch {
	case err != nil:
		h.internalServerError(w, r, err)
		return
	case msg != "":
		h.errorResponse(w, r, msg)
		return
	}

	if err := h.repository.CreateQualification(q); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.ConstraintName == "qualifications_person_station_key" {
			h.errorResponse(w, r, fmt.Sprintf("employee %q already has a score for %q", req.PersonID, req.StationName))
			return
		}
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "qualification created", q)
}

func (h *Handler) GetEmployeeQualifications(w http.ResponseWriter, r *http.Request) {
	quals, err := h.repository.GetQualificationsByPersonID(chi.URLParam(r, "personID"))
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "qualifications loaded", quals)
}

// UpsertQualification sets the score of a worker at a station, creating the
// record when it does not exist yet.
func (h *Handler) UpsertQualification(w http.ResponseWriter, r *http.Request) {
	var req qualificationRequest
	if err := h.decodeValid(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	q, msg, err := h.resolveQualification(&req)
	switch {
	case err != nil:
		h.internalServerError(w, r, err)
		return
	case msg != "":
		h.errorResponse(w, r, msg)
		return
	}

	if err := h.repository.UpsertQualification(q); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "qualification saved", q)
}
