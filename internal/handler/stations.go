package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/Rashi-Foundation/Migdalor/backend/internal/domain"
	"github.com/Rashi-Foundation/Migdalor/backend/internal/qualification"
	"github.com/Rashi-Foundation/Migdalor/backend/internal/ranker"
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func (h *Handler) GetAllStations(w http.ResponseWriter, r *http.Request) {
	stations, err := h.repository.GetAllStations()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "stations loaded", stations)
}

// rosterFor loads the active roster and the qualification records of one station.
func (h *Handler) rosterFor(station *domain.Station) ([]*domain.Employee, []domain.Qualification, error) {
	employees, err := h.repository.GetAllEmployees()
	if err != nil {
		return nil, nil, err
	}

	quals, err := h.repository.GetQualificationsByStation(station.ID)
	if err != nil {
		return nil, nil, err
	}

	return employees, quals, nil
}

// rankingError reports bad arguments to the client. Malformed stored records
// are a server problem.
func (h *Handler) rankingError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, domain.ErrInvalidParameter) {
		h.badRequest(w, r, err)
		return
	}
	h.internalServerError(w, r, err)
}

func (h *Handler) GetTopEmployees(w http.ResponseWriter, r *http.Request) {
	station := r.Context().Value(StationCtx).(*domain.Station)

	count, err := strconv.Atoi(chi.URLParam(r, "count"))
	if err != nil {
		h.errorResponse(w, r, "count must be an integer")
		return
	}

	employees, quals, err := h.rosterFor(station)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	top, err := ranker.RankTop(employees, station, quals, count)
	if err != nil {
		h.rankingError(w, r, err)
		return
	}

	h.successResponse(w, r, "top employees loaded", top)
}

func (h *Handler) GetSortedEmployees(w http.ResponseWriter, r *http.Request) {
	station := r.Context().Value(StationCtx).(*domain.Station)

	employees, quals, err := h.rosterFor(station)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	sorted, err := ranker.RankAll(employees, station, quals)
	if err != nil {
		h.rankingError(w, r, err)
		return
	}

	h.successResponse(w, r, "sorted employees loaded", sorted)
}

func (h *Handler) GetEmployeesWithQualifications(w http.ResponseWriter, r *http.Request) {
	station := r.Context().Value(StationCtx).(*domain.Station)

	employees, quals, err := h.rosterFor(station)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	idx, err := qualification.Build(quals)
	if err != nil {
		h.rankingError(w, r, err)
		return
	}

	h.successResponse(w, r, "qualified employees loaded", ranker.QualifiedForStation(employees, station, idx))
}

func (h *Handler) GetAllProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.repository.GetAllProducts()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "products loaded", products)
}

func (h *Handler) GetWorkingStations(w http.ResponseWriter, r *http.Request) {
	station := r.Context().Value(StationCtx).(*domain.Station)

	workingStations, err := h.repository.GetWorkingStationsByStation(station.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "working stations loaded", workingStations)
}

func (h *Handler) CreateWorkingStation(w http.ResponseWriter, r *http.Request) {
	station := r.Context().Value(StationCtx).(*domain.Station)

	var req struct {
		Name string `json:"workingStationName" validate:"required,max=100"`
	}

	if err := h.decodeValid(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	ws := &domain.WorkingStation{Name: strings.TrimSpace(req.Name), StationID: station.ID}
	if err := h.repository.CreateWorkingStation(ws); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.ConstraintName == "working_stations_name_key" {
			h.errorResponse(w, r, fmt.Sprintf("working station %q already exists", ws.Name))
			return
		}
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "working station created", ws)
}
