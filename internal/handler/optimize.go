package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Rashi-Foundation/Migdalor/backend/internal/domain"
	"github.com/Rashi-Foundation/Migdalor/backend/internal/qualification"
	"github.com/Rashi-Foundation/Migdalor/backend/internal/scheduler"
	"github.com/Rashi-Foundation/Migdalor/backend/internal/utils"
	"github.com/jackc/pgx/v5/pgconn"
)

type assignedStation struct {
	StationID          string  `json:"stationId"`
	StationName        string  `json:"stationName"`
	QualificationScore float64 `json:"qualificationScore"`
}

type draftResponse struct {
	DraftID            string                     `json:"draftID"`
	ExpiresAt          time.Time                  `json:"expiresAt"`
	Assignments        map[string]assignedStation `json:"assignments"` // personID -> station
	UnassignedStations []string                   `json:"unassignedStations"`
	IdleWorkers        []string                   `json:"idleWorkers"`
	TotalScore         float64                    `json:"totalScore"`
	SearchScore        float64                    `json:"searchScore"`
	OptimalScore       *float64                   `json:"optimalScore,omitempty"`
	Gap                *float64                   `json:"gap,omitempty"`
	ExactFallback      bool                       `json:"exactFallback,omitempty"`
	Generations        int                        `json:"generations"`
	StopReason         string                     `json:"stopReason"`
}

func newDraftResponse(d *domain.AssignmentDraft) draftResponse {
	assignments := make(map[string]assignedStation, len(d.Entries))
	for _, e := range d.Entries {
		assignments[e.PersonID] = assignedStation{
			StationID:          e.StationID,
			StationName:        e.StationName,
			QualificationScore: e.Score,
		}
	}

	return draftResponse{
		DraftID:            d.ID,
		ExpiresAt:          d.ExpiresAt,
		Assignments:        assignments,
		UnassignedStations: d.UnassignedStations,
		IdleWorkers:        d.IdleWorkers,
		TotalScore:         d.TotalScore,
		SearchScore:        d.SearchScore,
		OptimalScore:       d.OptimalScore,
		Gap:                d.Gap,
		ExactFallback:      d.ExactFallback,
		Generations:        d.Generations,
		StopReason:         d.StopReason,
	}
}

// optimizerParameters are the configured defaults for a run over stationCount stations.
func (h *Handler) optimizerParameters(stationCount int) scheduler.Parameters {
	o := h.config.Optimizer
	return scheduler.Parameters{
		PopulationSize:  scheduler.PopulationFor(stationCount, o.MinPopulation, o.PopulationPerStation),
		MaxGenerations:  o.MaxGenerations,
		StagnationLimit: o.StagnationLimit,
		CrossoverRate:   o.CrossoverRate,
		MutationRate:    o.MutationRate,
		EliteCount:      o.EliteCount,
		TournamentSize:  o.TournamentSize,
		GapCheckLimit:   o.GapCheckLimit,
	}
}

// missing returns the first wanted key that has no match in found.
func missing(wanted []string, found map[string]bool) (string, bool) {
	for _, w := range wanted {
		if !found[w] {
			return w, true
		}
	}
	return "", false
}

func buildDraft(result *scheduler.Result, employees []*domain.Employee, stations []*domain.Station) *domain.AssignmentDraft {
	employeeByID := make(map[string]*domain.Employee, len(employees))
	for _, e := range employees {
		employeeByID[e.PersonID] = e
	}
	stationByID := make(map[string]*domain.Station, len(stations))
	for _, s := range stations {
		stationByID[s.ID] = s
	}

	d := &domain.AssignmentDraft{
		Entries:            make([]domain.DraftEntry, 0, len(result.Assignments)),
		UnassignedStations: make([]string, 0, len(result.UnassignedStations)),
		IdleWorkers:        result.IdleWorkers,
		TotalScore:         result.TotalScore,
		SearchScore:        result.SearchScore,
		OptimalScore:       result.OptimalScore,
		Gap:                result.Gap,
		ExactFallback:      result.ExactFallback,
		Generations:        result.Generations,
		StopReason:         string(result.StopReason),
	}

	for _, a := range result.Assignments {
		e := employeeByID[a.PersonID]
		s := stationByID[a.StationID]
		d.Entries = append(d.Entries, domain.DraftEntry{
			PersonID:    a.PersonID,
			FullName:    e.FullName(),
			Email:       e.Email,
			StationID:   a.StationID,
			StationName: s.Name,
			Score:       a.Score,
		})
	}
	for _, id := range result.UnassignedStations {
		d.UnassignedStations = append(d.UnassignedStations, stationByID[id].Name)
	}

	return d
}

// AssignEmployees runs the optimizer over the selected employees and stations
// and keeps the result as a draft until it is confirmed.
func (h *Handler) AssignEmployees(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SelectedStations  []string          `json:"selectedStations" validate:"unique,dive,required"`
		SelectedEmployees []string          `json:"selectedEmployees" validate:"unique,dive,required"`
		Config            *scheduler.Config `json:"config"`
	}

	if err := h.decodeValid(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	stations, err := h.repository.GetStationsByNames(req.SelectedStations)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	foundStations := make(map[string]bool, len(stations))
	stationIDs := make([]string, len(stations))
	for i, s := range stations {
		foundStations[s.Name] = true
		stationIDs[i] = s.ID
	}
	if name, ok := missing(req.SelectedStations, foundStations); ok {
		h.errorResponse(w, r, fmt.Sprintf("station %q does not exist", name))
		return
	}

	employees, err := h.repository.GetEmployeesByPersonIDs(req.SelectedEmployees)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	foundEmployees := make(map[string]bool, len(employees))
	for _, e := range employees {
		foundEmployees[e.PersonID] = true
	}
	if personID, ok := missing(req.SelectedEmployees, foundEmployees); ok {
		h.errorResponse(w, r, fmt.Sprintf("employee %q does not exist", personID))
		return
	}

	quals, err := h.repository.GetQualificationsFor(req.SelectedEmployees, stationIDs)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	idx, err := qualification.Build(quals)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	params := req.Config.Apply(h.optimizerParameters(len(stations)))
	opts := []scheduler.Option{scheduler.WithLogger(slog.Default())}
	if req.Config != nil && req.Config.Seed != nil {
		opts = append(opts, scheduler.WithSeed(*req.Config.Seed))
	}

	s, err := scheduler.New(&params, employees, stations, idx, opts...)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidParameter) {
			h.badRequest(w, r, err)
			return
		}
		h.internalServerError(w, r, err)
		return
	}

	// a timeout stops the search early with the best assignment found so far
	ctx, cancel := context.WithTimeout(r.Context(), time.Duration(h.config.Optimizer.Timeout)*time.Second)
	defer cancel()

	start := time.Now()
	result, err := s.Schedule(ctx)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	h.metrics.RecordOptimization(string(result.StopReason), time.Since(start), result.Generations, result.TotalScore, result.Gap)

	d := buildDraft(result, employees, stations)
	if err := h.drafts.Save(r.Context(), d); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	slog.Info("assignment draft created",
		"draftID", d.ID,
		"employees", len(employees),
		"stations", len(stations),
		"totalScore", result.TotalScore,
		"exactFallback", result.ExactFallback,
		"stopReason", string(result.StopReason),
	)

	h.successResponse(w, r, "assignment draft created", newDraftResponse(d))
}

func (h *Handler) GetAssignmentDraft(w http.ResponseWriter, r *http.Request) {
	d := r.Context().Value(AssignmentDraftCtx).(*domain.AssignmentDraft)
	h.successResponse(w, r, "assignment draft loaded", newDraftResponse(d))
}

// ConfirmAssignmentDraft stores the draft as assignments for one day and
// queues a notification mail for every assigned employee with an email.
func (h *Handler) ConfirmAssignmentDraft(w http.ResponseWriter, r *http.Request) {
	d := r.Context().Value(AssignmentDraftCtx).(*domain.AssignmentDraft)

	var req struct {
		Date          string `json:"date" validate:"required,datetime=2006-01-02"`
		NumberOfHours int32  `json:"numberOfHours" validate:"required,min=1,max=24"`
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

	assignments := make([]*domain.Assignment, 0, len(d.Entries))
	for _, e := range d.Entries {
		assignments = append(assignments, &domain.Assignment{
			Date:          date,
			StationName:   e.StationName,
			PersonID:      e.PersonID,
			NumberOfHours: req.NumberOfHours,
		})
	}

	if err := h.repository.InsertAssignments(assignments); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.ConstraintName == "assignments_person_id_fkey" {
			h.errorResponse(w, r, "an employee in this draft no longer exists")
			return
		}
		h.internalServerError(w, r, err)
		return
	}
	h.metrics.RecordDraftConfirmed()

	// the assignments are stored, a leftover draft only expires later
	if err := h.drafts.Delete(r.Context(), d.ID); err != nil {
		slog.Warn("failed to delete confirmed assignment draft", "draftID", d.ID, "error", err)
	}

	queued, failed := 0, 0
	for _, e := range d.Entries {
		if e.Email == "" {
			continue
		}

		mailMessage := domain.MailMessage{
			Type: domain.MailTypeAssignment,
			To:   e.Email,
			Data: domain.AssignmentMailData{
				FullName:      e.FullName,
				StationName:   e.StationName,
				Date:          req.Date,
				NumberOfHours: req.NumberOfHours,
				Score:         e.Score,
			},
		}
		if err := h.mailPublisher.Publish(r.Context(), mailMessage); err != nil {
			slog.Error("failed to queue assignment mail", "personID", e.PersonID, "error", err)
			h.metrics.RecordMailPublished(false)
			failed++
			continue
		}
		h.metrics.RecordMailPublished(true)
		queued++
	}

	h.successResponse(w, r, "assignments confirmed", map[string]any{
		"assignments": assignments,
		"mailsQueued": queued,
		"mailsFailed": failed,
	})
}
