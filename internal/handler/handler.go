package handler

import (
	"context"
	"time"

	"github.com/Rashi-Foundation/Migdalor/backend/internal/config"
	"github.com/Rashi-Foundation/Migdalor/backend/internal/domain"
	"github.com/Rashi-Foundation/Migdalor/backend/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// Repository is the persistence the handlers need. *repository.Repository
// implements it.
type Repository interface {
	GetUserByID(id int64) (*domain.User, error)
	GetUserByUsername(username string) (*domain.User, error)
	GetAllUsers() ([]*domain.User, error)
	CreateUser(user *domain.User) error
	UpdateUser(user *domain.User) error
	DeleteUserByUsername(username string) error

	GetAllEmployees() ([]*domain.Employee, error)
	GetEmployeesByPersonIDs(personIDs []string) ([]*domain.Employee, error)
	GetEmployeeByPersonID(personID string) (*domain.Employee, error)
	CreateEmployee(e *domain.Employee) error
	UpdateEmployee(e *domain.Employee) error

	GetAllStations() ([]*domain.Station, error)
	GetStationByName(name string) (*domain.Station, error)
	GetStationsByNames(names []string) ([]*domain.Station, error)
	GetAllProducts() ([]domain.Product, error)
	GetWorkingStationsByStation(stationID string) ([]domain.WorkingStation, error)
	CreateWorkingStation(ws *domain.WorkingStation) error

	GetAllQualifications() ([]domain.Qualification, error)

	GetQualificationsByStation(stationID string) ([]domain.Qualification, error)
	GetQualificationsByPersonID(personID string) ([]domain.Qualification, error)
	GetQualificationsFor(personIDs, stationIDs []string) ([]domain.Qualification, error)
	CreateQualification(q *domain.Qualification) error
	UpsertQualification(q *domain.Qualification) error

	GetAssignmentsBetween(from, to time.Time) ([]*domain.Assignment, error)
	CreateAssignment(a *domain.Assignment) error
	InsertAssignments(assignments []*domain.Assignment) error
	DeleteNthAssignment(personID string, from, to time.Time, n int) error
}

// DraftStore keeps optimization results until they are confirmed.
type DraftStore interface {
	Save(ctx context.Context, d *domain.AssignmentDraft) error
	Get(ctx context.Context, id string) (*domain.AssignmentDraft, error)
	Delete(ctx context.Context, id string) error
}

type MailPublisher interface {
	Publish(ctx context.Context, msg domain.MailMessage) error
}

type Handler struct {
	validate      *validator.Validate
	config        *config.Config
	repository    Repository
	translator    ut.Translator
	mailPublisher MailPublisher
	drafts        DraftStore
	metrics       *metrics.Manager

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo Repository, publisher MailPublisher, drafts DraftStore, m *metrics.Manager) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	en := en.New()
	uni := ut.New(en, en)
	trans, _ := uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	if m == nil {
		m = metrics.Default()
	}

	return &Handler{
		validate:      validate,
		config:        cfg,
		repository:    repo,
		translator:    trans,
		mailPublisher: publisher,
		drafts:        drafts,
		metrics:       m,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)
	h.Mux.Use(h.instrument)

	h.Mux.Method("GET", "/metrics", h.metrics.Handler())

	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
	})

	// everything below requires a logged in user
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)

		r.Route("/me", func(r chi.Router) {
			r.Use(h.myInfo)
			r.Get("/", h.GetMyInfo)
			r.Patch("/password", h.UpdateMyPassword)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(h.RequiredRole([]domain.Role{domain.RoleAdmin}))
			r.Get("/", h.GetAllUsers)
			r.Post("/", h.CreateUser)
			r.Delete("/{username}", h.DeleteUser)
		})

		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.GetAllEmployees)
			r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Post("/", h.CreateEmployee)
			r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Put("/{personID}", h.UpdateEmployee)
		})

		r.Get("/products", h.GetAllProducts)

		r.Route("/stations", func(r chi.Router) {
			r.Get("/", h.GetAllStations)
			r.Route("/{name}", func(r chi.Router) {
				r.Use(h.station)
				r.Get("/top-employees/{count}", h.GetTopEmployees)
				r.Get("/sorted-employees", h.GetSortedEmployees)
				r.Get("/employees-with-qualifications", h.GetEmployeesWithQualifications)
				r.Get("/workstations", h.GetWorkingStations)
				r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Post("/workstations", h.CreateWorkingStation)
			})
		})

		r.Route("/qualifications", func(r chi.Router) {
			r.Get("/", h.GetAllQualifications)
			r.Get("/{personID}", h.GetEmployeeQualifications)
			r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Post("/", h.CreateQualification)
			r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Put("/", h.UpsertQualification)
		})

		r.Route("/assign-employees", func(r chi.Router) {
			r.Use(h.RequiredRole([]domain.Role{domain.RoleAdmin}))
			r.Post("/", h.AssignEmployees)
			r.Route("/{draftID}", func(r chi.Router) {
				r.Use(h.assignmentDraft)
				r.Get("/", h.GetAssignmentDraft)
				r.Post("/confirm", h.ConfirmAssignmentDraft)
			})
		})

		r.Route("/assignments", func(r chi.Router) {
			r.Get("/", h.GetAssignments)
			r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Post("/", h.CreateAssignment)
			r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Delete("/", h.DeleteAssignment)
		})
	})
}
