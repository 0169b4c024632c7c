package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/Rashi-Foundation/Migdalor/backend/internal/config"
	"github.com/Rashi-Foundation/Migdalor/backend/internal/domain"
	"github.com/Rashi-Foundation/Migdalor/backend/internal/metrics"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

type fakeRepository struct {
	users           []*domain.User
	employees       []*domain.Employee
	stations        []*domain.Station
	workingStations []domain.WorkingStation
	qualifications  []domain.Qualification
	assignments     []*domain.Assignment
	nextID          int64
}

func (f *fakeRepository) GetUserByID(id int64) (*domain.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeRepository) GetUserByUsername(username string) (*domain.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeRepository) GetAllUsers() ([]*domain.User, error) { return f.users, nil }

func (f *fakeRepository) CreateUser(user *domain.User) error {
	f.nextID++
	user.ID = f.nextID
	user.IsActive = true
	f.users = append(f.users, user)
	return nil
}

func (f *fakeRepository) UpdateUser(user *domain.User) error {
	for _, u := range f.users {
		if u.ID != user.ID {
			continue
		}
		if u.Version != user.Version {
			return sql.ErrNoRows
		}
		user.Version++
		*u = *user
		return nil
	}
	return sql.ErrNoRows
}

func (f *fakeRepository) DeleteUserByUsername(username string) error {
	for i, u := range f.users {
		if u.Username == username {
			f.users = slices.Delete(f.users, i, i+1)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (f *fakeRepository) GetAllEmployees() ([]*domain.Employee, error) { return f.employees, nil }

func (f *fakeRepository) GetEmployeesByPersonIDs(personIDs []string) ([]*domain.Employee, error) {
	result := make([]*domain.Employee, 0)
	for _, id := range personIDs {
		if e, err := f.GetEmployeeByPersonID(id); err == nil {
			result = append(result, e)
		}
	}
	return result, nil
}

func (f *fakeRepository) GetEmployeeByPersonID(personID string) (*domain.Employee, error) {
	for _, e := range f.employees {
		if e.PersonID == personID {
			return e, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeRepository) CreateEmployee(e *domain.Employee) error {
	f.nextID++
	e.ID = f.nextID
	f.employees = append(f.employees, e)
	return nil
}

func (f *fakeRepository) UpdateEmployee(e *domain.Employee) error {
	for _, existing := range f.employees {
		if existing.PersonID != e.PersonID {
			continue
		}
		if existing.Version != e.Version {
			return sql.ErrNoRows
		}
		e.Version++
		*existing = *e
		return nil
	}
	return sql.ErrNoRows
}

func (f *fakeRepository) GetAllStations() ([]*domain.Station, error) { return f.stations, nil }

func (f *fakeRepository) GetAllProducts() ([]domain.Product, error) {
	counts := make(map[string]int)
	for _, s := range f.stations {
		if s.Product != "" {
			counts[s.Product]++
		}
	}

	products := make([]domain.Product, 0, len(counts))
	for name, n := range counts {
		products = append(products, domain.Product{Name: name, StationCount: n})
	}
	slices.SortFunc(products, func(a, b domain.Product) int { return strings.Compare(a.Name, b.Name) })
	return products, nil
}

func (f *fakeRepository) GetWorkingStationsByStation(stationID string) ([]domain.WorkingStation, error) {
	result := make([]domain.WorkingStation, 0)
	for _, ws := range f.workingStations {
		if ws.StationID == stationID {
			result = append(result, ws)
		}
	}
	return result, nil
}

func (f *fakeRepository) CreateWorkingStation(ws *domain.WorkingStation) error {
	for _, existing := range f.workingStations {
		if existing.Name == ws.Name {
			return &pgconn.PgError{Code: "23505", ConstraintName: "working_stations_name_key"}
		}
	}
	f.nextID++
	ws.ID = f.nextID
	f.workingStations = append(f.workingStations, *ws)
	return nil
}

func (f *fakeRepository) GetAllQualifications() ([]domain.Qualification, error) {
	return f.qualifications, nil
}

func (f *fakeRepository) CreateQualification(q *domain.Qualification) error {
	for _, existing := range f.qualifications {
		if existing.PersonID == q.PersonID && existing.StationID == q.StationID {
			return &pgconn.PgError{Code: "23505", ConstraintName: "qualifications_person_station_key"}
		}
	}
	f.qualifications = append(f.qualifications, *q)
	return nil
}

func (f *fakeRepository) GetStationByName(name string) (*domain.Station, error) {
	for _, s := range f.stations {
		if s.Name == name {
			return s, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeRepository) GetStationsByNames(names []string) ([]*domain.Station, error) {
	result := make([]*domain.Station, 0)
	for _, name := range names {
		if s, err := f.GetStationByName(name); err == nil {
			result = append(result, s)
		}
	}
	return result, nil
}

func (f *fakeRepository) GetQualificationsByStation(stationID string) ([]domain.Qualification, error) {
	result := make([]domain.Qualification, 0)
	for _, q := range f.qualifications {
		if q.StationID == stationID {
			result = append(result, q)
		}
	}
	return result, nil
}

func (f *fakeRepository) GetQualificationsByPersonID(personID string) ([]domain.Qualification, error) {
	result := make([]domain.Qualification, 0)
	for _, q := range f.qualifications {
		if q.PersonID == personID {
			result = append(result, q)
		}
	}
	return result, nil
}

func (f *fakeRepository) GetQualificationsFor(personIDs, stationIDs []string) ([]domain.Qualification, error) {
	result := make([]domain.Qualification, 0)
	for _, q := range f.qualifications {
		if slices.Contains(personIDs, q.PersonID) && slices.Contains(stationIDs, q.StationID) {
			result = append(result, q)
		}
	}
	return result, nil
}

func (f *fakeRepository) UpsertQualification(q *domain.Qualification) error {
	for i, existing := range f.qualifications {
		if existing.PersonID == q.PersonID && existing.StationID == q.StationID {
			f.qualifications[i] = *q
			return nil
		}
	}
	f.qualifications = append(f.qualifications, *q)
	return nil
}

func (f *fakeRepository) GetAssignmentsBetween(from, to time.Time) ([]*domain.Assignment, error) {
	result := make([]*domain.Assignment, 0)
	for _, a := range f.assignments {
		if !a.Date.Before(from) && a.Date.Before(to) {
			result = append(result, a)
		}
	}
	return result, nil
}

func (f *fakeRepository) CreateAssignment(a *domain.Assignment) error {
	f.nextID++
	a.ID = f.nextID
	f.assignments = append(f.assignments, a)
	return nil
}

func (f *fakeRepository) InsertAssignments(assignments []*domain.Assignment) error {
	for _, a := range assignments {
		if err := f.CreateAssignment(a); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeRepository) DeleteNthAssignment(personID string, from, to time.Time, n int) error {
	seen := 0
	for i, a := range f.assignments {
		if a.PersonID != personID || a.Date.Before(from) || !a.Date.Before(to) {
			continue
		}
		seen++
		if seen == n {
			f.assignments = slices.Delete(f.assignments, i, i+1)
			return nil
		}
	}
	return sql.ErrNoRows
}

type fakeDrafts struct {
	drafts map[string]*domain.AssignmentDraft
}

func (f *fakeDrafts) Save(ctx context.Context, d *domain.AssignmentDraft) error {
	d.ID = uuid.NewString()
	d.ExpiresAt = time.Now().Add(time.Hour)
	f.drafts[d.ID] = d
	return nil
}

func (f *fakeDrafts) Get(ctx context.Context, id string) (*domain.AssignmentDraft, error) {
	d, ok := f.drafts[id]
	if !ok {
		return nil, domain.ErrDraftNotFound
	}
	return d, nil
}

func (f *fakeDrafts) Delete(ctx context.Context, id string) error {
	delete(f.drafts, id)
	return nil
}

type fakePublisher struct {
	messages []domain.MailMessage
	fail     bool
}

func (f *fakePublisher) Publish(ctx context.Context, msg domain.MailMessage) error {
	if f.fail {
		return errors.New("broker unavailable")
	}
	f.messages = append(f.messages, msg)
	return nil
}

type testEnv struct {
	handler   *Handler
	repo      *fakeRepository
	drafts    *fakeDrafts
	publisher *fakePublisher
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.JWT.Secret = testSecret
	cfg.JWT.Expiration = 3600
	cfg.NewUser.PasswordLength = 12
	cfg.InitialAdmin.Username = "admin"
	cfg.Optimizer.MinPopulation = 20
	cfg.Optimizer.PopulationPerStation = 4
	cfg.Optimizer.MaxGenerations = 500
	cfg.Optimizer.StagnationLimit = 50
	cfg.Optimizer.CrossoverRate = 0.9
	cfg.Optimizer.MutationRate = 0.2
	cfg.Optimizer.EliteCount = 1
	cfg.Optimizer.TournamentSize = 3
	cfg.Optimizer.GapCheckLimit = 64
	cfg.Optimizer.Timeout = 30
	return cfg
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("secret-password"), bcrypt.MinCost)
	require.NoError(t, err)

	repo := &fakeRepository{
		nextID: 100,
		users: []*domain.User{
			{ID: 1, Username: "admin", PasswordHash: string(hash), FullName: "Administrator", Email: "admin@migdalor.org.il", Role: domain.RoleAdmin, IsActive: true},
			{ID: 2, Username: "viewer", PasswordHash: string(hash), FullName: "Viewer", Email: "viewer@migdalor.org.il", Role: domain.RoleViewer, IsActive: true},
		},
		employees: []*domain.Employee{
			{PersonID: "A", FirstName: "Noa", LastName: "Cohen", Email: "noa@migdalor.org.il"},
			{PersonID: "B", FirstName: "Amit", LastName: "Levi", Email: "amit@migdalor.org.il"},
			{PersonID: "C", FirstName: "Yael", LastName: "Mizrahi"},
			{PersonID: "D", FirstName: "Omer", LastName: "Peretz"},
			{PersonID: "E", FirstName: "Tamar", LastName: "Biton"},
		},
		stations: []*domain.Station{
			{ID: "S1", Name: "Cutting", Product: "Valve"},
			{ID: "S2", Name: "Welding", Product: "Valve"},
			{ID: "S3", Name: "Packing", Product: "Bracket"},
		},
		workingStations: []domain.WorkingStation{
			{ID: 1, Name: "Cutting-1", StationID: "S1"},
			{ID: 2, Name: "Cutting-2", StationID: "S1"},
			{ID: 3, Name: "Welding-1", StationID: "S2"},
		},
		qualifications: []domain.Qualification{
			{PersonID: "A", StationID: "S1", Score: 90},
			{PersonID: "B", StationID: "S1", Score: 40},
			{PersonID: "B", StationID: "S2", Score: 85},
			{PersonID: "C", StationID: "S3", Score: 95},
			{PersonID: "D", StationID: "S2", Score: 50},
			{PersonID: "E", StationID: "S3", Score: 20},
		},
	}
	drafts := &fakeDrafts{drafts: make(map[string]*domain.AssignmentDraft)}
	publisher := &fakePublisher{}

	h, err := NewHandler(testConfig(), repo, publisher, drafts, metrics.NewManager())
	require.NoError(t, err)
	h.RegisterRoutes()

	return &testEnv{handler: h, repo: repo, drafts: drafts, publisher: publisher}
}

func tokenCookie(t *testing.T, userID int64, role domain.Role) *http.Cookie {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AuthClaims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			Subject:   strconv.FormatInt(userID, 10),
		},
	})
	ss, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)

	return &http.Cookie{Name: tokenCookieName, Value: ss}
}

type decodedResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (env *testEnv) do(t *testing.T, method, path string, body any, cookie *http.Cookie) (*httptest.ResponseRecorder, decodedResponse) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	env.handler.Mux.ServeHTTP(rec, req)

	var resp decodedResponse
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)

	rec, resp := env.do(t, http.MethodPost, "/auth/login", map[string]string{"username": "admin", "password": "secret-password"}, nil)
	require.True(t, resp.Success, resp.Message)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, tokenCookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	// the issued cookie authenticates later requests
	_, resp = env.do(t, http.MethodGet, "/me/", nil, cookies[0])
	assert.True(t, resp.Success, resp.Message)
	assert.NotContains(t, string(resp.Data), "password")

	_, resp = env.do(t, http.MethodPost, "/auth/login", map[string]string{"username": "admin", "password": "wrong"}, nil)
	assert.False(t, resp.Success)
	assert.Equal(t, "invalid username or password", resp.Message)

	_, resp = env.do(t, http.MethodPost, "/auth/login", map[string]string{"username": "admin"}, nil)
	assert.False(t, resp.Success)
	assert.Equal(t, "Password is a required field", resp.Message)
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)

	_, resp := env.do(t, http.MethodGet, "/stations", nil, nil)
	assert.False(t, resp.Success)
	assert.Equal(t, "not logged in", resp.Message)

	_, resp = env.do(t, http.MethodGet, "/stations", nil, &http.Cookie{Name: tokenCookieName, Value: "garbage"})
	assert.False(t, resp.Success)
	assert.Equal(t, "invalid token", resp.Message)

	_, resp = env.do(t, http.MethodPost, "/assign-employees", map[string]any{}, tokenCookie(t, 2, domain.RoleViewer))
	assert.False(t, resp.Success)
	assert.Equal(t, "permission denied", resp.Message)
}

func TestGetTopEmployees(t *testing.T) {
	env := newTestEnv(t)
	cookie := tokenCookie(t, 2, domain.RoleViewer)

	_, resp := env.do(t, http.MethodGet, "/stations/Welding/top-employees/2", nil, cookie)
	require.True(t, resp.Success, resp.Message)

	var top []struct {
		Employee domain.Employee `json:"employee"`
		Score    float64         `json:"score"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &top))
	require.Len(t, top, 2)
	assert.Equal(t, "B", top[0].Employee.PersonID)
	assert.Equal(t, 85.0, top[0].Score)
	assert.Equal(t, "D", top[1].Employee.PersonID)
	assert.Equal(t, 50.0, top[1].Score)

	_, resp = env.do(t, http.MethodGet, "/stations/Welding/top-employees/0", nil, cookie)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "invalid parameter")

	_, resp = env.do(t, http.MethodGet, "/stations/Welding/top-employees/two", nil, cookie)
	assert.False(t, resp.Success)
	assert.Equal(t, "count must be an integer", resp.Message)

	_, resp = env.do(t, http.MethodGet, "/stations/Painting/top-employees/2", nil, cookie)
	assert.False(t, resp.Success)
	assert.Equal(t, `station "Painting" does not exist`, resp.Message)
}

func TestGetSortedAndQualifiedEmployees(t *testing.T) {
	env := newTestEnv(t)
	cookie := tokenCookie(t, 2, domain.RoleViewer)

	_, resp := env.do(t, http.MethodGet, "/stations/Cutting/sorted-employees", nil, cookie)
	require.True(t, resp.Success, resp.Message)

	var sorted []struct {
		Employee domain.Employee `json:"employee"`
		Score    float64         `json:"score"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &sorted))
	require.Len(t, sorted, 5)
	assert.Equal(t, "A", sorted[0].Employee.PersonID)
	assert.Equal(t, "B", sorted[1].Employee.PersonID)
	// unqualified workers follow in roster order
	assert.Equal(t, "C", sorted[2].Employee.PersonID)
	assert.Equal(t, "E", sorted[4].Employee.PersonID)

	_, resp = env.do(t, http.MethodGet, "/stations/Cutting/employees-with-qualifications", nil, cookie)
	require.True(t, resp.Success, resp.Message)

	var qualified []struct {
		Employee domain.Employee `json:"employee"`
		Score    *float64        `json:"qualificationAvg"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &qualified))
	require.Len(t, qualified, 2)
	assert.Equal(t, 90.0, *qualified[0].Score)
	assert.Equal(t, 40.0, *qualified[1].Score)
}

func TestAssignEmployeesAndConfirm(t *testing.T) {
	env := newTestEnv(t)
	cookie := tokenCookie(t, 1, domain.RoleAdmin)

	_, resp := env.do(t, http.MethodPost, "/assign-employees", map[string]any{
		"selectedStations":  []string{"Cutting", "Welding", "Packing"},
		"selectedEmployees": []string{"A", "B", "C", "D", "E"},
		"config":            map[string]any{"seed": 7},
	}, cookie)
	require.True(t, resp.Success, resp.Message)

	var draft draftResponse
	require.NoError(t, json.Unmarshal(resp.Data, &draft))
	require.NotEmpty(t, draft.DraftID)
	assert.Equal(t, 270.0, draft.TotalScore)
	assert.Equal(t, assignedStation{StationID: "S1", StationName: "Cutting", QualificationScore: 90}, draft.Assignments["A"])
	assert.Equal(t, assignedStation{StationID: "S2", StationName: "Welding", QualificationScore: 85}, draft.Assignments["B"])
	assert.Equal(t, assignedStation{StationID: "S3", StationName: "Packing", QualificationScore: 95}, draft.Assignments["C"])
	assert.ElementsMatch(t, []string{"D", "E"}, draft.IdleWorkers)
	require.NotNil(t, draft.Gap)
	assert.Equal(t, 0.0, *draft.Gap)

	_, resp = env.do(t, http.MethodGet, "/assign-employees/"+draft.DraftID+"/", nil, cookie)
	assert.True(t, resp.Success, resp.Message)

	_, resp = env.do(t, http.MethodPost, "/assign-employees/"+draft.DraftID+"/confirm", map[string]any{
		"date":          "2026-10-18",
		"numberOfHours": 8,
	}, cookie)
	require.True(t, resp.Success, resp.Message)

	require.Len(t, env.repo.assignments, 3)
	for _, a := range env.repo.assignments {
		assert.Equal(t, time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC), a.Date)
		assert.Equal(t, int32(8), a.NumberOfHours)
	}

	// C has no email, so only A and B are notified
	require.Len(t, env.publisher.messages, 2)
	for _, m := range env.publisher.messages {
		assert.Equal(t, domain.MailTypeAssignment, m.Type)
	}
	assert.Empty(t, env.drafts.drafts)

	// a confirmed draft cannot be confirmed twice
	_, resp = env.do(t, http.MethodPost, "/assign-employees/"+draft.DraftID+"/confirm", map[string]any{
		"date":          "2026-10-18",
		"numberOfHours": 8,
	}, cookie)
	assert.False(t, resp.Success)
	assert.Equal(t, "assignment draft does not exist or has expired", resp.Message)
}

func TestAssignEmployees_Validation(t *testing.T) {
	env := newTestEnv(t)
	cookie := tokenCookie(t, 1, domain.RoleAdmin)

	tests := []struct {
		name    string
		body    map[string]any
		message string
	}{
		{
			name:    "unknown station",
			body:    map[string]any{"selectedStations": []string{"Cutting", "Painting"}, "selectedEmployees": []string{"A"}},
			message: `station "Painting" does not exist`,
		},
		{
			name:    "unknown employee",
			body:    map[string]any{"selectedStations": []string{"Cutting"}, "selectedEmployees": []string{"A", "Z"}},
			message: `employee "Z" does not exist`,
		},
		{
			name:    "duplicate station",
			body:    map[string]any{"selectedStations": []string{"Cutting", "Cutting"}, "selectedEmployees": []string{"A"}},
			message: "SelectedStations must contain unique values",
		},
		{
			name:    "mutation rate out of range",
			body:    map[string]any{"selectedStations": []string{"Cutting"}, "selectedEmployees": []string{"A"}, "config": map[string]any{"mutationRate": 2}},
			message: "MutationRate must be 1 or less",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, resp := env.do(t, http.MethodPost, "/assign-employees", tt.body, cookie)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.message, resp.Message)
		})
	}

	t.Run("explicit zero population is rejected", func(t *testing.T) {
		_, resp := env.do(t, http.MethodPost, "/assign-employees", map[string]any{
			"selectedStations":  []string{"Cutting"},
			"selectedEmployees": []string{"A"},
			"config":            map[string]any{"populationSize": 0},
		}, cookie)
		assert.False(t, resp.Success)
		assert.Equal(t, "PopulationSize must be 1 or greater", resp.Message)
	})

	assert.Empty(t, env.drafts.drafts)
}

func TestConfirm_MailFailureDoesNotFailConfirmation(t *testing.T) {
	env := newTestEnv(t)
	env.publisher.fail = true
	cookie := tokenCookie(t, 1, domain.RoleAdmin)

	_, resp := env.do(t, http.MethodPost, "/assign-employees", map[string]any{
		"selectedStations":  []string{"Cutting"},
		"selectedEmployees": []string{"A", "B"},
	}, cookie)
	require.True(t, resp.Success, resp.Message)

	var draft draftResponse
	require.NoError(t, json.Unmarshal(resp.Data, &draft))

	_, resp = env.do(t, http.MethodPost, "/assign-employees/"+draft.DraftID+"/confirm", map[string]any{
		"date":          "2026-10-18",
		"numberOfHours": 6,
	}, cookie)
	require.True(t, resp.Success, resp.Message)

	var confirmed struct {
		MailsQueued int `json:"mailsQueued"`
		MailsFailed int `json:"mailsFailed"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &confirmed))
	assert.Equal(t, 0, confirmed.MailsQueued)
	assert.Equal(t, 1, confirmed.MailsFailed)
	assert.Len(t, env.repo.assignments, 1)
}

func TestAssignments(t *testing.T) {
	env := newTestEnv(t)
	admin := tokenCookie(t, 1, domain.RoleAdmin)

	_, resp := env.do(t, http.MethodGet, "/assignments", nil, admin)
	assert.False(t, resp.Success)
	assert.Equal(t, "date parameter is required", resp.Message)

	for _, station := range []string{"Cutting", "Welding"} {
		_, resp = env.do(t, http.MethodPost, "/assignments", map[string]any{
			"date":               "2026-10-18",
			"workingStationName": station,
			"personID":           "A",
			"numberOfHours":      4,
		}, admin)
		require.True(t, resp.Success, resp.Message)
	}

	_, resp = env.do(t, http.MethodPost, "/assignments", map[string]any{
		"date":               "18/10/2026",
		"workingStationName": "Cutting",
		"personID":           "A",
		"numberOfHours":      4,
	}, admin)
	assert.False(t, resp.Success)

	_, resp = env.do(t, http.MethodGet, "/assignments?date=2026-10-18", nil, admin)
	require.True(t, resp.Success, resp.Message)
	var day []domain.Assignment
	require.NoError(t, json.Unmarshal(resp.Data, &day))
	assert.Len(t, day, 2)

	_, resp = env.do(t, http.MethodDelete, "/assignments", map[string]any{
		"date":             "2026-10-18",
		"personID":         "A",
		"assignmentNumber": 2,
	}, admin)
	require.True(t, resp.Success, resp.Message)
	require.Len(t, env.repo.assignments, 1)
	assert.Equal(t, "Cutting", env.repo.assignments[0].StationName)

	_, resp = env.do(t, http.MethodDelete, "/assignments", map[string]any{
		"date":             "2026-10-18",
		"personID":         "A",
		"assignmentNumber": 2,
	}, admin)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "not found")
}

func TestUpsertQualification(t *testing.T) {
	env := newTestEnv(t)
	admin := tokenCookie(t, 1, domain.RoleAdmin)

	_, resp := env.do(t, http.MethodPut, "/qualifications", map[string]any{"personID": "E", "stationName": "Welding", "avg": 0}, admin)
	require.True(t, resp.Success, resp.Message)

	_, resp = env.do(t, http.MethodPut, "/qualifications", map[string]any{"personID": "E", "stationName": "Welding", "avg": 77.5}, admin)
	require.True(t, resp.Success, resp.Message)

	_, resp = env.do(t, http.MethodGet, "/qualifications/E", nil, admin)
	require.True(t, resp.Success, resp.Message)
	var quals []domain.Qualification
	require.NoError(t, json.Unmarshal(resp.Data, &quals))
	assert.Contains(t, quals, domain.Qualification{PersonID: "E", StationID: "S2", Score: 77.5})
	assert.Len(t, quals, 2)

	_, resp = env.do(t, http.MethodPut, "/qualifications", map[string]any{"personID": "E", "stationName": "Welding", "avg": -1}, admin)
	assert.False(t, resp.Success)

	_, resp = env.do(t, http.MethodPut, "/qualifications", map[string]any{"personID": "Z", "stationName": "Welding", "avg": 10}, admin)
	assert.False(t, resp.Success)
	assert.Equal(t, `employee "Z" does not exist`, resp.Message)
}

func TestCreateEmployeeAndUser(t *testing.T) {
	env := newTestEnv(t)
	admin := tokenCookie(t, 1, domain.RoleAdmin)

	_, resp := env.do(t, http.MethodPost, "/employees", map[string]any{
		"personID":  "123456789",
		"firstName": " Shira ",
		"lastName":  "Avraham",
		"email":     "Shira@Migdalor.org.il",
	}, admin)
	require.True(t, resp.Success, resp.Message)

	e, err := env.repo.GetEmployeeByPersonID("123456789")
	require.NoError(t, err)
	assert.Equal(t, "Shira", e.FirstName)
	assert.Equal(t, "shira@migdalor.org.il", e.Email)
	assert.Equal(t, "active", e.Status)

	_, resp = env.do(t, http.MethodPost, "/users", map[string]any{
		"username": "dana",
		"fullName": "Dana Katz",
		"email":    "dana@migdalor.org.il",
		"role":     "viewer",
	}, admin)
	require.True(t, resp.Success, resp.Message)
	require.Len(t, env.publisher.messages, 1)
	assert.Equal(t, domain.MailTypeCreateUser, env.publisher.messages[0].Type)

	_, resp = env.do(t, http.MethodPost, "/users", map[string]any{
		"username": "eli",
		"fullName": "Eli Katz",
		"email":    "eli@migdalor.org.il",
		"role":     "owner",
	}, admin)
	assert.False(t, resp.Success)
	assert.Equal(t, "Role must be one of [admin viewer]", resp.Message)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	env.do(t, http.MethodGet, "/stations", nil, tokenCookie(t, 2, domain.RoleViewer))

	rec, _ := env.do(t, http.MethodGet, "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `migdalor_backend_http_requests_total{method="GET",route="/stations`)
}

func TestSessionCookies(t *testing.T) {
	env := newTestEnv(t)

	rec, resp := env.do(t, http.MethodPost, "/auth/login", map[string]string{"username": "admin", "password": "secret-password"}, nil)
	require.True(t, resp.Success, resp.Message)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "/", cookies[0].Path)
	assert.True(t, cookies[0].HttpOnly)
	assert.False(t, cookies[0].Secure)
	assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)
	assert.True(t, cookies[0].Expires.After(time.Now()))

	rec, resp = env.do(t, http.MethodPost, "/auth/logout", nil, cookies[0])
	require.True(t, resp.Success, resp.Message)
	cleared := rec.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, tokenCookieName, cleared[0].Name)
	assert.Empty(t, cleared[0].Value)
	assert.Equal(t, -1, cleared[0].MaxAge)
	assert.True(t, cleared[0].HttpOnly)

	t.Run("production cookies are strict", func(t *testing.T) {
		env.handler.config.Environment = "production"
		t.Cleanup(func() { env.handler.config.Environment = "" })

		rec, resp := env.do(t, http.MethodPost, "/auth/login", map[string]string{"username": "admin", "password": "secret-password"}, nil)
		require.True(t, resp.Success, resp.Message)
		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.True(t, cookies[0].Secure)
		assert.Equal(t, http.SameSiteStrictMode, cookies[0].SameSite)
	})

	t.Run("disabled account", func(t *testing.T) {
		env.repo.users[1].IsActive = false
		rec, resp := env.do(t, http.MethodPost, "/auth/login", map[string]string{"username": "viewer", "password": "secret-password"}, nil)
		assert.False(t, resp.Success)
		assert.Equal(t, "account is disabled", resp.Message)
		assert.Empty(t, rec.Result().Cookies())
	})

	t.Run("unknown user", func(t *testing.T) {
		_, resp := env.do(t, http.MethodPost, "/auth/login", map[string]string{"username": "nobody", "password": "secret-password"}, nil)
		assert.False(t, resp.Success)
		assert.Equal(t, "invalid username or password", resp.Message)
	})
}

func TestRequestBodyErrors(t *testing.T) {
	env := newTestEnv(t)

	send := func(t *testing.T, body string) decodedResponse {
		t.Helper()
		req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
		rec := httptest.NewRecorder()
		env.handler.Mux.ServeHTTP(rec, req)
		require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var resp decodedResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		return resp
	}

	resp := send(t, "not json")
	assert.False(t, resp.Success)
	assert.Equal(t, "request body is not valid JSON", resp.Message)

	resp = send(t, `{"username": "`+strings.Repeat("a", maxRequestBodyBytes)+`", "password": "x"}`)
	assert.False(t, resp.Success)
	assert.Equal(t, "request body is too large", resp.Message)

	resp = send(t, "")
	assert.False(t, resp.Success)
	assert.Equal(t, "request body is not valid JSON", resp.Message)
}

func TestUpdateMyPassword(t *testing.T) {
	env := newTestEnv(t)
	cookie := tokenCookie(t, 2, domain.RoleViewer)

	_, resp := env.do(t, http.MethodPatch, "/me/password", map[string]string{"oldPassword": "wrong-password", "newPassword": "brand-new-password"}, cookie)
	assert.False(t, resp.Success)
	assert.Equal(t, "old password is incorrect", resp.Message)

	_, resp = env.do(t, http.MethodPatch, "/me/password", map[string]string{"oldPassword": "secret-password", "newPassword": "secret-password"}, cookie)
	assert.False(t, resp.Success)
	assert.Equal(t, "NewPassword cannot be equal to OldPassword", resp.Message)

	_, resp = env.do(t, http.MethodPatch, "/me/password", map[string]string{"oldPassword": "secret-password", "newPassword": "short"}, cookie)
	assert.False(t, resp.Success)

	rec, resp := env.do(t, http.MethodPatch, "/me/password", map[string]string{"oldPassword": "secret-password", "newPassword": "brand-new-password"}, cookie)
	require.True(t, resp.Success, resp.Message)

	// the session is renewed so the caller stays logged in
	renewed := rec.Result().Cookies()
	require.Len(t, renewed, 1)
	_, resp = env.do(t, http.MethodGet, "/me/", nil, renewed[0])
	assert.True(t, resp.Success, resp.Message)

	_, resp = env.do(t, http.MethodPost, "/auth/login", map[string]string{"username": "viewer", "password": "secret-password"}, nil)
	assert.False(t, resp.Success)
	_, resp = env.do(t, http.MethodPost, "/auth/login", map[string]string{"username": "viewer", "password": "brand-new-password"}, nil)
	assert.True(t, resp.Success, resp.Message)
}

func TestDeleteUser(t *testing.T) {
	env := newTestEnv(t)
	admin := tokenCookie(t, 1, domain.RoleAdmin)

	_, resp := env.do(t, http.MethodDelete, "/users/viewer", nil, tokenCookie(t, 2, domain.RoleViewer))
	assert.False(t, resp.Success)
	assert.Equal(t, "permission denied", resp.Message)

	_, resp = env.do(t, http.MethodDelete, "/users/admin", nil, admin)
	assert.False(t, resp.Success)
	assert.Equal(t, `the "admin" account cannot be deleted`, resp.Message)

	_, resp = env.do(t, http.MethodDelete, "/users/ghost", nil, admin)
	assert.False(t, resp.Success)
	assert.Equal(t, `user "ghost" does not exist`, resp.Message)

	env.repo.users = append(env.repo.users, &domain.User{ID: 3, Username: "ops", Role: domain.RoleAdmin, IsActive: true})
	_, resp = env.do(t, http.MethodDelete, "/users/ops", nil, tokenCookie(t, 3, domain.RoleAdmin))
	assert.False(t, resp.Success)
	assert.Equal(t, "you cannot delete your own account", resp.Message)

	_, resp = env.do(t, http.MethodDelete, "/users/viewer", nil, admin)
	require.True(t, resp.Success, resp.Message)
	_, err := env.repo.GetUserByUsername("viewer")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.Len(t, env.repo.users, 2)
}

func TestUpdateEmployee(t *testing.T) {
	env := newTestEnv(t)
	admin := tokenCookie(t, 1, domain.RoleAdmin)

	_, resp := env.do(t, http.MethodPut, "/employees/A", map[string]any{
		"lastName": " Cohen-Levi ",
		"email":    "Noa.C@Migdalor.org.il",
		"status":   "inactive",
	}, admin)
	require.True(t, resp.Success, resp.Message)

	e, err := env.repo.GetEmployeeByPersonID("A")
	require.NoError(t, err)
	assert.Equal(t, "Noa", e.FirstName)
	assert.Equal(t, "Cohen-Levi", e.LastName)
	assert.Equal(t, "noa.c@migdalor.org.il", e.Email)
	assert.Equal(t, "inactive", e.Status)
	assert.Equal(t, int32(1), e.Version)

	tests := []struct {
		name    string
		path    string
		body    map[string]any
		message string
	}{
		{name: "unknown employee", path: "/employees/Z", body: map[string]any{"role": "lead"}, message: `employee "Z" does not exist`},
		{name: "bad status", path: "/employees/B", body: map[string]any{"status": "retired"}, message: "Status must be one of [active inactive]"},
		{name: "blank first name", path: "/employees/B", body: map[string]any{"firstName": ""}, message: "FirstName must be at least 1 character in length"},
		{name: "bad email", path: "/employees/B", body: map[string]any{"email": "amit"}, message: "Email must be a valid email address"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, resp := env.do(t, http.MethodPut, tt.path, tt.body, admin)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.message, resp.Message)
		})
	}

	_, resp = env.do(t, http.MethodPut, "/employees/B", map[string]any{"role": "lead"}, tokenCookie(t, 2, domain.RoleViewer))
	assert.False(t, resp.Success)
	assert.Equal(t, "permission denied", resp.Message)
}

func TestQualificationsListAndCreate(t *testing.T) {
	env := newTestEnv(t)
	admin := tokenCookie(t, 1, domain.RoleAdmin)

	_, resp := env.do(t, http.MethodGet, "/qualifications", nil, tokenCookie(t, 2, domain.RoleViewer))
	require.True(t, resp.Success, resp.Message)
	var quals []domain.Qualification
	require.NoError(t, json.Unmarshal(resp.Data, &quals))
	assert.Len(t, quals, 6)

	_, resp = env.do(t, http.MethodPost, "/qualifications", map[string]any{"personID": "E", "stationName": "Welding", "avg": 60}, admin)
	require.True(t, resp.Success, resp.Message)
	assert.Contains(t, env.repo.qualifications, domain.Qualification{PersonID: "E", StationID: "S2", Score: 60})

	_, resp = env.do(t, http.MethodPost, "/qualifications", map[string]any{"personID": "A", "stationName": "Cutting", "avg": 10}, admin)
	assert.False(t, resp.Success)
	assert.Equal(t, `employee "A" already has a score for "Cutting"`, resp.Message)

	_, resp = env.do(t, http.MethodPost, "/qualifications", map[string]any{"personID": "A", "stationName": "Painting", "avg": 10}, admin)
	assert.False(t, resp.Success)
	assert.Equal(t, `station "Painting" does not exist`, resp.Message)

	_, resp = env.do(t, http.MethodPost, "/qualifications", map[string]any{"personID": "A", "stationName": "Packing", "avg": 10}, tokenCookie(t, 2, domain.RoleViewer))
	assert.False(t, resp.Success)
	assert.Equal(t, "permission denied", resp.Message)
	assert.Len(t, env.repo.qualifications, 7)
}

func TestProductsAndWorkingStations(t *testing.T) {
	env := newTestEnv(t)
	viewer := tokenCookie(t, 2, domain.RoleViewer)
	admin := tokenCookie(t, 1, domain.RoleAdmin)

	_, resp := env.do(t, http.MethodGet, "/products", nil, viewer)
	require.True(t, resp.Success, resp.Message)
	var products []domain.Product
	require.NoError(t, json.Unmarshal(resp.Data, &products))
	assert.Equal(t, []domain.Product{{Name: "Bracket", StationCount: 1}, {Name: "Valve", StationCount: 2}}, products)

	_, resp = env.do(t, http.MethodGet, "/stations/Cutting/workstations", nil, viewer)
	require.True(t, resp.Success, resp.Message)
	var workingStations []domain.WorkingStation
	require.NoError(t, json.Unmarshal(resp.Data, &workingStations))
	require.Len(t, workingStations, 2)
	assert.Equal(t, "Cutting-1", workingStations[0].Name)

	_, resp = env.do(t, http.MethodGet, "/stations/Painting/workstations", nil, viewer)
	assert.False(t, resp.Success)
	assert.Equal(t, `station "Painting" does not exist`, resp.Message)

	_, resp = env.do(t, http.MethodPost, "/stations/Packing/workstations", map[string]any{"workingStationName": "Packing-1"}, viewer)
	assert.False(t, resp.Success)
	assert.Equal(t, "permission denied", resp.Message)

	_, resp = env.do(t, http.MethodPost, "/stations/Packing/workstations", map[string]any{"workingStationName": " Packing-1 "}, admin)
	require.True(t, resp.Success, resp.Message)

	_, resp = env.do(t, http.MethodPost, "/stations/Packing/workstations", map[string]any{"workingStationName": "Packing-1"}, admin)
	assert.False(t, resp.Success)
	assert.Equal(t, `working station "Packing-1" already exists`, resp.Message)

	_, resp = env.do(t, http.MethodGet, "/stations/Packing/workstations", nil, viewer)
	require.True(t, resp.Success, resp.Message)
	require.NoError(t, json.Unmarshal(resp.Data, &workingStations))
	assert.Equal(t, []domain.WorkingStation{{ID: 101, Name: "Packing-1", StationID: "S3"}}, workingStations)
}
