package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/pedago-hub/campus-api/internal/middleware"
	"github.com/pedago-hub/campus-api/internal/models"
	"github.com/pedago-hub/campus-api/internal/service"
	"github.com/pedago-hub/campus-api/pkg/response"
)

type assignmentRepoStub struct {
	assignments map[string]*models.Assignment
	counts      map[string]models.AssignmentCounts
}

func (m *assignmentRepoStub) Create(ctx context.Context, assignment *models.Assignment) error {
	if m.assignments == nil {
		m.assignments = make(map[string]*models.Assignment)
	}
	assignment.ID = "as-new"
	m.assignments[assignment.ID] = assignment
	return nil
}

func (m *assignmentRepoStub) FindByID(ctx context.Context, id string) (*models.Assignment, error) {
	if a, ok := m.assignments[id]; ok {
		return a, nil
	}
	return nil, sql.ErrNoRows
}

func (m *assignmentRepoStub) Delete(ctx context.Context, id string) error {
	if _, ok := m.assignments[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.assignments, id)
	return nil
}

func (m *assignmentRepoStub) ListBySpace(ctx context.Context, spaceID string) ([]models.Assignment, error) {
	var list []models.Assignment
	for _, a := range m.assignments {
		if a.SpaceID == spaceID {
			list = append(list, *a)
		}
	}
	return list, nil
}

func (m *assignmentRepoStub) ListByAssignee(ctx context.Context, studentID string) ([]models.Assignment, error) {
	return nil, nil
}

func (m *assignmentRepoStub) ListBySpaces(ctx context.Context, spaceIDs []string) ([]models.Assignment, error) {
	return nil, nil
}

func (m *assignmentRepoStub) Counts(ctx context.Context, assignmentID string) (*models.AssignmentCounts, error) {
	if _, ok := m.assignments[assignmentID]; !ok {
		return nil, sql.ErrNoRows
	}
	c := m.counts[assignmentID]
	return &c, nil
}

func (m *assignmentRepoStub) CountsBySpaces(ctx context.Context, spaceIDs []string) (map[string]models.AssignmentCounts, error) {
	return m.counts, nil
}

type rosterStub struct{}

func (rosterStub) FindByID(ctx context.Context, id string) (*models.Space, error) {
	if id != "sp1" {
		return nil, sql.ErrNoRows
	}
	return &models.Space{ID: "sp1", Name: "Mathematics", Coefficient: 3}, nil
}

func (rosterStub) ListStudentIDs(ctx context.Context, spaceID string) ([]string, error) {
	return []string{"stu1", "stu2"}, nil
}

func (rosterStub) IsInstructor(ctx context.Context, userID, spaceID string) (bool, error) {
	return userID == "ins1", nil
}

func (rosterStub) IsStudent(ctx context.Context, userID, spaceID string) (bool, error) {
	return userID == "stu1" || userID == "stu2", nil
}

func (rosterStub) ListByInstructor(ctx context.Context, instructorID string) ([]models.Space, error) {
	return []models.Space{{ID: "sp1"}}, nil
}

func (rosterStub) ListByStudent(ctx context.Context, studentID string) ([]models.Space, error) {
	return []models.Space{{ID: "sp1"}}, nil
}

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func newAssignmentHandler(repo *assignmentRepoStub) *AssignmentHandler {
	svc := service.NewAssignmentService(repo, rosterStub{}, nil, nil, nil)
	return NewAssignmentHandler(svc)
}

func TestAssignmentHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newAssignmentHandler(&assignmentRepoStub{})

	opens := time.Now().UTC()
	payload, _ := json.Marshal(service.CreateAssignmentRequest{
		SpaceID:      "sp1",
		Title:        "Algebra homework",
		Instructions: "Solve everything",
		Kind:         models.KindIndividual,
		OpensAt:      opens,
		DueAt:        opens.Add(72 * time.Hour),
		AssigneeIDs:  []string{"stu1"},
	})

	c, w := newGinContext(http.MethodPost, "/assignments", payload)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "ins1", Role: models.RoleInstructor})

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Nil(t, envelope.Error)
}

func TestAssignmentHandlerCreateInvalidPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newAssignmentHandler(&assignmentRepoStub{})

	c, w := newGinContext(http.MethodPost, "/assignments", []byte(`{"title":`))
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "ins1", Role: models.RoleInstructor})

	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAssignmentHandlerCreateForbidden(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newAssignmentHandler(&assignmentRepoStub{})

	opens := time.Now().UTC()
	payload, _ := json.Marshal(service.CreateAssignmentRequest{
		SpaceID:      "sp1",
		Title:        "Homework",
		Instructions: "Do it",
		Kind:         models.KindIndividual,
		OpensAt:      opens,
		DueAt:        opens.Add(time.Hour),
		AssigneeIDs:  []string{"stu1"},
	})

	c, w := newGinContext(http.MethodPost, "/assignments", payload)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "stu1", Role: models.RoleStudent})

	handler.Create(c)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestAssignmentHandlerGetNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newAssignmentHandler(&assignmentRepoStub{})

	c, w := newGinContext(http.MethodGet, "/assignments/missing", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "dir1", Role: models.RoleDirector})

	handler.Get(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestAssignmentHandlerStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &assignmentRepoStub{
		assignments: map[string]*models.Assignment{
			"as1": {ID: "as1", SpaceID: "sp1", DueAt: time.Now().UTC().Add(time.Hour)},
		},
		counts: map[string]models.AssignmentCounts{
			"as1": {Assignees: 2, Submitted: 1},
		},
	}
	handler := newAssignmentHandler(repo)

	c, w := newGinContext(http.MethodGet, "/assignments/as1/status", nil)
	c.Params = gin.Params{{Key: "id", Value: "as1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "dir1", Role: models.RoleDirector})

	handler.Status(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data struct {
			Status  models.AssignmentStatus `json:"status"`
			Overdue bool                    `json:"overdue"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Equal(t, models.StatusSubmitted, envelope.Data.Status)
	require.False(t, envelope.Data.Overdue)
}
