package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"reentry/internal/guidance/handler/mocks"
	"reentry/internal/guidance/models"
	"reentry/internal/guidance/service"
	id "reentry/pkg/domain"
	dErrors "reentry/pkg/domain-errors"
)

//go:generate mockgen -source=handler.go -destination=mocks/guidance-mocks.go -package=mocks Service
type GuidanceHandlerSuite struct {
	suite.Suite
	ctx context.Context
}

func (s *GuidanceHandlerSuite) SetupSuite() {
	s.ctx = context.Background()
}

func TestGuidanceHandlerSuite(t *testing.T) {
	suite.Run(t, new(GuidanceHandlerSuite))
}

func newTestHandler(t *testing.T) (*Handler, *mocks.MockService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	mockService := mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	handler := New(mockService, logger, nil)
	r := chi.NewRouter()
	handler.Register(r)
	return handler, mockService
}

func routed(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func (s *GuidanceHandlerSuite) TestHandleOpenTask() {
	handler, mockService := newTestHandler(s.T())
	participantID := id.NewParticipantID()
	taskID := id.NewTaskID()
	opened := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	mockService.EXPECT().Open(gomock.Any(), service.OpenTaskInput{
		ParticipantID:   participantID,
		ParticipantName: "Dana Walsh",
		MentorID:        "mentor-17",
		MentorName:      "Marcus Webb",
		GuidanceNotes:   "Discuss first-week goals",
	}).Return(&models.Task{
		ID:              taskID,
		ParticipantID:   participantID,
		ParticipantName: "Dana Walsh",
		MentorID:        "mentor-17",
		MentorName:      "Marcus Webb",
		GuidanceNotes:   "Discuss first-week goals",
		Status:          models.TaskPending,
		CreatedAt:       opened,
	}, nil)

	body, err := json.Marshal(openTaskRequest{
		ParticipantID:   participantID.String(),
		ParticipantName: "Dana Walsh",
		MentorID:        "mentor-17",
		MentorName:      "Marcus Webb",
		GuidanceNotes:   "Discuss first-week goals",
	})
	require.NoError(s.T(), err)

	req := httptest.NewRequest(http.MethodPost, "/guidance-tasks", bytes.NewReader(body))
	w := httptest.NewRecorder()
	handler.handleOpenTask(w, req)

	assert.Equal(s.T(), http.StatusCreated, w.Code)
	var resp map[string]any
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.T(), taskID.String(), resp["id"])
	assert.Equal(s.T(), "pending", resp["status"])
	assert.Equal(s.T(), "Discuss first-week goals", resp["guidanceNotes"])
}

func (s *GuidanceHandlerSuite) TestHandleOpenTaskRejectsBadParticipantID() {
	handler, _ := newTestHandler(s.T())

	body := []byte(`{"participantId":"not-a-uuid","guidanceNotes":"check in"}`)
	req := httptest.NewRequest(http.MethodPost, "/guidance-tasks", bytes.NewReader(body))
	w := httptest.NewRecorder()
	handler.handleOpenTask(w, req)

	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
}

func (s *GuidanceHandlerSuite) TestHandleListTasksDefaultsToPending() {
	handler, mockService := newTestHandler(s.T())
	mockService.EXPECT().ListPending(gomock.Any()).Return([]*models.Task{
		{ID: id.NewTaskID(), Status: models.TaskPending, GuidanceNotes: "notes"},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/guidance-tasks", nil)
	w := httptest.NewRecorder()
	handler.handleListTasks(w, req)

	assert.Equal(s.T(), http.StatusOK, w.Code)
	var resp []map[string]any
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(s.T(), resp, 1)
	assert.Equal(s.T(), "pending", resp[0]["status"])
}

func (s *GuidanceHandlerSuite) TestHandleListTasksByStatus() {
	handler, mockService := newTestHandler(s.T())
	mockService.EXPECT().ListPending(gomock.Any()).Return([]*models.Task{
		{ID: id.NewTaskID(), Status: models.TaskPending, GuidanceNotes: "notes"},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/guidance-tasks?status=pending", nil)
	w := httptest.NewRecorder()
	handler.handleListTasks(w, req)
	assert.Equal(s.T(), http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	handler.handleListTasks(w, httptest.NewRequest(http.MethodGet, "/guidance-tasks?status=completed", nil))
	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
}

func (s *GuidanceHandlerSuite) TestHandleListTasksFiltersByParticipant() {
	handler, mockService := newTestHandler(s.T())
	participantID := id.NewParticipantID()
	mockService.EXPECT().ListForParticipant(gomock.Any(), participantID).Return(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/guidance-tasks?participantId="+participantID.String(), nil)
	w := httptest.NewRecorder()
	handler.handleListTasks(w, req)

	assert.Equal(s.T(), http.StatusOK, w.Code)
	assert.JSONEq(s.T(), "[]", w.Body.String())
}

func (s *GuidanceHandlerSuite) TestHandleGetTaskNotFound() {
	handler, mockService := newTestHandler(s.T())
	taskID := id.NewTaskID()
	mockService.EXPECT().Get(gomock.Any(), taskID).
		Return(nil, dErrors.New(dErrors.CodeNotFound, "guidance task not found"))

	req := httptest.NewRequest(http.MethodGet, "/guidance-tasks/"+taskID.String(), nil)
	req = routed(req, "taskID", taskID.String())
	w := httptest.NewRecorder()
	handler.handleGetTask(w, req)

	assert.Equal(s.T(), http.StatusNotFound, w.Code)
	var resp map[string]any
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.T(), "not_found", resp["error"])
}

func (s *GuidanceHandlerSuite) TestHandleCompleteTask() {
	handler, mockService := newTestHandler(s.T())
	taskID := id.NewTaskID()
	completed := time.Date(2025, 3, 2, 15, 30, 0, 0, time.UTC)

	mockService.EXPECT().Complete(gomock.Any(), service.CompleteTaskInput{
		TaskID:        taskID,
		Response:      "Walked through the week-one plan",
		FollowUpNotes: "Revisit transport options",
	}).Return(&models.Task{
		ID:              taskID,
		Status:          models.TaskCompleted,
		GuidanceNotes:   "Discuss first-week goals",
		Response:        "Walked through the week-one plan",
		FollowUpNotes:   "Revisit transport options",
		CompletedBy:     "mentor-17",
		CompletedByName: "Marcus Webb",
		CompletedAt:     &completed,
	}, nil)

	body := []byte(`{"response":"Walked through the week-one plan","followUpNotes":"Revisit transport options"}`)
	req := httptest.NewRequest(http.MethodPost, "/guidance-tasks/"+taskID.String()+"/complete", bytes.NewReader(body))
	req = routed(req, "taskID", taskID.String())
	w := httptest.NewRecorder()
	handler.handleCompleteTask(w, req)

	assert.Equal(s.T(), http.StatusOK, w.Code)
	var resp map[string]any
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.T(), "completed", resp["status"])
	assert.Equal(s.T(), "Walked through the week-one plan", resp["response"])
	assert.Equal(s.T(), "mentor-17", resp["completedBy"])
}

func (s *GuidanceHandlerSuite) TestHandleCompleteTaskTwiceConflicts() {
	handler, mockService := newTestHandler(s.T())
	taskID := id.NewTaskID()
	mockService.EXPECT().Complete(gomock.Any(), gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeValidation, "task already completed"))

	body := []byte(`{"response":"second attempt"}`)
	req := httptest.NewRequest(http.MethodPost, "/guidance-tasks/"+taskID.String()+"/complete", bytes.NewReader(body))
	req = routed(req, "taskID", taskID.String())
	w := httptest.NewRecorder()
	handler.handleCompleteTask(w, req)

	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
	var resp map[string]any
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.T(), "task already completed", resp["error_description"])
}
