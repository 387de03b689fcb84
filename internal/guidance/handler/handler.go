// Package handler exposes guidance tasks over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"reentry/internal/guidance/models"
	"reentry/internal/guidance/service"
	"reentry/internal/platform/middleware"
	id "reentry/pkg/domain"
	dErrors "reentry/pkg/domain-errors"
	"reentry/pkg/platform/httputil"
)

// Service defines the guidance operations the transport needs.
type Service interface {
	Open(ctx context.Context, in service.OpenTaskInput) (*models.Task, error)
	Complete(ctx context.Context, in service.CompleteTaskInput) (*models.Task, error)
	Get(ctx context.Context, taskID id.TaskID) (*models.Task, error)
	ListPending(ctx context.Context) ([]*models.Task, error)
	ListForParticipant(ctx context.Context, participantID id.ParticipantID) ([]*models.Task, error)
}

type Handler struct {
	service   Service
	logger    *slog.Logger
	validator middleware.TokenValidator
}

func New(service Service, logger *slog.Logger, validator middleware.TokenValidator) *Handler {
	return &Handler{service: service, logger: logger, validator: validator}
}

// Register mounts the guidance routes.
func (h *Handler) Register(r chi.Router) {
	router := chi.NewRouter()
	router.Use(middleware.Recovery(h.logger))
	router.Use(middleware.RequestID)
	router.Use(middleware.RequestTime)
	router.Use(middleware.Logger(h.logger))
	router.Use(middleware.Timeout(30 * time.Second))
	router.Use(middleware.ContentTypeJSON)
	router.Use(middleware.RequireAuth(h.validator, h.logger))

	router.Post("/", h.handleOpenTask)
	router.Get("/", h.handleListTasks)
	router.Get("/{taskID}", h.handleGetTask)
	router.Post("/{taskID}/complete", h.handleCompleteTask)

	r.Mount("/guidance-tasks", router)
}

type openTaskRequest struct {
	ParticipantID   string `json:"participantId"`
	ParticipantName string `json:"participantName,omitempty"`
	MentorID        string `json:"mentorId,omitempty"`
	MentorName      string `json:"mentorName,omitempty"`
	GuidanceNotes   string `json:"guidanceNotes"`
}

func (h *Handler) handleOpenTask(w http.ResponseWriter, r *http.Request) {
	var req openTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	participantID, err := id.ParseParticipantID(req.ParticipantID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	task, err := h.service.Open(r.Context(), service.OpenTaskInput{
		ParticipantID:   participantID,
		ParticipantName: req.ParticipantName,
		MentorID:        req.MentorID,
		MentorName:      req.MentorName,
		GuidanceNotes:   req.GuidanceNotes,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, task)
}

// handleListTasks returns pending tasks, or all tasks for one participant
// when participantId is supplied.
func (h *Handler) handleListTasks(w http.ResponseWriter, r *http.Request) {
	var (
		tasks []*models.Task
		err   error
	)
	switch {
	case r.URL.Query().Get("participantId") != "":
		var participantID id.ParticipantID
		participantID, err = id.ParseParticipantID(r.URL.Query().Get("participantId"))
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		tasks, err = h.service.ListForParticipant(r.Context(), participantID)
	case r.URL.Query().Get("status") == "" || r.URL.Query().Get("status") == string(models.TaskPending):
		tasks, err = h.service.ListPending(r.Context())
	default:
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "only pending tasks can be listed by status"))
		return
	}
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if tasks == nil {
		tasks = []*models.Task{}
	}
	httputil.WriteJSON(w, http.StatusOK, tasks)
}

func (h *Handler) handleGetTask(w http.ResponseWriter, r *http.Request) {
	taskID, err := id.ParseTaskID(chi.URLParam(r, "taskID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	task, err := h.service.Get(r.Context(), taskID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, task)
}

type completeTaskRequest struct {
	Response      string `json:"response"`
	FollowUpNotes string `json:"followUpNotes,omitempty"`
}

func (h *Handler) handleCompleteTask(w http.ResponseWriter, r *http.Request) {
	taskID, err := id.ParseTaskID(chi.URLParam(r, "taskID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var req completeTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	task, err := h.service.Complete(r.Context(), service.CompleteTaskInput{
		TaskID:        taskID,
		Response:      req.Response,
		FollowUpNotes: req.FollowUpNotes,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, task)
}
