// Package handler exposes the participant lifecycle over HTTP. Handlers
// decode and hand off; every rule lives in the service.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"reentry/internal/participant/models"
	"reentry/internal/participant/schedule"
	"reentry/internal/platform/device"
	"reentry/internal/platform/metrics"
	"reentry/internal/platform/middleware"
	id "reentry/pkg/domain"
	dErrors "reentry/pkg/domain-errors"
	"reentry/pkg/platform/httputil"
	"reentry/pkg/requestcontext"
)

// Service defines the lifecycle operations the transport needs.
type Service interface {
	AddParticipant(ctx context.Context, req models.AddParticipantRequest) (*models.Participant, error)
	GetParticipant(ctx context.Context, participantID id.ParticipantID) (*models.Participant, error)
	ListParticipants(ctx context.Context) ([]*models.Participant, error)
	DeleteParticipant(ctx context.Context, participantID id.ParticipantID) error
	UpdateStatus(ctx context.Context, participantID id.ParticipantID, req models.UpdateStatusRequest) (*models.Participant, error)
	RecordContact(ctx context.Context, participantID id.ParticipantID, form models.ContactForm) (*models.Participant, error)
	RecordInitialContact(ctx context.Context, participantID id.ParticipantID, form models.InitialContactForm) (*models.Participant, error)
	RecordWeeklyUpdate(ctx context.Context, participantID id.ParticipantID, form models.CheckInForm) (*models.Participant, error)
	RecordMonthlyCheckIn(ctx context.Context, participantID id.ParticipantID, form models.CheckInForm) (*models.Participant, error)
	SubmitMonthlyReport(ctx context.Context, participantID id.ParticipantID, form models.CheckInForm) (*models.Participant, error)
	AssignToBridgeTeam(ctx context.Context, participantID id.ParticipantID, req models.AssignBridgeRequest) (*models.Participant, error)
	AssignToMentor(ctx context.Context, participantID id.ParticipantID, req models.AssignMentorRequest) (*models.Participant, error)
	CompleteGraduationStep(ctx context.Context, participantID id.ParticipantID, stepID string) (*models.Participant, error)
	AddNote(ctx context.Context, participantID id.ParticipantID, req models.AddNoteRequest) (*models.Participant, error)
	MergeParticipants(ctx context.Context, req models.MergeRequest) (*models.Participant, error)
}

type Handler struct {
	service   Service
	logger    *slog.Logger
	metrics   *metrics.Metrics
	validator middleware.TokenValidator
}

func New(service Service, logger *slog.Logger, m *metrics.Metrics, validator middleware.TokenValidator) *Handler {
	return &Handler{service: service, logger: logger, metrics: m, validator: validator}
}

// Register mounts the participant routes with the shared middleware chain.
func (h *Handler) Register(r chi.Router) {
	router := chi.NewRouter()
	router.Use(middleware.Recovery(h.logger))
	router.Use(middleware.RequestID)
	router.Use(middleware.RequestTime)
	router.Use(device.Middleware)
	router.Use(middleware.Logger(h.logger))
	router.Use(middleware.Timeout(30 * time.Second))
	router.Use(middleware.ContentTypeJSON)
	router.Use(middleware.Latency(h.metrics))
	router.Use(middleware.RequireAuth(h.validator, h.logger))

	router.Post("/", h.handleAddParticipant)
	router.Get("/", h.handleListParticipants)
	router.Post("/merge", h.handleMerge)
	router.Route("/{participantID}", func(r chi.Router) {
		r.Get("/", h.handleGetParticipant)
		r.Get("/overdue", h.handleOverdue)
		r.Delete("/", h.handleDeleteParticipant)
		r.Post("/status", h.handleUpdateStatus)
		r.Post("/contact", h.handleRecordContact)
		r.Post("/initial-contact", h.handleRecordInitialContact)
		r.Post("/weekly-update", h.handleWeeklyUpdate)
		r.Post("/monthly-check-in", h.handleMonthlyCheckIn)
		r.Post("/monthly-report", h.handleMonthlyReport)
		r.Post("/assign-bridge", h.handleAssignBridge)
		r.Post("/assign-mentor", h.handleAssignMentor)
		r.Post("/graduation-steps/{stepID}", h.handleGraduationStep)
		r.Post("/notes", h.handleAddNote)
	})

	r.Mount("/participants", router)
}

func (h *Handler) participantID(w http.ResponseWriter, r *http.Request) (id.ParticipantID, bool) {
	participantID, err := id.ParseParticipantID(chi.URLParam(r, "participantID"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.ParticipantID{}, false
	}
	return participantID, true
}

func decode[T any](w http.ResponseWriter, r *http.Request, dst *T) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return false
	}
	return true
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, status int, p *models.Participant, err error) {
	if err != nil {
		if code := dErrors.CodeOf(err); code == dErrors.CodeInternal || code == dErrors.CodeUnavailable {
			h.logger.ErrorContext(r.Context(), "participant operation failed",
				"path", r.URL.Path, "error", err)
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, status, p)
}

func (h *Handler) handleAddParticipant(w http.ResponseWriter, r *http.Request) {
	var req models.AddParticipantRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := h.service.AddParticipant(r.Context(), req)
	h.respond(w, r, http.StatusCreated, p, err)
}

func (h *Handler) handleListParticipants(w http.ResponseWriter, r *http.Request) {
	all, err := h.service.ListParticipants(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if all == nil {
		all = []*models.Participant{}
	}
	httputil.WriteJSON(w, http.StatusOK, all)
}

func (h *Handler) handleGetParticipant(w http.ResponseWriter, r *http.Request) {
	participantID, ok := h.participantID(w, r)
	if !ok {
		return
	}
	p, err := h.service.GetParticipant(r.Context(), participantID)
	h.respond(w, r, http.StatusOK, p, err)
}

// handleOverdue reports the derived overdue summary. Overdue is computed at
// read time, never persisted.
func (h *Handler) handleOverdue(w http.ResponseWriter, r *http.Request) {
	participantID, ok := h.participantID(w, r)
	if !ok {
		return
	}
	p, err := h.service.GetParticipant(r.Context(), participantID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, schedule.Check(p, requestcontext.Now(r.Context())))
}

func (h *Handler) handleDeleteParticipant(w http.ResponseWriter, r *http.Request) {
	participantID, ok := h.participantID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteParticipant(r.Context(), participantID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	participantID, ok := h.participantID(w, r)
	if !ok {
		return
	}
	var req models.UpdateStatusRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := h.service.UpdateStatus(r.Context(), participantID, req)
	h.respond(w, r, http.StatusOK, p, err)
}

func (h *Handler) handleRecordContact(w http.ResponseWriter, r *http.Request) {
	participantID, ok := h.participantID(w, r)
	if !ok {
		return
	}
	var form models.ContactForm
	if !decode(w, r, &form) {
		return
	}
	p, err := h.service.RecordContact(r.Context(), participantID, form)
	h.respond(w, r, http.StatusOK, p, err)
}

func (h *Handler) handleRecordInitialContact(w http.ResponseWriter, r *http.Request) {
	participantID, ok := h.participantID(w, r)
	if !ok {
		return
	}
	var form models.InitialContactForm
	if !decode(w, r, &form) {
		return
	}
	p, err := h.service.RecordInitialContact(r.Context(), participantID, form)
	h.respond(w, r, http.StatusOK, p, err)
}

func (h *Handler) handleWeeklyUpdate(w http.ResponseWriter, r *http.Request) {
	h.handleCheckIn(w, r, h.service.RecordWeeklyUpdate)
}

func (h *Handler) handleMonthlyCheckIn(w http.ResponseWriter, r *http.Request) {
	h.handleCheckIn(w, r, h.service.RecordMonthlyCheckIn)
}

func (h *Handler) handleMonthlyReport(w http.ResponseWriter, r *http.Request) {
	h.handleCheckIn(w, r, h.service.SubmitMonthlyReport)
}

func (h *Handler) handleCheckIn(w http.ResponseWriter, r *http.Request, record func(context.Context, id.ParticipantID, models.CheckInForm) (*models.Participant, error)) {
	participantID, ok := h.participantID(w, r)
	if !ok {
		return
	}
	var form models.CheckInForm
	if !decode(w, r, &form) {
		return
	}
	p, err := record(r.Context(), participantID, form)
	h.respond(w, r, http.StatusOK, p, err)
}

func (h *Handler) handleAssignBridge(w http.ResponseWriter, r *http.Request) {
	participantID, ok := h.participantID(w, r)
	if !ok {
		return
	}
	var req models.AssignBridgeRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := h.service.AssignToBridgeTeam(r.Context(), participantID, req)
	h.respond(w, r, http.StatusOK, p, err)
}

func (h *Handler) handleAssignMentor(w http.ResponseWriter, r *http.Request) {
	participantID, ok := h.participantID(w, r)
	if !ok {
		return
	}
	var req models.AssignMentorRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := h.service.AssignToMentor(r.Context(), participantID, req)
	h.respond(w, r, http.StatusOK, p, err)
}

func (h *Handler) handleGraduationStep(w http.ResponseWriter, r *http.Request) {
	participantID, ok := h.participantID(w, r)
	if !ok {
		return
	}
	p, err := h.service.CompleteGraduationStep(r.Context(), participantID, chi.URLParam(r, "stepID"))
	h.respond(w, r, http.StatusOK, p, err)
}

func (h *Handler) handleAddNote(w http.ResponseWriter, r *http.Request) {
	participantID, ok := h.participantID(w, r)
	if !ok {
		return
	}
	var req models.AddNoteRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := h.service.AddNote(r.Context(), participantID, req)
	h.respond(w, r, http.StatusOK, p, err)
}

func (h *Handler) handleMerge(w http.ResponseWriter, r *http.Request) {
	var req models.MergeRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := h.service.MergeParticipants(r.Context(), req)
	h.respond(w, r, http.StatusOK, p, err)
}
