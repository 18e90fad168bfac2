// Package transport exposes the notification system over HTTP. Handlers are
// thin: decode, delegate to a domain service, translate domain errors to
// status codes.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"pretor/internal/execution"
	"pretor/internal/notification"
	"pretor/internal/notifier"
	id "pretor/pkg/domain"
	"pretor/pkg/sentinel"
)

// Orchestrator drives notification passes. Implemented by
// notifier.Orchestrator.
type Orchestrator interface {
	NotifyByCNJ(ctx context.Context, cnj string) (*notifier.Report, error)
	RunPending(ctx context.Context) (*notifier.BatchReport, error)
}

// Sender is the scheduler callback entry point. Implemented by
// notification.Lifecycle.
type Sender interface {
	SendScheduled(ctx context.Context, notifID id.NotificationID) (*notification.Notification, error)
}

// Reporter lists historical executions. Implemented by execution.Tracker.
type Reporter interface {
	ListSince(ctx context.Context, after time.Time) ([]execution.Report, error)
}

// Handler wires the notification endpoints to the domain services.
type Handler struct {
	orchestrator Orchestrator
	sender       Sender
	reporter     Reporter
	logger       *slog.Logger
}

func NewHandler(orchestrator Orchestrator, sender Sender, reporter Reporter, logger *slog.Logger) *Handler {
	return &Handler{
		orchestrator: orchestrator,
		sender:       sender,
		reporter:     reporter,
		logger:       logger,
	}
}

// HandleNotifyByCNJ handles POST /lawsuits/{cnj}/notify.
func (h *Handler) HandleNotifyByCNJ(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cnj := chi.URLParam(r, "cnj")
	if cnj == "" {
		writeError(w, http.StatusBadRequest, "missing cnj")
		return
	}

	start := time.Now()
	report, err := h.orchestrator.NotifyByCNJ(ctx, cnj)
	if err != nil {
		h.logger.ErrorContext(ctx, "lawsuit pass failed", "cnj", cnj, "error", err)
		writeDomainError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "lawsuit pass finished",
		"cnj", cnj,
		"movimentations", len(report.Movimentations),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	writeJSON(w, http.StatusOK, report)
}

// HandleRunPending handles POST /notifications/run, the periodic batch
// trigger.
func (h *Handler) HandleRunPending(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	start := time.Now()
	batch, err := h.orchestrator.RunPending(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "batch pass failed", "error", err)
		writeDomainError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "batch pass finished",
		"open_publications", batch.OpenPublications,
		"derived_movimentations", batch.DerivedMovimentations,
		"lawsuits", len(batch.Lawsuits),
		"failed_lawsuits", batch.FailedLawsuits,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	writeJSON(w, http.StatusOK, batch)
}

// HandleSendNotification handles POST /notifications/{id}/send, the scheduler
// callback target.
func (h *Handler) HandleSendNotification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	notifID, err := id.ParseNotificationID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed notification id")
		return
	}

	notif, err := h.sender.SendScheduled(ctx, notifID)
	if err != nil {
		h.logger.ErrorContext(ctx, "triggered send failed",
			"notification_id", notifID.String(), "error", err)
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"id":     notif.ID.String(),
		"status": string(notif.Status),
	})
}

// HandleListExecutions handles GET /executions?after=RFC3339.
func (h *Handler) HandleListExecutions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var after time.Time
	if raw := r.URL.Query().Get("after"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "after must be RFC3339")
			return
		}
		after = parsed
	}

	reports, err := h.reporter.ListSince(ctx, after)
	if err != nil {
		h.logger.ErrorContext(ctx, "listing executions failed", "error", err)
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeDomainError translates the sentinel taxonomy to status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, sentinel.ErrInvalidState):
		writeError(w, http.StatusConflict, "invalid state")
	case errors.Is(err, sentinel.ErrConflict):
		writeError(w, http.StatusConflict, "conflict")
	case errors.Is(err, sentinel.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "upstream unavailable")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
