package handler

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/datafortress/lakehouse/internal/ierr"
	"github.com/datafortress/lakehouse/internal/sse"
)

// SandboxCallbackRequest is what the sandbox runtimes post back when a job
// finishes. TenantID routes the notification; jobs triggered without a
// tenant still get their status recorded but notify nobody.
type SandboxCallbackRequest struct {
	TenantID  string `json:"tenantId"`
	ProjectID string `json:"projectId"`
	Layer     string `json:"layer"`
	Status    string `json:"status"`
	Output    any    `json:"output"`
	JobID     string `json:"jobId"`
}

type SandboxCallbackResponse struct {
	Received bool `json:"received"`
}

type SandboxCallbackHandler struct {
	logger   *zap.Logger
	store    ProjectStore
	notifier Notifier
}

func NewSandboxCallbackHandler(
	logger *zap.Logger,
	store ProjectStore,
	notifier Notifier,
) *SandboxCallbackHandler {
	return &SandboxCallbackHandler{
		logger:   logger,
		store:    store,
		notifier: notifier,
	}
}

func (h *SandboxCallbackHandler) Handle(ctx context.Context, req SandboxCallbackRequest) (SandboxCallbackResponse, error) {
	if req.JobID == "" || req.Status == "" {
		return SandboxCallbackResponse{}, ierr.New(ierr.ErrorCodeInvalidArgument, errors.New("invalid payload"))
	}

	h.logger.Info("received sandbox callback",
		zap.String("jobId", req.JobID),
		zap.String("status", req.Status),
		zap.String("tenantId", req.TenantID))

	if req.TenantID != "" && req.ProjectID != "" {
		err := h.store.UpdateJobStatus(ctx, req.TenantID, req.ProjectID, req.JobID, req.Status)
		if err != nil {
			return SandboxCallbackResponse{}, ierr.New(ierr.ErrorCodeInternal, errors.New("processing failed"))
		}
	}

	if req.TenantID != "" {
		h.notifier.BroadcastToTenant(req.TenantID, completionEvent(req))
	}

	return SandboxCallbackResponse{Received: true}, nil
}

func completionEvent(req SandboxCallbackRequest) sse.Event {
	switch strings.ToUpper(req.Status) {
	case "FAILED", "ERROR":
		return sse.JobFailed(req.JobID, req.Status, req.Layer, req.Output)
	default:
		return sse.JobCompleted(req.JobID, req.Status, req.Layer, req.Output)
	}
}
