package handler

import (
	"context"
	"errors"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"

	"github.com/datafortress/lakehouse/internal/ierr"
	"github.com/datafortress/lakehouse/internal/sse"
	"github.com/datafortress/lakehouse/internal/tenant"
)

// EventSource identifies this service on the orchestration bus.
const EventSource = "lakehouse.api"

type TriggerSyncRequest struct {
	Source string `json:"source"`
	JobID  string `json:"jobId"`
}

type TriggerSyncResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	JobID   string `json:"jobId"`
}

// TriggerSyncHandler kicks off an ingestion sync and optimistically notifies
// the tenant's open connections that the job started.
type TriggerSyncHandler struct {
	logger       *zap.Logger
	orchestrator Orchestrator
	notifier     Notifier
}

func NewTriggerSyncHandler(
	logger *zap.Logger,
	orchestrator Orchestrator,
	notifier Notifier,
) *TriggerSyncHandler {
	return &TriggerSyncHandler{
		logger:       logger,
		orchestrator: orchestrator,
		notifier:     notifier,
	}
}

func (h *TriggerSyncHandler) Handle(ctx context.Context, req TriggerSyncRequest) (TriggerSyncResponse, error) {
	tc, ok := tenant.FromContext(ctx)
	if !ok || !tc.Asserted {
		return TriggerSyncResponse{}, ierr.New(ierr.ErrorCodeUnauthenticated, errors.New("tenant context required"))
	}

	jobID := req.JobID
	if jobID == "" {
		jobID = gonanoid.Must()
	}

	err := h.orchestrator.TriggerEvent(ctx, EventSource, "TriggerSync", map[string]any{
		"tenantId":  tc.TenantID,
		"source":    req.Source,
		"jobId":     jobID,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return TriggerSyncResponse{}, ierr.New(ierr.ErrorCodeInternal, errors.New("failed to trigger sync"))
	}

	h.notifier.BroadcastToTenant(tc.TenantID, sse.JobStarted(jobID, "SYNCING"))

	return TriggerSyncResponse{
		Success: true,
		Message: "Sync triggered successfully",
		JobID:   jobID,
	}, nil
}

type RunFlowRequest struct {
	StateMachineArn string `json:"stateMachineArn"`
	Input           any    `json:"input"`
}

type RunFlowResponse struct {
	Success      bool   `json:"success"`
	ExecutionArn string `json:"executionArn"`
}

// RunFlowHandler starts a workflow execution explicitly.
type RunFlowHandler struct {
	logger       *zap.Logger
	orchestrator Orchestrator
}

func NewRunFlowHandler(logger *zap.Logger, orchestrator Orchestrator) *RunFlowHandler {
	return &RunFlowHandler{
		logger:       logger,
		orchestrator: orchestrator,
	}
}

func (h *RunFlowHandler) Handle(ctx context.Context, req RunFlowRequest) (RunFlowResponse, error) {
	if req.StateMachineArn == "" {
		return RunFlowResponse{}, ierr.New(ierr.ErrorCodeInvalidArgument, errors.New("missing stateMachineArn"))
	}

	input := req.Input
	if input == nil {
		input = map[string]any{}
	}

	executionArn, err := h.orchestrator.StartWorkflow(ctx, req.StateMachineArn, input)
	if err != nil {
		return RunFlowResponse{}, ierr.New(ierr.ErrorCodeInternal, errors.New("failed to start flow"))
	}

	return RunFlowResponse{
		Success:      true,
		ExecutionArn: executionArn,
	}, nil
}
