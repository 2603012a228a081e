package handler

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/datafortress/lakehouse/internal/costcalc"
	"github.com/datafortress/lakehouse/internal/ierr"
	"github.com/datafortress/lakehouse/internal/tenant"
)

type PendingRun struct {
	ResourceType    string  `json:"resourceType"`
	DurationSeconds float64 `json:"durationSeconds"`
}

// UpdateCostRequest carries the settled month-to-date figure plus any runs
// still in flight; the stored cost is the estimate including both.
type UpdateCostRequest struct {
	Cost        float64      `json:"cost"`
	PendingRuns []PendingRun `json:"pendingRuns,omitempty"`
}

type UpdateCostResponse struct {
	Success bool    `json:"success"`
	NewCost float64 `json:"newCost"`
}

// ProjectsHandler serves the per-tenant project state tree.
type ProjectsHandler struct {
	logger *zap.Logger
	store  ProjectStore
}

func NewProjectsHandler(logger *zap.Logger, store ProjectStore) *ProjectsHandler {
	return &ProjectsHandler{
		logger: logger,
		store:  store,
	}
}

func (h *ProjectsHandler) GetState(ctx context.Context, projectID string) (map[string]any, error) {
	tc, ok := tenant.FromContext(ctx)
	if !ok || !tc.Asserted {
		return nil, ierr.New(ierr.ErrorCodeUnauthenticated, errors.New("tenant context required"))
	}

	state, err := h.store.GetProjectState(ctx, tc.TenantID, projectID)
	if err != nil {
		return nil, ierr.New(ierr.ErrorCodeInternal, errors.New("failed to fetch project state"))
	}

	if state == nil {
		return nil, ierr.New(ierr.ErrorCodeNotFound, errors.New("project state not found"))
	}

	return state, nil
}

func (h *ProjectsHandler) UpdateCost(ctx context.Context, projectID string, req UpdateCostRequest) (UpdateCostResponse, error) {
	tc, ok := tenant.FromContext(ctx)
	if !ok || !tc.Asserted {
		return UpdateCostResponse{}, ierr.New(ierr.ErrorCodeUnauthenticated, errors.New("tenant context required"))
	}

	pending := make([]costcalc.PendingRun, 0, len(req.PendingRuns))
	for _, run := range req.PendingRuns {
		pending = append(pending, costcalc.PendingRun{
			ResourceType:    run.ResourceType,
			DurationSeconds: run.DurationSeconds,
		})
	}

	newCost := costcalc.EstimateMonthToDate(req.Cost, pending)

	err := h.store.UpdateProjectCost(ctx, tc.TenantID, projectID, newCost)
	if err != nil {
		return UpdateCostResponse{}, ierr.New(ierr.ErrorCodeInternal, errors.New("failed to update cost"))
	}

	return UpdateCostResponse{
		Success: true,
		NewCost: newCost,
	}, nil
}
