package handler

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/datafortress/lakehouse/internal/ierr"
)

type ServiceStatus struct {
	Name     string `json:"name"`
	Status   string `json:"status"`
	LastSync string `json:"lastSync,omitempty"`
	Details  string `json:"details,omitempty"`
}

type ConnectorHealthResponse struct {
	Layer    int             `json:"layer"`
	Services []ServiceStatus `json:"services"`
}

type ScriptURLResponse struct {
	URL string `json:"url"`
}

// LayersHandler serves the ingestion-layer health view and transformation
// scripts from the lake bucket.
type LayersHandler struct {
	logger  *zap.Logger
	objects ObjectStore
}

func NewLayersHandler(logger *zap.Logger, objects ObjectStore) *LayersHandler {
	return &LayersHandler{
		logger:  logger,
		objects: objects,
	}
}

// ConnectorHealth reports the ingestion layer status. The connector sync
// status is still a fixed value; the bucket status comes from a minimal
// list probe.
func (h *LayersHandler) ConnectorHealth(ctx context.Context) (ConnectorHealthResponse, error) {
	connectorStatus := ServiceStatus{
		Name:     "Airbyte Sync",
		Status:   "HEALTHY",
		LastSync: time.Now().UTC().Format(time.RFC3339),
		Details:  "All connections active",
	}

	lakeStatus := ServiceStatus{Name: "S3 Data Lake", Status: "HEALTHY"}
	if _, err := h.objects.ListObjects(ctx, "health-check"); err != nil {
		h.logger.Warn("data lake health probe failed", zap.Error(err))
		lakeStatus.Status = "UNHEALTHY"
	}

	return ConnectorHealthResponse{
		Layer:    1,
		Services: []ServiceStatus{connectorStatus, lakeStatus},
	}, nil
}

// ScriptURL returns a presigned URL the editor fetches script content from.
func (h *LayersHandler) ScriptURL(ctx context.Context, key string) (ScriptURLResponse, error) {
	if key == "" {
		return ScriptURLResponse{}, ierr.New(ierr.ErrorCodeInvalidArgument, errors.New("missing key query parameter"))
	}

	url, err := h.objects.SignedDownloadURL(ctx, key)
	if err != nil {
		return ScriptURLResponse{}, ierr.New(ierr.ErrorCodeInternal, errors.New("failed to get script url"))
	}

	return ScriptURLResponse{URL: url}, nil
}
