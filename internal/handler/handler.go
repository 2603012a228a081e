// Package handler implements the request handlers behind the REST surface.
// Handlers depend on narrow interfaces so tests can substitute fakes for the
// AWS-backed collaborators and the live connection registry.
package handler

import (
	"context"

	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/datafortress/lakehouse/internal/sse"
)

// Notifier fans job lifecycle events out to a tenant's open connections.
type Notifier interface {
	BroadcastToTenant(tenantID string, event sse.Event)
}

// ProjectStore is the per-tenant project state storage.
type ProjectStore interface {
	GetProjectState(ctx context.Context, tenantID string, projectID string) (map[string]any, error)
	UpdateProjectCost(ctx context.Context, tenantID string, projectID string, cost float64) error
	UpdateJobStatus(ctx context.Context, tenantID string, projectID string, jobID string, status string) error
}

// ObjectStore is the data lake object storage.
type ObjectStore interface {
	SignedDownloadURL(ctx context.Context, key string) (string, error)
	ListObjects(ctx context.Context, prefix string) ([]s3types.Object, error)
}

// Orchestrator triggers ingestion events and workflow executions.
type Orchestrator interface {
	TriggerEvent(ctx context.Context, source string, detailType string, detail any) error
	StartWorkflow(ctx context.Context, stateMachineArn string, input any) (string, error)
}
