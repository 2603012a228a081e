package handler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/datafortress/lakehouse/internal/ierr"
	"github.com/datafortress/lakehouse/internal/sse"
)

type fakeNotifier struct {
	tenants []string
	events  []sse.Event
}

func (n *fakeNotifier) BroadcastToTenant(tenantID string, event sse.Event) {
	n.tenants = append(n.tenants, tenantID)
	n.events = append(n.events, event)
}

type fakeProjectStore struct {
	state      map[string]any
	stateErr   error
	costErr    error
	jobErr     error
	jobUpdates []string
	storedCost float64
}

func (s *fakeProjectStore) GetProjectState(ctx context.Context, tenantID string, projectID string) (map[string]any, error) {
	return s.state, s.stateErr
}

func (s *fakeProjectStore) UpdateProjectCost(ctx context.Context, tenantID string, projectID string, cost float64) error {
	s.storedCost = cost

	return s.costErr
}

func (s *fakeProjectStore) UpdateJobStatus(ctx context.Context, tenantID string, projectID string, jobID string, status string) error {
	s.jobUpdates = append(s.jobUpdates, jobID+":"+status)

	return s.jobErr
}

func TestSandboxCallbackHandler(t *testing.T) {
	logger := zap.NewNop()

	t.Run("completed job notifies the owning tenant", func(t *testing.T) {
		notifier := &fakeNotifier{}
		store := &fakeProjectStore{}
		h := NewSandboxCallbackHandler(logger, store, notifier)

		resp, err := h.Handle(context.Background(), SandboxCallbackRequest{
			TenantID:  "acme",
			ProjectID: "p1",
			Layer:     "gold",
			Status:    "SUCCEEDED",
			Output:    map[string]any{"rows": 42.0},
			JobID:     "j1",
		})

		assert.NoError(t, err)
		assert.True(t, resp.Received)
		assert.Equal(t, []string{"j1:SUCCEEDED"}, store.jobUpdates)
		assert.Equal(t, []string{"acme"}, notifier.tenants)
		assert.Equal(t, sse.EventTypeJobCompleted, notifier.events[0].Type)
		assert.Equal(t, "gold", notifier.events[0].Layer)
	})

	t.Run("failed job maps to the failure event", func(t *testing.T) {
		notifier := &fakeNotifier{}
		h := NewSandboxCallbackHandler(logger, &fakeProjectStore{}, notifier)

		_, err := h.Handle(context.Background(), SandboxCallbackRequest{
			TenantID: "acme",
			Status:   "failed",
			JobID:    "j1",
		})

		assert.NoError(t, err)
		assert.Equal(t, sse.EventTypeJobFailed, notifier.events[0].Type)
		assert.Equal(t, "failed", notifier.events[0].Status)
	})

	t.Run("missing jobId or status is rejected", func(t *testing.T) {
		notifier := &fakeNotifier{}
		h := NewSandboxCallbackHandler(logger, &fakeProjectStore{}, notifier)

		_, err := h.Handle(context.Background(), SandboxCallbackRequest{Status: "SUCCEEDED"})
		assert.Error(t, err)
		assert.Equal(t, ierr.ErrorCodeInvalidArgument, err.(ierr.Error).Code)

		_, err = h.Handle(context.Background(), SandboxCallbackRequest{JobID: "j1"})
		assert.Error(t, err)
		assert.Empty(t, notifier.events)
	})

	t.Run("anonymous callback records status but notifies nobody", func(t *testing.T) {
		notifier := &fakeNotifier{}
		h := NewSandboxCallbackHandler(logger, &fakeProjectStore{}, notifier)

		resp, err := h.Handle(context.Background(), SandboxCallbackRequest{
			JobID:  "j1",
			Status: "SUCCEEDED",
		})

		assert.NoError(t, err)
		assert.True(t, resp.Received)
		assert.Empty(t, notifier.events)
	})

	t.Run("store failure is surfaced", func(t *testing.T) {
		notifier := &fakeNotifier{}
		store := &fakeProjectStore{jobErr: errors.New("throttled")}
		h := NewSandboxCallbackHandler(logger, store, notifier)

		_, err := h.Handle(context.Background(), SandboxCallbackRequest{
			TenantID:  "acme",
			ProjectID: "p1",
			JobID:     "j1",
			Status:    "SUCCEEDED",
		})

		assert.Error(t, err)
		assert.Equal(t, ierr.ErrorCodeInternal, err.(ierr.Error).Code)
		assert.Empty(t, notifier.events)
	})
}
