package handler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/datafortress/lakehouse/internal/ierr"
	"github.com/datafortress/lakehouse/internal/sse"
	"github.com/datafortress/lakehouse/internal/tenant"
)

type fakeOrchestrator struct {
	triggerErr  error
	workflowErr error

	events    []string
	details   []any
	workflows []string
}

func (o *fakeOrchestrator) TriggerEvent(ctx context.Context, source string, detailType string, detail any) error {
	o.events = append(o.events, source+"/"+detailType)
	o.details = append(o.details, detail)

	return o.triggerErr
}

func (o *fakeOrchestrator) StartWorkflow(ctx context.Context, stateMachineArn string, input any) (string, error) {
	o.workflows = append(o.workflows, stateMachineArn)

	if o.workflowErr != nil {
		return "", o.workflowErr
	}

	return stateMachineArn + ":execution:1", nil
}

func tenantContext(tenantID string) context.Context {
	return tenant.WithContext(context.Background(), tenant.Context{
		TenantID: tenantID,
		Asserted: true,
	})
}

func TestTriggerSyncHandler(t *testing.T) {
	logger := zap.NewNop()

	t.Run("triggers the event and notifies optimistically", func(t *testing.T) {
		orchestrator := &fakeOrchestrator{}
		notifier := &fakeNotifier{}
		h := NewTriggerSyncHandler(logger, orchestrator, notifier)

		resp, err := h.Handle(tenantContext("acme"), TriggerSyncRequest{
			Source: "stripe",
			JobID:  "j1",
		})

		assert.NoError(t, err)
		assert.True(t, resp.Success)
		assert.Equal(t, "j1", resp.JobID)
		assert.Equal(t, []string{"lakehouse.api/TriggerSync"}, orchestrator.events)

		detail := orchestrator.details[0].(map[string]any)
		assert.Equal(t, "acme", detail["tenantId"])
		assert.Equal(t, "stripe", detail["source"])

		assert.Equal(t, []string{"acme"}, notifier.tenants)
		assert.Equal(t, sse.EventTypeJobStarted, notifier.events[0].Type)
		assert.Equal(t, "SYNCING", notifier.events[0].Status)
	})

	t.Run("generates a job id when the caller omits one", func(t *testing.T) {
		h := NewTriggerSyncHandler(logger, &fakeOrchestrator{}, &fakeNotifier{})

		resp, err := h.Handle(tenantContext("acme"), TriggerSyncRequest{Source: "stripe"})

		assert.NoError(t, err)
		assert.NotEmpty(t, resp.JobID)
	})

	t.Run("requires an asserted tenant", func(t *testing.T) {
		notifier := &fakeNotifier{}
		h := NewTriggerSyncHandler(logger, &fakeOrchestrator{}, notifier)

		_, err := h.Handle(context.Background(), TriggerSyncRequest{Source: "stripe"})

		assert.Error(t, err)
		assert.Equal(t, ierr.ErrorCodeUnauthenticated, err.(ierr.Error).Code)
		assert.Empty(t, notifier.events)
	})

	t.Run("no notification when the event bus rejects", func(t *testing.T) {
		orchestrator := &fakeOrchestrator{triggerErr: errors.New("bus down")}
		notifier := &fakeNotifier{}
		h := NewTriggerSyncHandler(logger, orchestrator, notifier)

		_, err := h.Handle(tenantContext("acme"), TriggerSyncRequest{Source: "stripe"})

		assert.Error(t, err)
		assert.Equal(t, ierr.ErrorCodeInternal, err.(ierr.Error).Code)
		assert.Empty(t, notifier.events)
	})
}

func TestRunFlowHandler(t *testing.T) {
	logger := zap.NewNop()

	t.Run("starts the workflow", func(t *testing.T) {
		orchestrator := &fakeOrchestrator{}
		h := NewRunFlowHandler(logger, orchestrator)

		resp, err := h.Handle(context.Background(), RunFlowRequest{
			StateMachineArn: "arn:aws:states:eu-west-1:1:stateMachine:etl",
			Input:           map[string]any{"layer": "silver"},
		})

		assert.NoError(t, err)
		assert.True(t, resp.Success)
		assert.Equal(t, "arn:aws:states:eu-west-1:1:stateMachine:etl:execution:1", resp.ExecutionArn)
	})

	t.Run("missing state machine arn", func(t *testing.T) {
		h := NewRunFlowHandler(logger, &fakeOrchestrator{})

		_, err := h.Handle(context.Background(), RunFlowRequest{})

		assert.Error(t, err)
		assert.Equal(t, ierr.ErrorCodeInvalidArgument, err.(ierr.Error).Code)
	})

	t.Run("workflow start failure", func(t *testing.T) {
		h := NewRunFlowHandler(logger, &fakeOrchestrator{workflowErr: errors.New("no such state machine")})

		_, err := h.Handle(context.Background(), RunFlowRequest{
			StateMachineArn: "arn:aws:states:eu-west-1:1:stateMachine:etl",
		})

		assert.Error(t, err)
		assert.Equal(t, ierr.ErrorCodeInternal, err.(ierr.Error).Code)
	})
}
