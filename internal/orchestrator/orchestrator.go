package orchestrator

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	ebtypes "github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/aws/aws-sdk-go-v2/service/sfn"
	"go.uber.org/zap"
)

// Client emits orchestration events to EventBridge and starts Step Function
// executions. Job progress flows back asynchronously through the webhook
// surface, never through these calls.
type Client struct {
	logger      *zap.Logger
	eventBridge *eventbridge.Client
	stepFns     *sfn.Client
	eventBus    string
}

func NewClient(
	logger *zap.Logger,
	eventBridge *eventbridge.Client,
	stepFns *sfn.Client,
	eventBus string,
) *Client {
	if eventBus == "" {
		eventBus = "default"
	}

	return &Client{
		logger:      logger,
		eventBridge: eventBridge,
		stepFns:     stepFns,
		eventBus:    eventBus,
	}
}

// TriggerEvent publishes one event on the orchestration bus.
func (c *Client) TriggerEvent(ctx context.Context, source string, detailType string, detail any) error {
	detailJSON, err := json.Marshal(detail)
	if err != nil {
		return err
	}

	result, err := c.eventBridge.PutEvents(ctx, &eventbridge.PutEventsInput{
		Entries: []ebtypes.PutEventsRequestEntry{
			{
				Source:       aws.String(source),
				DetailType:   aws.String(detailType),
				Detail:       aws.String(string(detailJSON)),
				EventBusName: aws.String(c.eventBus),
			},
		},
	})
	if err != nil {
		c.logger.Error("failed to publish orchestration event",
			zap.String("source", source),
			zap.String("detailType", detailType),
			zap.Error(err))

		return err
	}

	if result.FailedEntryCount > 0 {
		return errors.New("event bus rejected the entry")
	}

	return nil
}

// StartWorkflow starts a Step Function execution and returns its ARN.
func (c *Client) StartWorkflow(ctx context.Context, stateMachineArn string, input any) (string, error) {
	inputJSON, err := json.Marshal(input)
	if err != nil {
		return "", err
	}

	result, err := c.stepFns.StartExecution(ctx, &sfn.StartExecutionInput{
		StateMachineArn: aws.String(stateMachineArn),
		Input:           aws.String(string(inputJSON)),
	})
	if err != nil {
		c.logger.Error("failed to start workflow",
			zap.String("stateMachineArn", stateMachineArn),
			zap.Error(err))

		return "", err
	}

	return aws.ToString(result.ExecutionArn), nil
}
