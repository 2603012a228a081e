package dal

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// ProjectStore persists per-tenant project state in a single DynamoDB table
// using the TENANT#/PROJ# key scheme. Tenant isolation lives entirely in the
// partition key.
type ProjectStore struct {
	logger *zap.Logger
	client *dynamodb.Client
	table  string
}

func NewProjectStore(logger *zap.Logger, client *dynamodb.Client, table string) *ProjectStore {
	return &ProjectStore{
		logger: logger,
		client: client,
		table:  table,
	}
}

func tenantKey(tenantID string) string {
	return "TENANT#" + tenantID
}

func projectTreeKey(projectID string) string {
	return fmt.Sprintf("PROJ#%s#TREE", projectID)
}

func projectJobKey(projectID string, jobID string) string {
	return fmt.Sprintf("PROJ#%s#JOB#%s", projectID, jobID)
}

// GetProjectState fetches the project state tree. A missing item is
// reported as (nil, nil).
func (s *ProjectStore) GetProjectState(ctx context.Context, tenantID string, projectID string) (map[string]any, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: tenantKey(tenantID)},
			"SK": &types.AttributeValueMemberS{Value: projectTreeKey(projectID)},
		},
	})
	if err != nil {
		s.logger.Error("failed to fetch project state",
			zap.String("tenantId", tenantID),
			zap.String("projectId", projectID),
			zap.Error(err))

		return nil, err
	}

	if result.Item == nil {
		return nil, nil
	}

	state := make(map[string]any)
	if err := attributevalue.UnmarshalMap(result.Item, &state); err != nil {
		return nil, err
	}

	return state, nil
}

// UpdateProjectCost overwrites the month-to-date billing figure on the
// project state tree.
func (s *ProjectStore) UpdateProjectCost(ctx context.Context, tenantID string, projectID string, cost float64) error {
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: tenantKey(tenantID)},
			"SK": &types.AttributeValueMemberS{Value: projectTreeKey(projectID)},
		},
		UpdateExpression: aws.String("SET billing_mtd = :c"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":c": &types.AttributeValueMemberN{
				Value: strconv.FormatFloat(cost, 'f', -1, 64),
			},
		},
		ReturnValues: types.ReturnValueAllNew,
	})

	return err
}

// UpdateJobStatus records the latest lifecycle status reported for a job.
func (s *ProjectStore) UpdateJobStatus(ctx context.Context, tenantID string, projectID string, jobID string, status string) error {
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: tenantKey(tenantID)},
			"SK": &types.AttributeValueMemberS{Value: projectJobKey(projectID, jobID)},
		},
		UpdateExpression: aws.String("SET #s = :s, updated_at = :t"),
		ExpressionAttributeNames: map[string]string{
			"#s": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":s": &types.AttributeValueMemberS{Value: status},
			":t": &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339)},
		},
	})

	return err
}

// QueryItems lists every item under one partition key.
func (s *ProjectStore) QueryItems(ctx context.Context, pk string) ([]map[string]any, error) {
	result, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		KeyConditionExpression: aws.String("PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: pk},
		},
	})
	if err != nil {
		return nil, err
	}

	items := make([]map[string]any, 0, len(result.Items))
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &items); err != nil {
		return nil, err
	}

	return items, nil
}
