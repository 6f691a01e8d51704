package storage

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog"

	"github.com/auditline/coverage/internal/types"
)

// DynamoDBStore implements Store using AWS DynamoDB
type DynamoDBStore struct {
	client *dynamodb.Client
	config DynamoConfig
	logger zerolog.Logger
}

// NewDynamoDBStore creates a new DynamoDB store
func NewDynamoDBStore(ctx context.Context, cfg DynamoConfig, logger zerolog.Logger) (*DynamoDBStore, error) {
	var client *dynamodb.Client

	if cfg.Mode == DynamoModeLocal {
		// For local mode, build the client directly without LoadDefaultConfig.
		// LoadDefaultConfig probes the EC2 IMDS endpoint which hangs on EC2
		// instances when static credentials are intended.
		client = dynamodb.New(dynamodb.Options{
			Region:       cfg.Region,
			BaseEndpoint: aws.String(cfg.Endpoint),
			Credentials:  credentials.NewStaticCredentialsProvider("local", "local", ""),
		})
	} else {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		client = dynamodb.NewFromConfig(awsCfg)
	}

	store := &DynamoDBStore{
		client: client,
		config: cfg,
		logger: logger,
	}

	// Create tables in local mode
	if cfg.Mode == DynamoModeLocal {
		if err := CreateTablesIfNotExist(ctx, client, cfg, logger); err != nil {
			return nil, err
		}
	}

	logger.Info().
		Str("mode", string(cfg.Mode)).
		Str("region", cfg.Region).
		Msg("DynamoDB store initialized")

	return store, nil
}

// SaveCalls persists one canonical row per call.
func (s *DynamoDBStore) SaveCalls(ctx context.Context, calls []types.StoredCall) error {
	for _, call := range calls {
		item, err := attributevalue.MarshalMap(call)
		if err != nil {
			return fmt.Errorf("failed to marshal call %s: %w", call.CallID, err)
		}

		_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName: aws.String(s.config.CallsTable),
			Item:      item,
		})
		if err != nil {
			return fmt.Errorf("failed to save call %s: %w", call.CallID, err)
		}
	}
	return nil
}

// GetCallsByDate returns every canonical row stored under the given date key.
func (s *DynamoDBStore) GetCallsByDate(ctx context.Context, dateKey string) ([]types.StoredCall, error) {
	keyCond := expression.Key("DateKey").Equal(expression.Value(dateKey))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	result, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(s.config.CallsTable),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query calls: %w", err)
	}

	var calls []types.StoredCall
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &calls); err != nil {
		return nil, fmt.Errorf("failed to unmarshal calls: %w", err)
	}
	return calls, nil
}

// GetAgentCallsByDate returns one agent's canonical rows for a date.
func (s *DynamoDBStore) GetAgentCallsByDate(ctx context.Context, agentName, dateKey string) ([]types.StoredCall, error) {
	keyCond := expression.Key("DateKey").Equal(expression.Value(dateKey))
	filter := expression.Name("AgentName").Equal(expression.Value(agentName))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).WithFilter(filter).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	result, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(s.config.CallsTable),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query agent calls: %w", err)
	}

	var calls []types.StoredCall
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &calls); err != nil {
		return nil, fmt.Errorf("failed to unmarshal agent calls: %w", err)
	}
	return calls, nil
}

// TruncateAll deletes every stored row. Local development helper.
func (s *DynamoDBStore) TruncateAll(ctx context.Context) error {
	scan, err := s.client.Scan(ctx, &dynamodb.ScanInput{
		TableName: aws.String(s.config.CallsTable),
	})
	if err != nil {
		return fmt.Errorf("failed to scan calls table: %w", err)
	}

	for _, item := range scan.Items {
		_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(s.config.CallsTable),
			Key: map[string]dbtypes.AttributeValue{
				"DateKey": item["DateKey"],
				"CallID":  item["CallID"],
			},
		})
		if err != nil {
			return fmt.Errorf("failed to delete item: %w", err)
		}
	}

	s.logger.Info().Int("deleted", len(scan.Items)).Msg("calls table truncated")
	return nil
}
