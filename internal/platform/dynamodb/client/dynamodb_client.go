package client

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"
)

// DynamoDBClient wraps the AWS DynamoDB client
type DynamoDBClient struct {
	client *dynamodb.Client
	logger *zap.Logger
}

// NewDynamoDBClient creates a new DynamoDB client from a loaded AWS configuration
func NewDynamoDBClient(awsCfg aws.Config, logger *zap.Logger) *DynamoDBClient {
	return &DynamoDBClient{
		client: dynamodb.NewFromConfig(awsCfg),
		logger: logger.Named("dynamodb"),
	}
}

func (c *DynamoDBClient) observe(op string, table *string, started time.Time, err error) {
	fields := []zap.Field{
		zap.String("op", op),
		zap.String("table", aws.ToString(table)),
		zap.Duration("elapsed", time.Since(started)),
	}
	if err != nil {
		c.logger.Warn("dynamodb call failed", append(fields, zap.Error(err))...)
		return
	}
	c.logger.Debug("dynamodb call", fields...)
}

// GetItem implements the Client.GetItem method
func (c *DynamoDBClient) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	started := time.Now()
	out, err := c.client.GetItem(ctx, params, optFns...)
	c.observe("GetItem", params.TableName, started, err)
	return out, err
}

// PutItem implements the Client.PutItem method
func (c *DynamoDBClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	started := time.Now()
	out, err := c.client.PutItem(ctx, params, optFns...)
	c.observe("PutItem", params.TableName, started, err)
	return out, err
}

// DeleteItem implements the Client.DeleteItem method
func (c *DynamoDBClient) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	started := time.Now()
	out, err := c.client.DeleteItem(ctx, params, optFns...)
	c.observe("DeleteItem", params.TableName, started, err)
	return out, err
}

// Query implements the Client.Query method
func (c *DynamoDBClient) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	started := time.Now()
	out, err := c.client.Query(ctx, params, optFns...)
	c.observe("Query", params.TableName, started, err)
	return out, err
}

// TransactWriteItems implements the Client.TransactWriteItems method
func (c *DynamoDBClient) TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	started := time.Now()
	out, err := c.client.TransactWriteItems(ctx, params, optFns...)
	c.observe("TransactWriteItems", nil, started, err)
	return out, err
}
