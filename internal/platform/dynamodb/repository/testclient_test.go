package repository

import (
	"context"
	"regexp"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// TestClient is an in-memory implementation of the DynamoDB client interface for testing.
// Query understands the equality and BETWEEN key conditions the repositories build.
type TestClient struct {
	items    map[string]map[string]types.AttributeValue
	pageSize int
	queries  int
}

// NewTestClient creates a new test client with an empty items map
func NewTestClient() *TestClient {
	return &TestClient{
		items: make(map[string]map[string]types.AttributeValue),
	}
}

func stringAttr(item map[string]types.AttributeValue, name string) string {
	if v, ok := item[name].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func itemKey(item map[string]types.AttributeValue) string {
	return stringAttr(item, "PK") + "#" + stringAttr(item, "SK")
}

func (c *TestClient) checkCondition(condition *string, key string) bool {
	_, exists := c.items[key]
	switch aws.ToString(condition) {
	case "attribute_not_exists(PK)":
		return !exists
	case "attribute_exists(PK)":
		return exists
	}
	return true
}

// GetItem retrieves an item from the in-memory store
func (c *TestClient) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if item, exists := c.items[itemKey(params.Key)]; exists {
		return &dynamodb.GetItemOutput{Item: item}, nil
	}
	return &dynamodb.GetItemOutput{Item: map[string]types.AttributeValue{}}, nil
}

// PutItem adds or updates an item in the in-memory store
func (c *TestClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	key := itemKey(params.Item)
	if !c.checkCondition(params.ConditionExpression, key) {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
	}
	c.items[key] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

// DeleteItem removes an item from the in-memory store
func (c *TestClient) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	key := itemKey(params.Key)
	if !c.checkCondition(params.ConditionExpression, key) {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
	}
	delete(c.items, key)
	return &dynamodb.DeleteItemOutput{}, nil
}

var (
	equalCondition   = regexp.MustCompile(`(#\w+) = (:\w+)`)
	betweenCondition = regexp.MustCompile(`(#\w+) BETWEEN (:\w+) AND (:\w+)`)
)

// Query filters items by the key condition, sorted by SK and paged by pageSize
func (c *TestClient) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	c.queries++
	expr := aws.ToString(params.KeyConditionExpression)
	name := func(placeholder string) string { return params.ExpressionAttributeNames[placeholder] }
	value := func(placeholder string) string {
		return stringAttr(params.ExpressionAttributeValues, placeholder)
	}

	var matches []map[string]types.AttributeValue
	for _, item := range c.items {
		ok := true
		for _, m := range equalCondition.FindAllStringSubmatch(expr, -1) {
			if stringAttr(item, name(m[1])) != value(m[2]) {
				ok = false
			}
		}
		for _, m := range betweenCondition.FindAllStringSubmatch(expr, -1) {
			v := stringAttr(item, name(m[1]))
			if v < value(m[2]) || v > value(m[3]) {
				ok = false
			}
		}
		if ok {
			matches = append(matches, item)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return stringAttr(matches[i], "SK") < stringAttr(matches[j], "SK")
	})

	if params.ExclusiveStartKey != nil {
		after := stringAttr(params.ExclusiveStartKey, "SK")
		for i, item := range matches {
			if stringAttr(item, "SK") == after {
				matches = matches[i+1:]
				break
			}
		}
	}

	limit := c.pageSize
	if params.Limit != nil && (limit == 0 || int(*params.Limit) < limit) {
		limit = int(*params.Limit)
	}
	out := &dynamodb.QueryOutput{Items: matches}
	if limit > 0 && len(matches) > limit {
		out.Items = matches[:limit]
		last := out.Items[limit-1]
		out.LastEvaluatedKey = map[string]types.AttributeValue{
			"PK": last["PK"],
			"SK": last["SK"],
		}
	}
	return out, nil
}

// TransactWriteItems applies deletes and puts when every condition holds
func (c *TestClient) TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	for _, op := range params.TransactItems {
		switch {
		case op.Delete != nil && !c.checkCondition(op.Delete.ConditionExpression, itemKey(op.Delete.Key)):
			return nil, &types.TransactionCanceledException{Message: aws.String("Transaction cancelled")}
		case op.Put != nil && !c.checkCondition(op.Put.ConditionExpression, itemKey(op.Put.Item)):
			return nil, &types.TransactionCanceledException{Message: aws.String("Transaction cancelled")}
		}
	}
	for _, op := range params.TransactItems {
		if op.Delete != nil {
			delete(c.items, itemKey(op.Delete.Key))
		}
		if op.Put != nil {
			c.items[itemKey(op.Put.Item)] = op.Put.Item
		}
	}
	return &dynamodb.TransactWriteItemsOutput{}, nil
}
