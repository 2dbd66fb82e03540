package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	ulid "github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	commonErrors "github.com/antoniogar11/refolder-sub002/internal/domain/errors"
	"github.com/antoniogar11/refolder-sub002/internal/domain/ledger"
	"github.com/antoniogar11/refolder-sub002/internal/platform/dynamodb/client"
)

const (
	transactionItemType = "transaction"
	transactionGSI1SK   = "TXN"
)

// DynamoDBTransactionRepository implements the ledger.Repository interface.
//
// Items live in the owner's partition sorted by date, so a period is a single
// range query:
//
//	PK     OWNER#<ownerId>
//	SK     TXN#<YYYY-MM-DD>#<transactionId>
//	GSI1PK OWNER#<ownerId>#TXN#<transactionId>
//	GSI1SK TXN
type DynamoDBTransactionRepository struct {
	client client.Client
	table  string
	logger *zap.Logger
}

// NewDynamoDBTransactionRepository creates a new DynamoDBTransactionRepository
func NewDynamoDBTransactionRepository(client client.Client, table string, logger *zap.Logger) *DynamoDBTransactionRepository {
	return &DynamoDBTransactionRepository{
		client: client,
		table:  table,
		logger: logger,
	}
}

// TransactionDDB is the stored shape of a transaction. Amounts are kept as
// strings so no precision is lost to DynamoDB number handling.
type TransactionDDB struct {
	PK     string `dynamodbav:"PK"`
	SK     string `dynamodbav:"SK"`
	GSI1PK string `dynamodbav:"GSI1PK"`
	GSI1SK string `dynamodbav:"GSI1SK"`
	Type   string `dynamodbav:"Type"`

	TransactionID   string    `dynamodbav:"transactionId"`
	OwnerID         string    `dynamodbav:"ownerId"`
	TransactionType string    `dynamodbav:"transactionType"`
	Amount          string    `dynamodbav:"amount"`
	Date            string    `dynamodbav:"date"`
	VATApplicable   bool      `dynamodbav:"vatApplicable"`
	Category        string    `dynamodbav:"category,omitempty"`
	ProjectID       string    `dynamodbav:"projectId,omitempty"`
	ClientID        string    `dynamodbav:"clientId,omitempty"`
	Description     string    `dynamodbav:"description,omitempty"`
	CreatedAt       time.Time `dynamodbav:"createdAt"`
	UpdatedAt       time.Time `dynamodbav:"updatedAt"`
}

func ownerPK(ownerID string) string {
	return fmt.Sprintf("OWNER#%s", ownerID)
}

func transactionSK(date, transactionID string) string {
	return fmt.Sprintf("TXN#%s#%s", date, transactionID)
}

func transactionGSI1PK(ownerID, transactionID string) string {
	return fmt.Sprintf("OWNER#%s#TXN#%s", ownerID, transactionID)
}

func toTransactionDDB(tx *ledger.Transaction) TransactionDDB {
	return TransactionDDB{
		PK:              ownerPK(tx.OwnerID),
		SK:              transactionSK(tx.Date, tx.TransactionID),
		GSI1PK:          transactionGSI1PK(tx.OwnerID, tx.TransactionID),
		GSI1SK:          transactionGSI1SK,
		Type:            transactionItemType,
		TransactionID:   tx.TransactionID,
		OwnerID:         tx.OwnerID,
		TransactionType: string(tx.Type),
		Amount:          tx.Amount.StringFixed(2),
		Date:            tx.Date,
		VATApplicable:   tx.VATApplicable,
		Category:        tx.Category,
		ProjectID:       tx.ProjectID,
		ClientID:        tx.ClientID,
		Description:     tx.Description,
		CreatedAt:       tx.CreatedAt,
		UpdatedAt:       tx.UpdatedAt,
	}
}

func (d TransactionDDB) toTransaction() (ledger.Transaction, error) {
	amount, err := decimal.NewFromString(d.Amount)
	if err != nil {
		return ledger.Transaction{}, fmt.Errorf("transaction %s: amount %q: %w", d.TransactionID, d.Amount, err)
	}
	return ledger.Transaction{
		TransactionID: d.TransactionID,
		OwnerID:       d.OwnerID,
		Type:          ledger.TransactionType(d.TransactionType),
		Amount:        amount,
		Date:          d.Date,
		VATApplicable: d.VATApplicable,
		Category:      d.Category,
		ProjectID:     d.ProjectID,
		ClientID:      d.ClientID,
		Description:   d.Description,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}, nil
}

func (r *DynamoDBTransactionRepository) marshal(tx *ledger.Transaction) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(toTransactionDDB(tx))
	if err != nil {
		return nil, commonErrors.NewInternalError("failed to marshal transaction", err)
	}
	return item, nil
}

func unmarshalTransaction(item map[string]types.AttributeValue) (ledger.Transaction, error) {
	var stored TransactionDDB
	if err := attributevalue.UnmarshalMap(item, &stored); err != nil {
		return ledger.Transaction{}, err
	}
	return stored.toTransaction()
}

// CreateTransaction stores a new transaction, assigning a ULID when the ID is empty
func (r *DynamoDBTransactionRepository) CreateTransaction(ctx context.Context, tx *ledger.Transaction) (*ledger.Transaction, error) {
	if tx.TransactionID == "" {
		tx.TransactionID = ulid.Make().String()
	}
	if tx.CreatedAt.IsZero() {
		now := time.Now().UTC()
		tx.CreatedAt = now
		tx.UpdatedAt = now
	}

	item, err := r.marshal(tx)
	if err != nil {
		return nil, err
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		var condCheckErr *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckErr) {
			return nil, commonErrors.NewConflictError("transaction already exists")
		}
		return nil, commonErrors.NewInternalError("failed to create transaction", err)
	}

	r.logger.Info("transaction recorded",
		zap.String("ownerId", tx.OwnerID),
		zap.String("transactionId", tx.TransactionID),
		zap.String("date", tx.Date),
	)
	return tx, nil
}

// GetTransaction retrieves a transaction by ID through GSI1
func (r *DynamoDBTransactionRepository) GetTransaction(ctx context.Context, ownerID string, transactionID string) (*ledger.Transaction, error) {
	keyCondition := expression.Key("GSI1PK").Equal(expression.Value(transactionGSI1PK(ownerID, transactionID))).
		And(expression.Key("GSI1SK").Equal(expression.Value(transactionGSI1SK)))

	expr, err := expression.NewBuilder().WithKeyCondition(keyCondition).Build()
	if err != nil {
		return nil, commonErrors.NewInternalError("failed to build expression", err)
	}

	result, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.table),
		IndexName:                 aws.String("GSI1"),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, commonErrors.NewInternalError("failed to query transaction", err)
	}
	if len(result.Items) == 0 {
		return nil, commonErrors.NewNotFoundError("transaction not found")
	}

	tx, err := unmarshalTransaction(result.Items[0])
	if err != nil {
		return nil, commonErrors.NewInternalError("failed to unmarshal transaction", err)
	}
	return &tx, nil
}

// FetchTransactions returns the owner's transactions dated in [start, end].
// Days are taken from start and end in their own location. Every page is
// read; any failure is reported as LEDGER_UNAVAILABLE.
func (r *DynamoDBTransactionRepository) FetchTransactions(ctx context.Context, ownerID string, start, end time.Time) ([]ledger.Transaction, error) {
	from := start.Format("2006-01-02")
	to := end.Format("2006-01-02")

	keyCondition := expression.Key("PK").Equal(expression.Value(ownerPK(ownerID))).
		And(expression.Key("SK").Between(
			expression.Value(fmt.Sprintf("TXN#%s", from)),
			expression.Value(fmt.Sprintf("TXN#%s\uFFFF", to)),
		))

	expr, err := expression.NewBuilder().WithKeyCondition(keyCondition).Build()
	if err != nil {
		return nil, commonErrors.NewInternalError("failed to build expression", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.table),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ConsistentRead:            aws.Bool(true),
	}

	var txs []ledger.Transaction
	pages := 0
	for {
		result, err := r.client.Query(ctx, input)
		if err != nil {
			return nil, commonErrors.NewLedgerUnavailableError("failed to query transactions", err).
				WithDetail("from", from).
				WithDetail("to", to)
		}
		pages++

		for _, item := range result.Items {
			tx, err := unmarshalTransaction(item)
			if err != nil {
				return nil, commonErrors.NewInternalError("malformed transaction record", err)
			}
			txs = append(txs, tx)
		}

		if len(result.LastEvaluatedKey) == 0 {
			break
		}
		input.ExclusiveStartKey = result.LastEvaluatedKey
	}

	r.logger.Debug("transactions fetched",
		zap.String("ownerId", ownerID),
		zap.String("from", from),
		zap.String("to", to),
		zap.Int("count", len(txs)),
		zap.Int("pages", pages),
	)
	return txs, nil
}

// UpdateTransaction replaces a stored transaction. A changed date moves the
// item to a new sort key, done as a delete and put in one transaction.
func (r *DynamoDBTransactionRepository) UpdateTransaction(ctx context.Context, existing *ledger.Transaction, updated *ledger.Transaction) (*ledger.Transaction, error) {
	item, err := r.marshal(updated)
	if err != nil {
		return nil, err
	}

	if existing.Date == updated.Date {
		_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName:           aws.String(r.table),
			Item:                item,
			ConditionExpression: aws.String("attribute_exists(PK)"),
		})
		if err != nil {
			var condCheckErr *types.ConditionalCheckFailedException
			if errors.As(err, &condCheckErr) {
				return nil, commonErrors.NewNotFoundError("transaction not found")
			}
			return nil, commonErrors.NewInternalError("failed to update transaction", err)
		}
		return updated, nil
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Delete: &types.Delete{
					TableName:           aws.String(r.table),
					Key:                 transactionKey(existing),
					ConditionExpression: aws.String("attribute_exists(PK)"),
				},
			},
			{
				Put: &types.Put{
					TableName:           aws.String(r.table),
					Item:                item,
					ConditionExpression: aws.String("attribute_not_exists(PK)"),
				},
			},
		},
	})
	if err != nil {
		var cancelled *types.TransactionCanceledException
		if errors.As(err, &cancelled) {
			return nil, commonErrors.NewConflictError("transaction was modified concurrently")
		}
		return nil, commonErrors.NewInternalError("failed to move transaction", err)
	}

	r.logger.Info("transaction moved",
		zap.String("ownerId", updated.OwnerID),
		zap.String("transactionId", updated.TransactionID),
		zap.String("from", existing.Date),
		zap.String("to", updated.Date),
	)
	return updated, nil
}

// DeleteTransaction removes a transaction
func (r *DynamoDBTransactionRepository) DeleteTransaction(ctx context.Context, tx *ledger.Transaction) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(r.table),
		Key:                 transactionKey(tx),
		ConditionExpression: aws.String("attribute_exists(PK)"),
	})
	if err != nil {
		var condCheckErr *types.ConditionalCheckFailedException
		if errors.As(err, &condCheckErr) {
			return commonErrors.NewNotFoundError("transaction not found")
		}
		return commonErrors.NewInternalError("failed to delete transaction", err)
	}
	return nil
}

func transactionKey(tx *ledger.Transaction) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: ownerPK(tx.OwnerID)},
		"SK": &types.AttributeValueMemberS{Value: transactionSK(tx.Date, tx.TransactionID)},
	}
}
