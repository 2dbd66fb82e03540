package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	commonErrors "github.com/antoniogar11/refolder-sub002/internal/domain/errors"
	"github.com/antoniogar11/refolder-sub002/internal/domain/profile"
	"github.com/antoniogar11/refolder-sub002/internal/platform/dynamodb/client"
)

const (
	taxProfileSK       = "TAX_PROFILE"
	taxProfileItemType = "tax_profile"
)

// DynamoDBProfileRepository implements the profile.Repository interface.
// Each owner has at most one profile item under PK OWNER#<ownerId>, SK TAX_PROFILE.
type DynamoDBProfileRepository struct {
	client client.Client
	table  string
	logger *zap.Logger
}

// NewDynamoDBProfileRepository creates a new DynamoDBProfileRepository
func NewDynamoDBProfileRepository(client client.Client, table string, logger *zap.Logger) *DynamoDBProfileRepository {
	return &DynamoDBProfileRepository{
		client: client,
		table:  table,
		logger: logger,
	}
}

// TaxProfileDDB is the stored shape of a tax profile
type TaxProfileDDB struct {
	PK   string `dynamodbav:"PK"`
	SK   string `dynamodbav:"SK"`
	Type string `dynamodbav:"Type"`

	OwnerID                 string    `dynamodbav:"ownerId"`
	CompanyName             string    `dynamodbav:"companyName,omitempty"`
	TaxID                   string    `dynamodbav:"taxId,omitempty"`
	WithholdingRate         string    `dynamodbav:"withholdingRate"`
	VATRate                 string    `dynamodbav:"vatRate"`
	FiscalYearStartMonth    int       `dynamodbav:"fiscalYearStartMonth"`
	Timezone                string    `dynamodbav:"timezone,omitempty"`
	NonDeductibleCategories []string  `dynamodbav:"nonDeductibleCategories,omitempty"`
	UpdatedAt               time.Time `dynamodbav:"updatedAt"`
}

func profileKey(ownerID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: ownerPK(ownerID)},
		"SK": &types.AttributeValueMemberS{Value: taxProfileSK},
	}
}

// GetTaxProfile reads the owner's profile, failing with PROFILE_NOT_FOUND when absent
func (r *DynamoDBProfileRepository) GetTaxProfile(ctx context.Context, ownerID string) (*profile.TaxProfile, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.table),
		Key:            profileKey(ownerID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, commonErrors.NewInternalError("failed to get tax profile", err)
	}
	if len(result.Item) == 0 {
		return nil, commonErrors.NewProfileNotFoundError(ownerID)
	}

	var stored TaxProfileDDB
	if err := attributevalue.UnmarshalMap(result.Item, &stored); err != nil {
		return nil, commonErrors.NewInternalError("failed to unmarshal tax profile", err)
	}

	withholding, err := decimal.NewFromString(stored.WithholdingRate)
	if err != nil {
		return nil, commonErrors.NewInvalidConfigurationError(fmt.Sprintf("stored withholding rate %q is not a decimal", stored.WithholdingRate))
	}
	vat, err := decimal.NewFromString(stored.VATRate)
	if err != nil {
		return nil, commonErrors.NewInvalidConfigurationError(fmt.Sprintf("stored VAT rate %q is not a decimal", stored.VATRate))
	}

	return &profile.TaxProfile{
		OwnerID:                 stored.OwnerID,
		CompanyName:             stored.CompanyName,
		TaxID:                   stored.TaxID,
		WithholdingRate:         withholding,
		VATRate:                 vat,
		FiscalYearStartMonth:    stored.FiscalYearStartMonth,
		Timezone:                stored.Timezone,
		NonDeductibleCategories: stored.NonDeductibleCategories,
		UpdatedAt:               stored.UpdatedAt,
	}, nil
}

// SaveTaxProfile creates or replaces the owner's profile
func (r *DynamoDBProfileRepository) SaveTaxProfile(ctx context.Context, p *profile.TaxProfile) error {
	item, err := attributevalue.MarshalMap(TaxProfileDDB{
		PK:                      ownerPK(p.OwnerID),
		SK:                      taxProfileSK,
		Type:                    taxProfileItemType,
		OwnerID:                 p.OwnerID,
		CompanyName:             p.CompanyName,
		TaxID:                   p.TaxID,
		WithholdingRate:         p.WithholdingRate.String(),
		VATRate:                 p.VATRate.String(),
		FiscalYearStartMonth:    p.FiscalYearStartMonth,
		Timezone:                p.Timezone,
		NonDeductibleCategories: p.NonDeductibleCategories,
		UpdatedAt:               p.UpdatedAt,
	})
	if err != nil {
		return commonErrors.NewInternalError("failed to marshal tax profile", err)
	}

	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.table),
		Item:      item,
	}); err != nil {
		return commonErrors.NewInternalError("failed to save tax profile", err)
	}

	r.logger.Info("tax profile saved",
		zap.String("ownerId", p.OwnerID),
		zap.String("withholdingRate", p.WithholdingRate.String()),
		zap.String("vatRate", p.VATRate.String()),
	)
	return nil
}
