package repository

import (
	"go.uber.org/zap"

	"github.com/antoniogar11/refolder-sub002/internal/domain/ledger"
	"github.com/antoniogar11/refolder-sub002/internal/domain/profile"
	"github.com/antoniogar11/refolder-sub002/internal/platform/dynamodb/client"
)

// Factory creates repository instances
type Factory struct {
	client    client.Client
	tableName string
	logger    *zap.Logger
}

// NewFactory creates a new repository factory
func NewFactory(client client.Client, tableName string, logger *zap.Logger) *Factory {
	return &Factory{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// TransactionRepository returns an implementation of the ledger.Repository interface
func (f *Factory) TransactionRepository() ledger.Repository {
	return NewDynamoDBTransactionRepository(f.client, f.tableName, f.logger.Named("transactions"))
}

// ProfileRepository returns an implementation of the profile.Repository interface
func (f *Factory) ProfileRepository() profile.Repository {
	return NewDynamoDBProfileRepository(f.client, f.tableName, f.logger.Named("profiles"))
}
