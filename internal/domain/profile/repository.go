package profile

import (
	"context"
)

// Reader is the read side the tax engine depends on
type Reader interface {
	// GetTaxProfile fails with PROFILE_NOT_FOUND when the owner has none
	GetTaxProfile(ctx context.Context, ownerID string) (*TaxProfile, error)
}

// Repository defines the interface for tax profile data operations
type Repository interface {
	Reader

	// Save creates or replaces the owner's profile
	SaveTaxProfile(ctx context.Context, p *TaxProfile) error
}
