package profile

import (
	"context"
	"time"

	"github.com/antoniogar11/refolder-sub002/internal/common/utils"
	"github.com/antoniogar11/refolder-sub002/internal/domain/errors"
)

// Service provides tax profile business logic
type Service struct {
	repo     Repository
	defaults Defaults
	now      func() time.Time
}

// NewService creates a new profile service
func NewService(repo Repository, defaults Defaults) *Service {
	if defaults.FiscalYearStartMonth == 0 {
		defaults.FiscalYearStartMonth = time.January
	}
	return &Service{
		repo:     repo,
		defaults: defaults,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// GetTaxProfile retrieves the owner's profile
func (s *Service) GetTaxProfile(ctx context.Context, ownerID string) (*TaxProfile, error) {
	return s.repo.GetTaxProfile(ctx, ownerID)
}

// SaveTaxProfile validates and stores the owner's profile
func (s *Service) SaveTaxProfile(ctx context.Context, ownerID string, req *SaveTaxProfileRequest) (*TaxProfile, error) {
	if err := utils.ValidateRequiredString(ownerID, "owner"); err != nil {
		return nil, err
	}
	withholding, err := utils.ParseRate(req.WithholdingRate, "withholdingRate")
	if err != nil {
		return nil, err
	}
	vat, err := utils.ParseRate(req.VATRate, "vatRate")
	if err != nil {
		return nil, err
	}

	p := &TaxProfile{
		OwnerID:                 ownerID,
		CompanyName:             req.CompanyName,
		TaxID:                   req.TaxID,
		WithholdingRate:         withholding,
		VATRate:                 vat,
		FiscalYearStartMonth:    req.FiscalYearStartMonth,
		Timezone:                req.Timezone,
		NonDeductibleCategories: req.NonDeductibleCategories,
		UpdatedAt:               s.now(),
	}
	if p.FiscalYearStartMonth == 0 {
		p.FiscalYearStartMonth = int(s.defaults.FiscalYearStartMonth)
	}

	// Configuration problems are the caller's fault here, not a server fault
	if err := p.Validate(); err != nil {
		appErr, _ := errors.As(err)
		return nil, errors.NewValidationError(appErr.Message)
	}

	if err := s.repo.SaveTaxProfile(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Provision returns the owner's profile, writing the defaults first if none exists
func (s *Service) Provision(ctx context.Context, ownerID string) (*TaxProfile, error) {
	existing, err := s.repo.GetTaxProfile(ctx, ownerID)
	if err == nil {
		return existing, nil
	}
	if !errors.HasCode(err, errors.CodeProfileNotFound) {
		return nil, err
	}

	p := &TaxProfile{
		OwnerID:              ownerID,
		WithholdingRate:      s.defaults.WithholdingRate,
		VATRate:              s.defaults.VATRate,
		FiscalYearStartMonth: int(s.defaults.FiscalYearStartMonth),
		Timezone:             s.defaults.Timezone,
		UpdatedAt:            s.now(),
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.SaveTaxProfile(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}
