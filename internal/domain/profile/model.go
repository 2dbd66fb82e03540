package profile

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/antoniogar11/refolder-sub002/internal/domain/errors"
)

// TaxProfile is the company configuration the tax engine reads
type TaxProfile struct {
	OwnerID              string          `json:"ownerId"`
	CompanyName          string          `json:"companyName,omitempty"`
	TaxID                string          `json:"taxId,omitempty"`
	WithholdingRate      decimal.Decimal `json:"withholdingRate"`
	VATRate              decimal.Decimal `json:"vatRate"`
	FiscalYearStartMonth int             `json:"fiscalYearStartMonth"`
	Timezone             string          `json:"timezone,omitempty"`
	// Expense categories that never reduce profit nor carry deductible VAT
	NonDeductibleCategories []string  `json:"nonDeductibleCategories,omitempty"`
	UpdatedAt               time.Time `json:"updatedAt"`
}

// Validate rejects profiles that would produce nonsensical obligations
func (p *TaxProfile) Validate() error {
	if p.WithholdingRate.IsNegative() {
		return errors.NewInvalidConfigurationError("withholding rate must not be negative").
			WithDetail("withholdingRate", p.WithholdingRate.String())
	}
	if p.VATRate.IsNegative() {
		return errors.NewInvalidConfigurationError("VAT rate must not be negative").
			WithDetail("vatRate", p.VATRate.String())
	}
	if p.FiscalYearStartMonth < 1 || p.FiscalYearStartMonth > 12 {
		return errors.NewInvalidConfigurationError(fmt.Sprintf("fiscal year start month must be 1-12, got %d", p.FiscalYearStartMonth))
	}
	if p.Timezone != "" {
		if _, err := time.LoadLocation(p.Timezone); err != nil {
			return errors.NewInvalidConfigurationError(fmt.Sprintf("unknown timezone %q", p.Timezone))
		}
	}
	return nil
}

// StartMonth returns the first month of the fiscal year
func (p *TaxProfile) StartMonth() time.Month {
	return time.Month(p.FiscalYearStartMonth)
}

// Location resolves the fiscal timezone, falling back when the profile has none
func (p *TaxProfile) Location(fallback *time.Location) (*time.Location, error) {
	if p.Timezone == "" {
		return fallback, nil
	}
	return time.LoadLocation(p.Timezone)
}

// IsDeductible reports whether expenses in category reduce taxable profit
func (p *TaxProfile) IsDeductible(category string) bool {
	for _, c := range p.NonDeductibleCategories {
		if strings.EqualFold(c, category) {
			return false
		}
	}
	return true
}

// Defaults are the values written when a profile is provisioned for a new owner
type Defaults struct {
	WithholdingRate      decimal.Decimal
	VATRate              decimal.Decimal
	FiscalYearStartMonth time.Month
	Timezone             string
}

// SaveTaxProfileRequest represents the request to create or replace a profile
type SaveTaxProfileRequest struct {
	CompanyName             string   `json:"companyName,omitempty"`
	TaxID                   string   `json:"taxId,omitempty"`
	WithholdingRate         string   `json:"withholdingRate"`
	VATRate                 string   `json:"vatRate"`
	FiscalYearStartMonth    int      `json:"fiscalYearStartMonth,omitempty"`
	Timezone                string   `json:"timezone,omitempty"`
	NonDeductibleCategories []string `json:"nonDeductibleCategories,omitempty"`
}
