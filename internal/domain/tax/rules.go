package tax

import (
	"github.com/shopspring/decimal"

	"github.com/antoniogar11/refolder-sub002/internal/domain/errors"
	"github.com/antoniogar11/refolder-sub002/internal/domain/profile"
)

// Obligations are the taxes owed for one period
type Obligations struct {
	NetProfit      decimal.Decimal // signed, never floored
	WithholdingDue decimal.Decimal // never negative
	VATBalance     decimal.Decimal // negative means a refund position
}

// Total is the combined withholding and VAT position
func (o Obligations) Total() decimal.Decimal {
	return o.WithholdingDue.Add(o.VATBalance)
}

// Settlement is what prior quarters of the fiscal year already accounted for
type Settlement struct {
	Withholding decimal.Decimal
	VAT         decimal.Decimal
	Total       decimal.Decimal
}

// AmountDue is the outstanding obligation of the requested period. Total keeps
// its sign for bookkeeping; Payable is Total floored at zero.
type AmountDue struct {
	Withholding decimal.Decimal
	VAT         decimal.Decimal
	Total       decimal.Decimal
	Payable     decimal.Decimal
}

// ValidateRates rejects negative rates before they can produce a negative tax
func ValidateRates(p *profile.TaxProfile) error {
	if p.WithholdingRate.IsNegative() {
		return errors.NewInvalidConfigurationError("withholding rate must not be negative")
	}
	if p.VATRate.IsNegative() {
		return errors.NewInvalidConfigurationError("VAT rate must not be negative")
	}
	return nil
}

// ComputeObligations applies the profile's rates to raw period totals
func ComputeObligations(raw RawTotals, p *profile.TaxProfile) (Obligations, error) {
	if err := ValidateRates(p); err != nil {
		return Obligations{}, err
	}

	net := raw.GrossIncome.Sub(raw.DeductibleExpenses)
	taxable := decimal.Max(decimal.Zero, net)

	return Obligations{
		NetProfit:      net,
		WithholdingDue: roundCurrency(taxable.Mul(p.WithholdingRate)),
		VATBalance:     raw.VATCollected.Sub(raw.VATPaid),
	}, nil
}

// Settle nets the cumulative fiscal-year obligation against the quarters
// already closed. Each prior quarter is computed on its own, so a loss in one
// quarter does not reduce the withholding another quarter settled.
func Settle(cumulative Obligations, prior []Obligations) (Settlement, AmountDue) {
	settled := Settlement{
		Withholding: decimal.Zero,
		VAT:         decimal.Zero,
	}
	for _, q := range prior {
		settled.Withholding = settled.Withholding.Add(q.WithholdingDue)
		settled.VAT = settled.VAT.Add(q.VATBalance)
	}
	settled.Total = settled.Withholding.Add(settled.VAT)

	due := AmountDue{
		Withholding: cumulative.WithholdingDue.Sub(settled.Withholding),
		VAT:         cumulative.VATBalance.Sub(settled.VAT),
	}
	due.Total = due.Withholding.Add(due.VAT)
	due.Payable = decimal.Max(decimal.Zero, due.Total)

	return settled, due
}

// dueWithoutCarryForward is the amount due of a period nothing was settled against
func dueWithoutCarryForward(o Obligations) AmountDue {
	_, due := Settle(o, nil)
	return due
}
