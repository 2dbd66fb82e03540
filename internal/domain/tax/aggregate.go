package tax

import (
	"github.com/shopspring/decimal"

	"github.com/antoniogar11/refolder-sub002/internal/domain/ledger"
	"github.com/antoniogar11/refolder-sub002/internal/domain/profile"
)

// RawTotals are the sums of one period before any tax rule is applied
type RawTotals struct {
	GrossIncome        decimal.Decimal
	DeductibleExpenses decimal.Decimal
	VATCollected       decimal.Decimal
	VATPaid            decimal.Decimal
	TransactionCount   int
}

// roundCurrency rounds half away from zero to cents. Every value it sees is
// non-negative, where that is the same as round-half-up.
func roundCurrency(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Aggregate reduces the transactions dated inside period to raw totals.
// VAT is rounded per record and then summed, matching per-invoice rounding.
// Expenses in a category the profile marks non-deductible are left out of
// both the deductible total and the input VAT.
func Aggregate(txs []ledger.Transaction, period Period, p *profile.TaxProfile) RawTotals {
	totals := RawTotals{
		GrossIncome:        decimal.Zero,
		DeductibleExpenses: decimal.Zero,
		VATCollected:       decimal.Zero,
		VATPaid:            decimal.Zero,
	}

	for _, tx := range txs {
		if !period.Contains(tx.Date) {
			continue
		}
		totals.TransactionCount++

		switch tx.Type {
		case ledger.Income:
			totals.GrossIncome = totals.GrossIncome.Add(tx.Amount)
			if tx.VATApplicable {
				totals.VATCollected = totals.VATCollected.Add(roundCurrency(tx.Amount.Mul(p.VATRate)))
			}
		case ledger.Expense:
			if !p.IsDeductible(tx.Category) {
				continue
			}
			totals.DeductibleExpenses = totals.DeductibleExpenses.Add(tx.Amount)
			if tx.VATApplicable {
				totals.VATPaid = totals.VATPaid.Add(roundCurrency(tx.Amount.Mul(p.VATRate)))
			}
		}
	}

	return totals
}
