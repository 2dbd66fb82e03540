package tax

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/antoniogar11/refolder-sub002/internal/domain/profile"
)

// QuarterBreakdown is one quarter of a year calculation
type QuarterBreakdown struct {
	Period      Period
	Totals      RawTotals
	Obligations Obligations
	Settled     bool // strictly before the reference quarter
}

// TaxCalculation is the result returned for one owner and period
type TaxCalculation struct {
	OwnerID         string
	Period          Period
	ReferenceDate   string
	WithholdingRate decimal.Decimal
	VATRate         decimal.Decimal

	GrossIncome        decimal.Decimal
	DeductibleExpenses decimal.Decimal
	NetProfit          decimal.Decimal
	WithholdingDue     decimal.Decimal
	VATCollected       decimal.Decimal
	VATPaid            decimal.Decimal
	VATBalance         decimal.Decimal
	TransactionCount   int

	PreviouslySettled   *Settlement // year only
	AmountDueThisPeriod AmountDue
	Quarters            []QuarterBreakdown // year only
}

// Assemble packages the totals and obligations of a month calculation
func Assemble(ownerID string, period Period, ref string, p *profile.TaxProfile, raw RawTotals, ob Obligations) *TaxCalculation {
	return &TaxCalculation{
		OwnerID:             ownerID,
		Period:              period,
		ReferenceDate:       ref,
		WithholdingRate:     p.WithholdingRate,
		VATRate:             p.VATRate,
		GrossIncome:         raw.GrossIncome,
		DeductibleExpenses:  raw.DeductibleExpenses,
		NetProfit:           ob.NetProfit,
		WithholdingDue:      ob.WithholdingDue,
		VATCollected:        raw.VATCollected,
		VATPaid:             raw.VATPaid,
		VATBalance:          ob.VATBalance,
		TransactionCount:    raw.TransactionCount,
		AmountDueThisPeriod: dueWithoutCarryForward(ob),
	}
}

// AssembleYear packages a year calculation with its carry-forward and quarter breakdown
func AssembleYear(ownerID string, period Period, ref string, p *profile.TaxProfile, raw RawTotals, cumulative Obligations, quarters []QuarterBreakdown) *TaxCalculation {
	calc := Assemble(ownerID, period, ref, p, raw, cumulative)

	var prior []Obligations
	for _, q := range quarters {
		if q.Settled {
			prior = append(prior, q.Obligations)
		}
	}
	settled, due := Settle(cumulative, prior)

	calc.PreviouslySettled = &settled
	calc.AmountDueThisPeriod = due
	calc.Quarters = quarters
	return calc
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

type settlementJSON struct {
	Withholding string `json:"withholding"`
	VAT         string `json:"vat"`
	Total       string `json:"total"`
}

type amountDueJSON struct {
	Withholding string `json:"withholding"`
	VAT         string `json:"vat"`
	Total       string `json:"total"`
	Payable     string `json:"payable"`
}

type quarterJSON struct {
	Period             Period `json:"period"`
	GrossIncome        string `json:"grossIncome"`
	DeductibleExpenses string `json:"deductibleExpenses"`
	NetProfit          string `json:"netProfit"`
	WithholdingDue     string `json:"withholdingDue"`
	VATCollected       string `json:"vatCollected"`
	VATPaid            string `json:"vatPaid"`
	VATBalance         string `json:"vatBalance"`
	TransactionCount   int    `json:"transactionCount"`
	Settled            bool   `json:"settled"`
}

type calculationJSON struct {
	OwnerID             string          `json:"ownerId"`
	Period              Period          `json:"period"`
	ReferenceDate       string          `json:"referenceDate"`
	WithholdingRate     string          `json:"withholdingRate"`
	VATRate             string          `json:"vatRate"`
	GrossIncome         string          `json:"grossIncome"`
	DeductibleExpenses  string          `json:"deductibleExpenses"`
	NetProfit           string          `json:"netProfit"`
	WithholdingDue      string          `json:"withholdingDue"`
	VATCollected        string          `json:"vatCollected"`
	VATPaid             string          `json:"vatPaid"`
	VATBalance          string          `json:"vatBalance"`
	TransactionCount    int             `json:"transactionCount"`
	PreviouslySettled   *settlementJSON `json:"previouslySettled,omitempty"`
	AmountDueThisPeriod amountDueJSON   `json:"amountDueThisPeriod"`
	Quarters            []quarterJSON   `json:"quarters,omitempty"`
}

// MarshalJSON renders amounts as fixed two-decimal strings
func (c TaxCalculation) MarshalJSON() ([]byte, error) {
	out := calculationJSON{
		OwnerID:            c.OwnerID,
		Period:             c.Period,
		ReferenceDate:      c.ReferenceDate,
		WithholdingRate:    c.WithholdingRate.String(),
		VATRate:            c.VATRate.String(),
		GrossIncome:        money(c.GrossIncome),
		DeductibleExpenses: money(c.DeductibleExpenses),
		NetProfit:          money(c.NetProfit),
		WithholdingDue:     money(c.WithholdingDue),
		VATCollected:       money(c.VATCollected),
		VATPaid:            money(c.VATPaid),
		VATBalance:         money(c.VATBalance),
		TransactionCount:   c.TransactionCount,
		AmountDueThisPeriod: amountDueJSON{
			Withholding: money(c.AmountDueThisPeriod.Withholding),
			VAT:         money(c.AmountDueThisPeriod.VAT),
			Total:       money(c.AmountDueThisPeriod.Total),
			Payable:     money(c.AmountDueThisPeriod.Payable),
		},
	}
	if c.PreviouslySettled != nil {
		out.PreviouslySettled = &settlementJSON{
			Withholding: money(c.PreviouslySettled.Withholding),
			VAT:         money(c.PreviouslySettled.VAT),
			Total:       money(c.PreviouslySettled.Total),
		}
	}
	for _, q := range c.Quarters {
		out.Quarters = append(out.Quarters, quarterJSON{
			Period:             q.Period,
			GrossIncome:        money(q.Totals.GrossIncome),
			DeductibleExpenses: money(q.Totals.DeductibleExpenses),
			NetProfit:          money(q.Obligations.NetProfit),
			WithholdingDue:     money(q.Obligations.WithholdingDue),
			VATCollected:       money(q.Totals.VATCollected),
			VATPaid:            money(q.Totals.VATPaid),
			VATBalance:         money(q.Obligations.VATBalance),
			TransactionCount:   q.Totals.TransactionCount,
			Settled:            q.Settled,
		})
	}
	return json.Marshal(out)
}

