package tax

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/antoniogar11/refolder-sub002/internal/domain/errors"
	"github.com/antoniogar11/refolder-sub002/internal/domain/ledger"
	"github.com/antoniogar11/refolder-sub002/internal/domain/profile"
)

// fakeLedger answers FetchTransactions from fixtures and records every range asked for
type fakeLedger struct {
	mu     sync.Mutex
	txs    []ledger.Transaction
	err    error
	delay  time.Duration
	ranges [][2]string
}

func (f *fakeLedger) FetchTransactions(ctx context.Context, ownerID string, start, end time.Time) ([]ledger.Transaction, error) {
	from, to := start.Format("2006-01-02"), end.Format("2006-01-02")
	f.mu.Lock()
	f.ranges = append(f.ranges, [2]string{from, to})
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}

	var out []ledger.Transaction
	for _, tx := range f.txs {
		if tx.Date >= from && tx.Date <= to {
			out = append(out, tx)
		}
	}
	return out, nil
}

type fakeProfiles struct {
	profile *profile.TaxProfile
	err     error
}

func (f *fakeProfiles) GetTaxProfile(ctx context.Context, ownerID string) (*profile.TaxProfile, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.profile == nil {
		return nil, errors.NewProfileNotFoundError(ownerID)
	}
	copied := *f.profile
	return &copied, nil
}

func newTestEngine(l *fakeLedger, p *profile.TaxProfile, opts ...Option) *Engine {
	return NewEngine(l, &fakeProfiles{profile: p}, zap.NewNop(), opts...)
}

func at(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func TestCalculateMonth(t *testing.T) {
	ctx := context.Background()

	t.Run("income minus expense drives withholding", func(t *testing.T) {
		l := &fakeLedger{txs: []ledger.Transaction{
			income("2024-01-10", "1000", false),
			expense("2024-01-15", "200", false),
		}}

		calc, err := newTestEngine(l, testProfile()).CalculateAt(ctx, "owner-1", Month, at(2024, time.January, 10))

		require.NoError(t, err)
		assertMoney(t, "800.00", calc.NetProfit)
		assertMoney(t, "120.00", calc.WithholdingDue)
		assertMoney(t, "120.00", calc.AmountDueThisPeriod.Withholding)
		assert.Nil(t, calc.PreviouslySettled)
		assert.Equal(t, "2024-01-10", calc.ReferenceDate)
		assert.Equal(t, [][2]string{{"2024-01-01", "2024-01-31"}}, l.ranges)
	})

	t.Run("empty period", func(t *testing.T) {
		calc, err := newTestEngine(&fakeLedger{}, testProfile()).CalculateAt(ctx, "owner-1", Month, at(2024, time.March, 3))

		require.NoError(t, err)
		assertMoney(t, "0.00", calc.GrossIncome)
		assertMoney(t, "0.00", calc.NetProfit)
		assertMoney(t, "0.00", calc.WithholdingDue)
		assertMoney(t, "0.00", calc.VATBalance)
		assert.Zero(t, calc.TransactionCount)
	})

	t.Run("loss keeps the signed net profit", func(t *testing.T) {
		l := &fakeLedger{txs: []ledger.Transaction{
			income("2024-01-10", "500", false),
			expense("2024-01-11", "1000", false),
		}}

		calc, err := newTestEngine(l, testProfile()).CalculateAt(ctx, "owner-1", Month, at(2024, time.January, 20))

		require.NoError(t, err)
		assertMoney(t, "-500.00", calc.NetProfit)
		assertMoney(t, "0.00", calc.WithholdingDue)
	})

	t.Run("VAT collected and paid", func(t *testing.T) {
		l := &fakeLedger{txs: []ledger.Transaction{
			income("2024-01-10", "1000", true),
			expense("2024-01-11", "400", true),
		}}

		calc, err := newTestEngine(l, testProfile()).CalculateAt(ctx, "owner-1", Month, at(2024, time.January, 20))

		require.NoError(t, err)
		assertMoney(t, "210.00", calc.VATCollected)
		assertMoney(t, "84.00", calc.VATPaid)
		assertMoney(t, "126.00", calc.VATBalance)
		assertMoney(t, "216.00", calc.AmountDueThisPeriod.Total)
		assertMoney(t, "216.00", calc.AmountDueThisPeriod.Payable)
	})

	t.Run("reference date is taken in the fiscal timezone", func(t *testing.T) {
		p := testProfile()
		p.Timezone = "Europe/Madrid"
		l := &fakeLedger{}

		// 23:30 UTC on 31 January is already 1 February in Madrid
		_, err := newTestEngine(l, p).CalculateAt(ctx, "owner-1", Month, time.Date(2024, time.January, 31, 23, 30, 0, 0, time.UTC))

		require.NoError(t, err)
		assert.Equal(t, [][2]string{{"2024-02-01", "2024-02-29"}}, l.ranges)
	})

	t.Run("engine location applies when the profile has no timezone", func(t *testing.T) {
		l := &fakeLedger{}
		loc := time.FixedZone("UTC-5", -5*60*60)

		calc, err := newTestEngine(l, testProfile(), WithLocation(loc)).CalculateAt(ctx, "owner-1", Month, time.Date(2024, time.March, 1, 2, 0, 0, 0, time.UTC))

		require.NoError(t, err)
		assert.Equal(t, "2024-02-29", calc.ReferenceDate)
	})

	t.Run("calculate uses the injected clock", func(t *testing.T) {
		l := &fakeLedger{}
		clock := func() time.Time { return at(2024, time.June, 5) }

		calc, err := newTestEngine(l, testProfile(), WithClock(clock)).Calculate(ctx, "owner-1", Month)

		require.NoError(t, err)
		assert.Equal(t, "2024-06-01", calc.Period.StartDate())
	})
}

func TestCalculateYear(t *testing.T) {
	ctx := context.Background()

	t.Run("prior quarters are settled against the cumulative obligation", func(t *testing.T) {
		p := testProfile()
		p.WithholdingRate = decimal.RequireFromString("0.10")
		l := &fakeLedger{txs: []ledger.Transaction{
			income("2024-02-01", "1500", false),
			income("2024-05-01", "3500", false),
		}}

		calc, err := newTestEngine(l, p).CalculateAt(ctx, "owner-1", Year, at(2024, time.May, 15))

		require.NoError(t, err)
		assertMoney(t, "500.00", calc.WithholdingDue)
		require.NotNil(t, calc.PreviouslySettled)
		assertMoney(t, "150.00", calc.PreviouslySettled.Withholding)
		assertMoney(t, "350.00", calc.AmountDueThisPeriod.Withholding)

		require.Len(t, calc.Quarters, 4)
		assert.True(t, calc.Quarters[0].Settled)
		assert.False(t, calc.Quarters[1].Settled)
		assertMoney(t, "350.00", calc.Quarters[1].Obligations.WithholdingDue)

		assert.ElementsMatch(t, [][2]string{
			{"2024-01-01", "2024-12-31"},
			{"2024-01-01", "2024-03-31"},
		}, l.ranges)
	})

	t.Run("cumulative equals settled plus due", func(t *testing.T) {
		l := &fakeLedger{txs: []ledger.Transaction{
			income("2024-01-15", "1200.55", true),
			expense("2024-02-10", "2000", true),
			income("2024-04-20", "800", true),
			expense("2024-07-03", "99.99", true),
			income("2024-10-30", "5000", true),
		}}

		calc, err := newTestEngine(l, testProfile()).CalculateAt(ctx, "owner-1", Year, at(2024, time.November, 2))

		require.NoError(t, err)
		require.NotNil(t, calc.PreviouslySettled)
		assert.True(t, calc.WithholdingDue.Equal(calc.PreviouslySettled.Withholding.Add(calc.AmountDueThisPeriod.Withholding)))
		assert.True(t, calc.VATBalance.Equal(calc.PreviouslySettled.VAT.Add(calc.AmountDueThisPeriod.VAT)))
		assert.Len(t, l.ranges, 4)
		for _, q := range calc.Quarters {
			assert.False(t, q.Obligations.WithholdingDue.IsNegative())
		}
	})

	t.Run("first quarter has nothing settled", func(t *testing.T) {
		l := &fakeLedger{txs: []ledger.Transaction{income("2024-02-01", "1000", false)}}

		calc, err := newTestEngine(l, testProfile()).CalculateAt(ctx, "owner-1", Year, at(2024, time.February, 20))

		require.NoError(t, err)
		assertMoney(t, "0.00", calc.PreviouslySettled.Total)
		assertMoney(t, "150.00", calc.AmountDueThisPeriod.Withholding)
		assert.Len(t, l.ranges, 1)
	})

	t.Run("fiscal year starting in april", func(t *testing.T) {
		p := testProfile()
		p.FiscalYearStartMonth = 4
		l := &fakeLedger{txs: []ledger.Transaction{
			income("2023-03-31", "9999", false),
			income("2023-04-01", "100", false),
			income("2024-03-31", "100", false),
			income("2024-04-01", "9999", false),
		}}

		calc, err := newTestEngine(l, p).CalculateAt(ctx, "owner-1", Year, at(2024, time.February, 10))

		require.NoError(t, err)
		assert.Equal(t, "2023-04-01", calc.Period.StartDate())
		assert.Equal(t, "2024-03-31", calc.Period.EndDate())
		assertMoney(t, "200.00", calc.GrossIncome)
		assert.True(t, calc.Quarters[2].Settled)
		assert.False(t, calc.Quarters[3].Settled)
		assert.Len(t, l.ranges, 4)
	})
}

func TestCalculateIsIdempotent(t *testing.T) {
	l := &fakeLedger{txs: []ledger.Transaction{
		income("2024-01-10", "1000", true),
		expense("2024-03-15", "200.40", true),
		income("2024-05-10", "730.15", true),
	}}
	e := newTestEngine(l, testProfile())

	first, err := e.CalculateAt(context.Background(), "owner-1", Year, at(2024, time.June, 1))
	require.NoError(t, err)
	second, err := e.CalculateAt(context.Background(), "owner-1", Year, at(2024, time.June, 1))
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.JSONEq(t, string(a), string(b))
}

func TestCalculateErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("missing profile", func(t *testing.T) {
		_, err := newTestEngine(&fakeLedger{}, nil).CalculateAt(ctx, "owner-1", Month, at(2024, time.January, 1))
		assert.True(t, errors.HasCode(err, errors.CodeProfileNotFound))
	})

	t.Run("negative withholding rate", func(t *testing.T) {
		p := testProfile()
		p.WithholdingRate = decimal.RequireFromString("-0.15")
		l := &fakeLedger{}

		_, err := newTestEngine(l, p).CalculateAt(ctx, "owner-1", Month, at(2024, time.January, 1))

		assert.True(t, errors.HasCode(err, errors.CodeInvalidConfiguration))
		assert.Empty(t, l.ranges)
	})

	t.Run("invalid fiscal start month", func(t *testing.T) {
		p := testProfile()
		p.FiscalYearStartMonth = 0
		_, err := newTestEngine(&fakeLedger{}, p).CalculateAt(ctx, "owner-1", Year, at(2024, time.January, 1))
		assert.True(t, errors.HasCode(err, errors.CodeInvalidConfiguration))
	})

	t.Run("ledger failure fails the whole calculation", func(t *testing.T) {
		l := &fakeLedger{err: errors.NewLedgerUnavailableError("query failed", stderrors.New("throttled"))}

		calc, err := newTestEngine(l, testProfile()).CalculateAt(ctx, "owner-1", Year, at(2024, time.August, 1))

		assert.Nil(t, calc)
		assert.True(t, errors.HasCode(err, errors.CodeLedgerUnavailable))
	})

	t.Run("plain transport error becomes ledger unavailable", func(t *testing.T) {
		l := &fakeLedger{err: stderrors.New("connection reset")}
		_, err := newTestEngine(l, testProfile()).CalculateAt(ctx, "owner-1", Month, at(2024, time.August, 1))
		assert.True(t, errors.HasCode(err, errors.CodeLedgerUnavailable))
	})

	t.Run("ledger timeout", func(t *testing.T) {
		l := &fakeLedger{delay: time.Second}
		started := time.Now()

		_, err := newTestEngine(l, testProfile(), WithLedgerTimeout(20*time.Millisecond)).
			CalculateAt(ctx, "owner-1", Month, at(2024, time.August, 1))

		assert.True(t, errors.HasCode(err, errors.CodeLedgerUnavailable))
		assert.Less(t, time.Since(started), 500*time.Millisecond)
	})

	t.Run("malformed transaction", func(t *testing.T) {
		bad := income("2024-01-10", "10", false)
		bad.Amount = decimal.RequireFromString("-10")
		l := &fakeLedger{txs: []ledger.Transaction{bad}}

		_, err := newTestEngine(l, testProfile()).CalculateAt(ctx, "owner-1", Month, at(2024, time.January, 15))

		appErr, ok := errors.As(err)
		require.True(t, ok)
		assert.Equal(t, errors.CodeUnknownCalculationError, appErr.Code)
		assert.Equal(t, "tax calculation failed", appErr.Message)
	})

	t.Run("profile store failure is unknown", func(t *testing.T) {
		e := NewEngine(&fakeLedger{}, &fakeProfiles{err: stderrors.New("boom")}, nil)
		_, err := e.CalculateAt(ctx, "owner-1", Month, at(2024, time.January, 15))
		assert.True(t, errors.HasCode(err, errors.CodeUnknownCalculationError))
	})

	t.Run("unsupported granularity", func(t *testing.T) {
		_, err := newTestEngine(&fakeLedger{}, testProfile()).CalculateAt(ctx, "owner-1", Quarter, at(2024, time.January, 15))
		assert.True(t, errors.HasCode(err, errors.CodeValidation))
	})
}

func TestTaxCalculationMarshalJSON(t *testing.T) {
	l := &fakeLedger{txs: []ledger.Transaction{
		income("2024-01-10", "1000", true),
		expense("2024-01-15", "200", false),
	}}
	calc, err := newTestEngine(l, testProfile()).CalculateAt(context.Background(), "owner-1", Month, at(2024, time.January, 10))
	require.NoError(t, err)

	body, err := json.Marshal(calc)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, "owner-1", decoded["ownerId"])
	assert.Equal(t, "1000.00", decoded["grossIncome"])
	assert.Equal(t, "800.00", decoded["netProfit"])
	assert.Equal(t, "120.00", decoded["withholdingDue"])
	assert.Equal(t, "210.00", decoded["vatCollected"])
	assert.Equal(t, "0.15", decoded["withholdingRate"])
	assert.NotContains(t, decoded, "previouslySettled")
	assert.NotContains(t, decoded, "quarters")

	due := decoded["amountDueThisPeriod"].(map[string]interface{})
	assert.Equal(t, "330.00", due["total"])
	assert.Equal(t, "330.00", due["payable"])
}
