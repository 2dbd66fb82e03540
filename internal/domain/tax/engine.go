package tax

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/antoniogar11/refolder-sub002/internal/common/utils"
	"github.com/antoniogar11/refolder-sub002/internal/domain/errors"
	"github.com/antoniogar11/refolder-sub002/internal/domain/ledger"
	"github.com/antoniogar11/refolder-sub002/internal/domain/profile"
)

const defaultLedgerTimeout = 5 * time.Second

// Engine computes tax obligations from the ledger and the owner's tax profile.
// It holds no mutable state and is safe for concurrent use.
type Engine struct {
	ledger   ledger.Reader
	profiles profile.Reader
	logger   *zap.Logger

	now           func() time.Time
	ledgerTimeout time.Duration
	location      *time.Location
}

// Option configures an Engine
type Option func(*Engine)

// WithClock overrides the clock used to pick the reference date
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithLedgerTimeout bounds each ledger read
func WithLedgerTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.ledgerTimeout = d
		}
	}
}

// WithLocation sets the fiscal timezone used when a profile names none
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.location = loc
		}
	}
}

// NewEngine creates a new tax engine
func NewEngine(ledgerReader ledger.Reader, profiles profile.Reader, logger *zap.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		ledger:        ledgerReader,
		profiles:      profiles,
		logger:        logger,
		now:           time.Now,
		ledgerTimeout: defaultLedgerTimeout,
		location:      time.UTC,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Calculate computes the obligation of the period of granularity g containing today
func (e *Engine) Calculate(ctx context.Context, ownerID string, g Granularity) (*TaxCalculation, error) {
	return e.CalculateAt(ctx, ownerID, g, e.now())
}

// CalculateAt computes the obligation of the period of granularity g containing ref
func (e *Engine) CalculateAt(ctx context.Context, ownerID string, g Granularity, ref time.Time) (*TaxCalculation, error) {
	calc, localRef, err := e.calculate(ctx, ownerID, g, ref)
	if err != nil {
		err = classify(err)
		e.logFailure(ownerID, g, localRef, err)
		return nil, err
	}

	e.logger.Debug("tax calculation completed",
		zap.String("ownerId", ownerID),
		zap.String("granularity", string(g)),
		zap.String("referenceDate", calc.ReferenceDate),
		zap.Int("transactionCount", calc.TransactionCount),
	)
	return calc, nil
}

func (e *Engine) calculate(ctx context.Context, ownerID string, g Granularity, ref time.Time) (*TaxCalculation, time.Time, error) {
	if g != Month && g != Year {
		return nil, ref, errors.NewValidationError("period must be month or year")
	}

	p, err := e.profiles.GetTaxProfile(ctx, ownerID)
	if err != nil {
		return nil, ref, err
	}
	if p == nil {
		return nil, ref, errors.NewProfileNotFoundError(ownerID)
	}
	if err := p.Validate(); err != nil {
		return nil, ref, err
	}
	loc, err := p.Location(e.location)
	if err != nil {
		return nil, ref, errors.NewInvalidConfigurationError(fmt.Sprintf("unknown timezone %q", p.Timezone))
	}

	localRef := ref.In(loc)
	refDate := localRef.Format(utils.DateLayout)
	period := Resolve(g, localRef, p.StartMonth())

	if g == Month {
		txs, err := e.fetch(ctx, ownerID, period)
		if err != nil {
			return nil, localRef, err
		}
		raw := Aggregate(txs, period, p)
		ob, err := ComputeObligations(raw, p)
		if err != nil {
			return nil, localRef, err
		}
		return Assemble(ownerID, period, refDate, p, raw, ob), localRef, nil
	}

	calc, err := e.calculateYear(ctx, ownerID, period, refDate, p)
	return calc, localRef, err
}

// calculateYear fetches the full fiscal year and every quarter before the
// reference quarter concurrently. Slot 0 holds the year, slot i quarter i.
func (e *Engine) calculateYear(ctx context.Context, ownerID string, period Period, refDate string, p *profile.TaxProfile) (*TaxCalculation, error) {
	current := period.QuarterOf(refDate)
	results := make([][]ledger.Transaction, len(period.Quarters)+1)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		txs, err := e.fetch(gctx, ownerID, period)
		results[0] = txs
		return err
	})
	for _, q := range period.Quarters {
		if q.Index >= current {
			continue
		}
		q := q
		g.Go(func() error {
			txs, err := e.fetch(gctx, ownerID, q)
			results[q.Index] = txs
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	raw := Aggregate(results[0], period, p)
	cumulative, err := ComputeObligations(raw, p)
	if err != nil {
		return nil, err
	}

	quarters := make([]QuarterBreakdown, 0, len(period.Quarters))
	for _, q := range period.Quarters {
		settled := q.Index < current
		txs := results[0]
		if settled {
			txs = results[q.Index]
		}
		qRaw := Aggregate(txs, q, p)
		qOb, err := ComputeObligations(qRaw, p)
		if err != nil {
			return nil, err
		}
		quarters = append(quarters, QuarterBreakdown{
			Period:      q,
			Totals:      qRaw,
			Obligations: qOb,
			Settled:     settled,
		})
	}

	return AssembleYear(ownerID, period, refDate, p, raw, cumulative, quarters), nil
}

// fetch reads one period from the ledger under the configured timeout and
// rejects records the aggregator cannot use.
func (e *Engine) fetch(ctx context.Context, ownerID string, period Period) ([]ledger.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, e.ledgerTimeout)
	defer cancel()

	txs, err := e.ledger.FetchTransactions(ctx, ownerID, period.Start, period.End)
	if err != nil {
		if _, ok := errors.As(err); ok && !stderrors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, errors.NewLedgerUnavailableError(
			fmt.Sprintf("reading transactions %s..%s", period.StartDate(), period.EndDate()), err)
	}
	if ctx.Err() != nil {
		return nil, errors.NewLedgerUnavailableError("ledger read timed out", ctx.Err())
	}

	for i := range txs {
		if err := checkTransaction(&txs[i]); err != nil {
			return nil, err
		}
	}
	return txs, nil
}

func checkTransaction(tx *ledger.Transaction) error {
	if !tx.Type.Valid() {
		return fmt.Errorf("transaction %s has unknown type %q", tx.TransactionID, tx.Type)
	}
	if tx.Amount.IsNegative() {
		return fmt.Errorf("transaction %s has negative amount %s", tx.TransactionID, tx.Amount)
	}
	if err := utils.ValidateISODate(tx.Date); err != nil {
		return fmt.Errorf("transaction %s has malformed date %q", tx.TransactionID, tx.Date)
	}
	return nil
}

// classify keeps the codes callers act on and folds everything else into
// UNKNOWN_CALCULATION_ERROR.
func classify(err error) error {
	if appErr, ok := errors.As(err); ok {
		switch appErr.Code {
		case errors.CodeInvalidConfiguration,
			errors.CodeLedgerUnavailable,
			errors.CodeProfileNotFound,
			errors.CodeValidation:
			return appErr
		}
	}
	return errors.NewUnknownCalculationError(err)
}

func (e *Engine) logFailure(ownerID string, g Granularity, ref time.Time, err error) {
	fields := []zap.Field{
		zap.String("ownerId", ownerID),
		zap.String("granularity", string(g)),
		zap.String("referenceDate", ref.Format(utils.DateLayout)),
		zap.Error(err),
	}
	if appErr, ok := errors.As(err); ok {
		fields = append(fields, zap.String("code", appErr.Code))
		if appErr.Code == errors.CodeProfileNotFound || appErr.Code == errors.CodeValidation {
			e.logger.Warn("tax calculation rejected", fields...)
			return
		}
	}
	e.logger.Error("tax calculation failed", fields...)
}
