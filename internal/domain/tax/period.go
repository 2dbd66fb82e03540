package tax

import (
	"encoding/json"
	"time"

	"github.com/antoniogar11/refolder-sub002/internal/common/utils"
	"github.com/antoniogar11/refolder-sub002/internal/domain/errors"
)

// Granularity is the length of a calculation period
type Granularity string

const (
	// Month covers one calendar month
	Month Granularity = "month"
	// Year covers one fiscal year
	Year Granularity = "year"
	// Quarter is the three-month sub-period of a fiscal year
	Quarter Granularity = "quarter"
)

// ParseGranularity accepts the period values exposed by the API
func ParseGranularity(s string) (Granularity, error) {
	switch Granularity(s) {
	case Month, Year:
		return Granularity(s), nil
	default:
		return "", errors.NewValidationError("period must be month or year")
	}
}

// Period is a closed interval of calendar days. Start and End are midnight of
// the first and last day in the fiscal timezone.
type Period struct {
	Granularity Granularity
	Index       int // quarter number, 1-4, only set on quarters
	Start       time.Time
	End         time.Time
	Quarters    []Period // year only, chronological
}

// StartDate returns the first day as YYYY-MM-DD
func (p Period) StartDate() string {
	return p.Start.Format(utils.DateLayout)
}

// EndDate returns the last day as YYYY-MM-DD
func (p Period) EndDate() string {
	return p.End.Format(utils.DateLayout)
}

// Contains reports whether a YYYY-MM-DD date falls in the period, boundaries included
func (p Period) Contains(date string) bool {
	return date >= p.StartDate() && date <= p.EndDate()
}

// QuarterOf returns the 1-based quarter holding date, or 0 when outside the year
func (p Period) QuarterOf(date string) int {
	for _, q := range p.Quarters {
		if q.Contains(date) {
			return q.Index
		}
	}
	return 0
}

type periodJSON struct {
	Granularity Granularity `json:"granularity"`
	Index       int         `json:"index,omitempty"`
	Start       string      `json:"start"`
	End         string      `json:"end"`
	Quarters    []Period    `json:"quarters,omitempty"`
}

// MarshalJSON renders the boundaries as calendar dates
func (p Period) MarshalJSON() ([]byte, error) {
	return json.Marshal(periodJSON{
		Granularity: p.Granularity,
		Index:       p.Index,
		Start:       p.StartDate(),
		End:         p.EndDate(),
		Quarters:    p.Quarters,
	})
}

// Resolve computes the period of the given granularity holding ref. The
// boundaries are built in ref's location, so callers convert ref to the
// fiscal timezone first. A start month outside 1-12 is treated as January.
func Resolve(g Granularity, ref time.Time, fiscalYearStartMonth time.Month) Period {
	loc := ref.Location()
	if fiscalYearStartMonth < time.January || fiscalYearStartMonth > time.December {
		fiscalYearStartMonth = time.January
	}

	if g != Year {
		start := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, loc)
		return Period{
			Granularity: Month,
			Start:       start,
			End:         start.AddDate(0, 1, -1),
		}
	}

	fiscalYear := ref.Year()
	if ref.Month() < fiscalYearStartMonth {
		fiscalYear--
	}
	start := time.Date(fiscalYear, fiscalYearStartMonth, 1, 0, 0, 0, 0, loc)

	quarters := make([]Period, 4)
	for i := range quarters {
		qStart := start.AddDate(0, 3*i, 0)
		quarters[i] = Period{
			Granularity: Quarter,
			Index:       i + 1,
			Start:       qStart,
			End:         qStart.AddDate(0, 3, -1),
		}
	}

	return Period{
		Granularity: Year,
		Start:       start,
		End:         start.AddDate(1, 0, -1),
		Quarters:    quarters,
	}
}
