package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/shunichi-ikebuchi/cari-ledger/pkg/logger"
	"github.com/shunichi-ikebuchi/cari-ledger/pkg/money"
)

// AllCurrencies selects every currency in MonthlyTrend.
const AllCurrencies = "all"

// TrendMonths is the length of a trend series.
const TrendMonths = 12

// TrendPoint holds the cumulative figures up to the end of Month.
type TrendPoint struct {
	Month     string          `json:"month"` // YYYY-MM
	Debt      decimal.Decimal `json:"debt"`
	Payment   decimal.Decimal `json:"payment"`
	Remaining decimal.Decimal `json:"remaining"`
}

type trendCell struct {
	debt    decimal.Decimal
	payment decimal.Decimal
}

// MonthlyTrend builds the cumulative series of the twelve months ending at
// the month of now, oldest first. Each record adds into every month at or
// after its own. With AllCurrencies the figures are summed across
// currencies and Remaining is the sum of each currency's remaining;
// otherwise only the requested currency counts. Records without a readable
// date are skipped.
func MonthlyTrend(debts []DebtRecord, payments []PaymentRecord, currencyFilter string, now time.Time) []TrendPoint {
	log := logger.WithComponent("trend")

	loc := now.Location()
	last := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
	first := last.AddDate(0, -(TrendMonths - 1), 0)

	all := currencyFilter == "" || currencyFilter == AllCurrencies
	if !all {
		currencyFilter = money.NormalizeCurrency(currencyFilter, "")
	}

	// Per month, per currency amounts added in that month. Records older than
	// the window land in month 0.
	buckets := make([]map[string]trendCell, TrendMonths)
	for i := range buckets {
		buckets[i] = make(map[string]trendCell)
	}

	slot := func(t time.Time) (int, bool) {
		t = t.In(loc)
		month := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
		if month.After(last) {
			return 0, false
		}
		if month.Before(first) {
			return 0, true
		}
		return monthsBetween(first, month), true
	}

	for _, d := range debts {
		if !all && d.Currency != currencyFilter {
			continue
		}
		date := d.Date()
		if date.IsZero() {
			log.Warn().Str("debt_id", d.ID).Msg("skipping debt without a readable date")
			continue
		}
		i, ok := slot(date)
		if !ok {
			continue
		}
		cell := buckets[i][d.Currency]
		cell.debt = cell.debt.Add(d.Amount)
		buckets[i][d.Currency] = cell
	}

	for _, p := range payments {
		if !all && p.Currency != currencyFilter {
			continue
		}
		date := p.Date()
		if date.IsZero() {
			log.Warn().Str("payment_id", p.ID).Msg("skipping payment without a readable date")
			continue
		}
		i, ok := slot(date)
		if !ok {
			continue
		}
		cell := buckets[i][p.Currency]
		cell.payment = cell.payment.Add(p.Amount)
		buckets[i][p.Currency] = cell
	}

	points := make([]TrendPoint, 0, TrendMonths)
	running := make(map[string]trendCell)
	for i := 0; i < TrendMonths; i++ {
		for cur, cell := range buckets[i] {
			acc := running[cur]
			acc.debt = acc.debt.Add(cell.debt)
			acc.payment = acc.payment.Add(cell.payment)
			running[cur] = acc
		}

		point := TrendPoint{
			Month:     first.AddDate(0, i, 0).Format("2006-01"),
			Debt:      decimal.Zero,
			Payment:   decimal.Zero,
			Remaining: decimal.Zero,
		}
		for _, acc := range running {
			point.Debt = point.Debt.Add(acc.debt)
			point.Payment = point.Payment.Add(acc.payment)
			point.Remaining = point.Remaining.Add(money.Max(decimal.Zero, acc.debt.Sub(acc.payment)))
		}
		points = append(points, point)
	}

	return points
}

func monthsBetween(from, to time.Time) int {
	return (to.Year()-from.Year())*12 + int(to.Month()-from.Month())
}
