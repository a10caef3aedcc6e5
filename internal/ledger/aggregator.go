package ledger

import (
	"betledger/internal/model"

	"gonum.org/v1/gonum/floats"
)

// Order tells ComputeEquityCurve how the bets it receives are arranged.
type Order int

const (
	// OrderChronological means oldest bet first. Bets are accumulated as given.
	OrderChronological Order = iota
	// OrderNewestFirst is the ledger display order, where new bets are
	// prepended. The slice is walked back to front.
	OrderNewestFirst
)

// ComputeStats aggregates a set of bets into summary statistics.
// Pending bets count toward totals and turnover but add nothing to profit.
// Every ratio is guarded, so an empty or zero-stake ledger yields zeros.
func ComputeStats(bets []model.BetRecord) model.SummaryStats {
	var (
		turnover float64
		profit   float64
		oddsSum  float64
		won      int
	)
	for _, b := range bets {
		turnover += b.Stake
		profit += b.ProfitOrZero()
		oddsSum += b.Odds
		if b.Status == model.StatusWon {
			won++
		}
	}

	stats := model.SummaryStats{
		TotalBets:     len(bets),
		TotalTurnover: turnover,
		TotalProfit:   profit,
	}
	if turnover > 0 {
		stats.Yield = (profit / turnover) * 100
		stats.ROI = stats.Yield
	}
	if n := len(bets); n > 0 {
		stats.WinRate = (float64(won) / float64(n)) * 100
		stats.AvgOdds = oddsSum / float64(n)
		stats.AvgStake = turnover / float64(n)
	}
	return stats
}

// ComputeEquityCurve returns the running profit after each bet.
//
// The caller is responsible for the order of bets: the curve is built in
// the sequence implied by order and is never re-sorted by date, since
// several bets can share a day. Points are always emitted oldest first.
func ComputeEquityCurve(bets []model.BetRecord, order Order) []model.EquityPoint {
	points := make([]model.EquityPoint, 0, len(bets))
	running := 0.0
	for i := range bets {
		b := bets[i]
		if order == OrderNewestFirst {
			b = bets[len(bets)-1-i]
		}
		p := b.ProfitOrZero()
		running += p
		points = append(points, model.EquityPoint{
			Index:  i,
			Y:      running,
			Date:   b.Date,
			Profit: p,
		})
	}
	return points
}

// Chart scaling used when ScaleOptions leaves a field at zero.
const (
	// DefaultMinSpan is the smallest y range shown, in currency units.
	DefaultMinSpan = 100.0
	// DefaultPaddingRatio is the share of the span added above and below.
	DefaultPaddingRatio = 0.10
)

// ScaleOptions tunes ScaleChart. Zero values select the defaults.
type ScaleOptions struct {
	MinSpan      float64
	PaddingRatio float64
}

// ChartScale is the vertical axis for an equity chart.
type ChartScale struct {
	Min   float64
	Max   float64
	Lower float64
	Upper float64
	Range float64
}

// ScaleChart computes the y-axis bounds for plotting points. Zero is always
// inside [Min, Max]. When the data spans less than MinSpan the axis is
// widened around its midpoint, so a flat curve still gets a plot area.
// Padding is applied on both sides after widening.
func ScaleChart(points []model.EquityPoint, opts ScaleOptions) ChartScale {
	if opts.MinSpan <= 0 {
		opts.MinSpan = DefaultMinSpan
	}
	if opts.PaddingRatio <= 0 {
		opts.PaddingRatio = DefaultPaddingRatio
	}

	var lo, hi float64
	if len(points) > 0 {
		ys := make([]float64, len(points))
		for i, p := range points {
			ys[i] = p.Y
		}
		lo = min(floats.Min(ys), 0)
		hi = max(floats.Max(ys), 0)
	}

	axisLo, axisHi := lo, hi
	if span := hi - lo; span < opts.MinSpan {
		mid := (hi + lo) / 2
		axisLo = mid - opts.MinSpan/2
		axisHi = mid + opts.MinSpan/2
	}
	pad := (axisHi - axisLo) * opts.PaddingRatio

	scale := ChartScale{
		Min:   lo,
		Max:   hi,
		Lower: axisLo - pad,
		Upper: axisHi + pad,
	}
	scale.Range = scale.Upper - scale.Lower
	return scale
}

// Position maps y onto [0, 1] within the scale.
func (s ChartScale) Position(y float64) float64 {
	if s.Range == 0 {
		return 0
	}
	return (y - s.Lower) / s.Range
}
