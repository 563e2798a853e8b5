package grid

import (
	"strconv"
	"strings"
)

// Aggregation holds numeric summary statistics for one column. Pointer
// fields are nil when no value was numeric.
type Aggregation struct {
	Sum   *float64 `json:"sum,omitempty"`
	Avg   *float64 `json:"avg,omitempty"`
	Min   *float64 `json:"min,omitempty"`
	Max   *float64 `json:"max,omitempty"`
	Count int64    `json:"count"`
}

// Aggregate computes Aggregation over values. Count covers non-missing
// values; the other statistics cover the numeric ones.
func Aggregate(values []any) Aggregation {
	var (
		agg    Aggregation
		sum    float64
		lo, hi float64
		n      int
	)
	for _, v := range values {
		if IsMissing(v) {
			continue
		}
		agg.Count++
		f, ok := numericValue(v)
		if !ok {
			continue
		}
		if n == 0 || f < lo {
			lo = f
		}
		if n == 0 || f > hi {
			hi = f
		}
		sum += f
		n++
	}
	if n > 0 {
		avg := sum / float64(n)
		agg.Sum, agg.Avg, agg.Min, agg.Max = &sum, &avg, &lo, &hi
	}
	return agg
}

// SumFooter renders the column total with the given number of decimals.
func SumFooter(decimals int) FooterAggregator {
	return func(values []any) string {
		return formatStat(Aggregate(values).Sum, decimals)
	}
}

// AvgFooter renders the column mean.
func AvgFooter(decimals int) FooterAggregator {
	return func(values []any) string {
		return formatStat(Aggregate(values).Avg, decimals)
	}
}

// MinFooter renders the smallest value.
func MinFooter(decimals int) FooterAggregator {
	return func(values []any) string {
		return formatStat(Aggregate(values).Min, decimals)
	}
}

// MaxFooter renders the largest value.
func MaxFooter(decimals int) FooterAggregator {
	return func(values []any) string {
		return formatStat(Aggregate(values).Max, decimals)
	}
}

// CountFooter renders the number of non-missing values.
func CountFooter() FooterAggregator {
	return func(values []any) string {
		return strconv.FormatInt(Aggregate(values).Count, 10)
	}
}

// FooterByName returns the footer for "sum", "avg", "min", "max" or
// "count", or nil for any other name.
func FooterByName(name string, decimals int) FooterAggregator {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sum":
		return SumFooter(decimals)
	case "avg":
		return AvgFooter(decimals)
	case "min":
		return MinFooter(decimals)
	case "max":
		return MaxFooter(decimals)
	case "count":
		return CountFooter()
	}
	return nil
}

func formatStat(v *float64, decimals int) string {
	if v == nil {
		return ""
	}
	if decimals < 0 {
		decimals = 0
	}
	return strconv.FormatFloat(*v, 'f', decimals, 64)
}
