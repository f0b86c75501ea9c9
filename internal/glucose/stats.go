package glucose

import (
	"math"
	"sort"
)

// Stats is a full-precision summary of a set of glucose values. Nothing in it is
// rounded; rounding happens only when a field is presented.
type Stats struct {
	Count      int
	Sum        float64
	Mean       float64
	Min        float64
	Max        float64
	Median     float64
	StdDev     float64 // population standard deviation
	InRange    int     // values in [RangeLow, RangeHigh]
	BelowRange int
	AboveRange int
}

// Summarize reduces values into Stats. An empty slice yields the zero Stats.
func Summarize(values []float64) Stats {
	var s Stats
	if len(values) == 0 {
		return s
	}

	s.Count = len(values)
	s.Min = values[0]
	s.Max = values[0]
	for _, v := range values {
		s.Sum += v
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
		switch {
		case v < RangeLow:
			s.BelowRange++
		case v > RangeHigh:
			s.AboveRange++
		default:
			s.InRange++
		}
	}
	s.Mean = s.Sum / float64(s.Count)
	s.Median = median(values)

	if s.Count >= 2 {
		var sq float64
		for _, v := range values {
			d := v - s.Mean
			sq += d * d
		}
		s.StdDev = math.Sqrt(sq / float64(s.Count))
	}
	return s
}

// TimeInRange is the percentage of values inside [RangeLow, RangeHigh].
func (s Stats) TimeInRange() float64 {
	return percent(s.InRange, s.Count)
}

// TimeBelowRange is the percentage of values under RangeLow.
func (s Stats) TimeBelowRange() float64 {
	return percent(s.BelowRange, s.Count)
}

// TimeAboveRange is the percentage of values over RangeHigh.
func (s Stats) TimeAboveRange() float64 {
	return percent(s.AboveRange, s.Count)
}

// CoefficientOfVariation is StdDev / Mean as a percentage. Fewer than two values
// have no variability and yield 0.
func (s Stats) CoefficientOfVariation() float64 {
	if s.Count < 2 || s.Mean == 0 {
		return 0
	}
	return s.StdDev / s.Mean * 100
}

// EstimateHbA1c converts an average glucose in mg/dL to an estimated HbA1c
// percentage using the ADAG regression. An average of 0 means no data and yields 0.
func EstimateHbA1c(average float64) float64 {
	if average == 0 {
		return 0
	}
	return (average + 46.7) / 28.7
}

// Round rounds x to places decimals, half away from zero.
func Round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

func valuesOf(readings []Reading) []float64 {
	values := make([]float64, len(readings))
	for i, r := range readings {
		values[i] = r.Value
	}
	return values
}
