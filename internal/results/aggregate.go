package results

import (
	"math"
	"sort"
	"strconv"
)

// Summarize computes the aggregate over a set of percentage scores. Mean and
// standard deviation are rounded to two places; percentiles interpolate
// linearly between neighbouring scores.
func Summarize(scores []float64) Aggregate {
	n := len(scores)
	if n == 0 {
		return Aggregate{}
	}
	s := append([]float64(nil), scores...)
	sort.Float64s(s)

	sum := 0.0
	for _, v := range s {
		sum += v
	}
	mean := sum / float64(n)

	var stddev float64
	if n > 1 {
		sq := 0.0
		for _, v := range s {
			sq += (v - mean) * (v - mean)
		}
		stddev = math.Sqrt(sq / float64(n-1))
	}

	return Aggregate{
		Mean:   round2(mean),
		StdDev: round2(stddev),
		Min:    s[0],
		Max:    s[n-1],
		P25:    percentileCont(s, 0.25),
		P50:    percentileCont(s, 0.50),
		P75:    percentileCont(s, 0.75),
		Count:  n,
	}
}

// percentileCont expects sorted input.
func percentileCont(sorted []float64, p float64) float64 {
	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (pos-float64(lo))*(sorted[hi]-sorted[lo])
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

// scoresOf parses stored percentage strings; unparseable values are skipped.
func scoresOf(rs []TestResult) []float64 {
	out := make([]float64, 0, len(rs))
	for _, r := range rs {
		v, err := strconv.ParseFloat(r.PercentageScore, 64)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}
