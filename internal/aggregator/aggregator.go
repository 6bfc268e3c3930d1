package aggregator

import "sdr-automation-go/internal/types"

// DecisionOrder is the display order for per-decision counts.
var DecisionOrder = []types.Decision{
	types.DecisionInterested,
	types.DecisionWarm,
	types.DecisionNurture,
	types.DecisionDeadEnd,
	types.DecisionUnknown,
	types.DecisionError,
}

type Summary struct {
	Total             int                        `json:"total"`
	ByDecision        map[types.Decision]int     `json:"by_decision"`
	DecisionRates     map[types.Decision]float64 `json:"decision_rates"`
	Errors            int                        `json:"errors"`
	Scheduled         int                        `json:"scheduled"`
	Drafted           int                        `json:"drafted"`
	AverageConfidence float64                    `json:"average_confidence"`
}

// Aggregate summarizes a run. Calls that failed classification count as
// errors and are left out of the confidence average.
func Aggregate(results []types.CallResult) Summary {
	sum := Summary{
		Total:         len(results),
		ByDecision:    map[types.Decision]int{},
		DecisionRates: map[types.Decision]float64{},
	}

	confTotal, confCount := 0, 0
	for _, r := range results {
		d := r.Classification.Decision
		if d == "" {
			d = types.DecisionUnknown
		}
		sum.ByDecision[d]++

		if r.Error != "" || d == types.DecisionError {
			sum.Errors++
		}
		if d != types.DecisionError {
			confTotal += r.Classification.Confidence
			confCount++
		}
		if r.Outcome.Scheduled {
			sum.Scheduled++
		}
		if r.Outcome.Drafted {
			sum.Drafted++
		}
	}

	for d, n := range sum.ByDecision {
		sum.DecisionRates[d] = float64(n) / float64(sum.Total)
	}
	if confCount > 0 {
		sum.AverageConfidence = float64(confTotal) / float64(confCount)
	}
	return sum
}
