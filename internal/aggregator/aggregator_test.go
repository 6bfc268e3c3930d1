package aggregator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"sdr-automation-go/internal/types"
)

func result(d types.Decision, conf int) types.CallResult {
	return types.CallResult{Classification: types.Classification{Decision: d, Confidence: conf}}
}

func TestAggregate(t *testing.T) {
	results := []types.CallResult{
		result(types.DecisionInterested, 9),
		result(types.DecisionInterested, 7),
		result(types.DecisionDeadEnd, 8),
		result(types.DecisionError, 0),
		{Classification: types.Classification{Decision: types.DecisionWarm, Confidence: 4}, Outcome: types.Outcome{Drafted: true}},
	}
	results[0].Outcome.Scheduled = true
	results[2].Error = "salesforce down"

	sum := Aggregate(results)
	assert.Equal(t, 5, sum.Total)
	assert.Equal(t, 2, sum.ByDecision[types.DecisionInterested])
	assert.Equal(t, 1, sum.ByDecision[types.DecisionWarm])
	assert.Equal(t, 1, sum.ByDecision[types.DecisionDeadEnd])
	assert.Equal(t, 0, sum.ByDecision[types.DecisionNurture])
	assert.Equal(t, 2, sum.Errors)
	assert.Equal(t, 1, sum.Scheduled)
	assert.Equal(t, 1, sum.Drafted)
	assert.InDelta(t, 7.0, sum.AverageConfidence, 1e-9)
	assert.InDelta(t, 0.4, sum.DecisionRates[types.DecisionInterested], 1e-9)
}

func TestAggregate_Empty(t *testing.T) {
	sum := Aggregate(nil)
	assert.Equal(t, 0, sum.Total)
	assert.Zero(t, sum.AverageConfidence)
	assert.Empty(t, sum.ByDecision)
}

func TestAggregate_BlankDecisionIsUnknown(t *testing.T) {
	sum := Aggregate([]types.CallResult{{}})
	assert.Equal(t, 1, sum.ByDecision[types.DecisionUnknown])
}
