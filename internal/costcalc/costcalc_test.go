package costcalc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunCost(t *testing.T) {
	assert.InDelta(t, 0.018, RunCost("modal-gpu-a10g", 60), 1e-9)
	assert.InDelta(t, 0.003, RunCost("e2b-sandbox", 60), 1e-9)
	assert.Equal(t, 0.0, RunCost("unknown-resource", 3600))
}

func TestEstimateMonthToDate(t *testing.T) {
	t.Run("no pending runs", func(t *testing.T) {
		assert.Equal(t, 1.2345, EstimateMonthToDate(1.23451, nil))
	})

	t.Run("pending runs with known durations", func(t *testing.T) {
		estimate := EstimateMonthToDate(1.0, []PendingRun{
			{ResourceType: "modal-gpu-a10g", DurationSeconds: 120},
			{ResourceType: "e2b-sandbox", DurationSeconds: 600},
		})

		assert.InDelta(t, 1.066, estimate, 1e-9)
	})

	t.Run("unknown duration assumes a minute", func(t *testing.T) {
		estimate := EstimateMonthToDate(0, []PendingRun{
			{ResourceType: "modal-gpu-a10g"},
		})

		assert.InDelta(t, 0.018, estimate, 1e-9)
	})
}
