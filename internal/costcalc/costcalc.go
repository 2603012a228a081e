// Package costcalc estimates compute spend for sandbox and workflow runs.
package costcalc

import "math"

// Per-second rates for the resource types jobs run on.
var rates = map[string]float64{
	"modal-gpu-a10g":     0.0003,
	"e2b-sandbox":        0.00005,
	"aws-step-functions": 0.000001,
}

const defaultRunSeconds = 60

// PendingRun is a queued or in-flight job whose cost is not yet settled.
type PendingRun struct {
	ResourceType    string
	DurationSeconds float64
}

// RunCost returns the cost of running one resource type for a duration.
// Unknown resource types cost nothing.
func RunCost(resourceType string, durationSeconds float64) float64 {
	return rates[resourceType] * durationSeconds
}

// EstimateMonthToDate adds the projected cost of pending runs to the settled
// month-to-date figure. Runs of unknown duration are assumed to take a
// minute. The result is rounded to four decimals, matching the billing
// precision stored on the project state.
func EstimateMonthToDate(currentCost float64, pending []PendingRun) float64 {
	estimated := currentCost

	for _, run := range pending {
		duration := run.DurationSeconds
		if duration <= 0 {
			duration = defaultRunSeconds
		}

		estimated += RunCost(run.ResourceType, duration)
	}

	return math.Round(estimated*1e4) / 1e4
}
