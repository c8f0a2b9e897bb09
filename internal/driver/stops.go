package driver

import "github.com/odelab/odesim/internal/ode"

// stopTimes merges two ascending time sequences into the sorted, deduplicated
// set of instants the integration must land on exactly. Times within
// ode.TimeEps of each other collapse onto the first occurrence, which keeps
// event triggers and output times that differ only by float noise on one stop.
func stopTimes(outputs, eventTimes []float64) []float64 {
	merged := make([]float64, 0, len(outputs)+len(eventTimes))
	i, j := 0, 0
	for i < len(outputs) || j < len(eventTimes) {
		var next float64
		switch {
		case i == len(outputs):
			next = eventTimes[j]
			j++
		case j == len(eventTimes):
			next = outputs[i]
			i++
		case outputs[i] <= eventTimes[j]:
			next = outputs[i]
			i++
		default:
			next = eventTimes[j]
			j++
		}
		if len(merged) == 0 || !ode.SameTime(merged[len(merged)-1], next) {
			merged = append(merged, next)
		}
	}
	return merged
}
