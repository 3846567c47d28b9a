package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Totals sums every counter and gauge of the registry by fully qualified
// metric name, folding label dimensions together.
func Totals(g prometheus.Gatherer) (map[string]float64, error) {
	families, err := g.Gather()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGatherFailed, err)
	}
	out := make(map[string]float64, len(families))
	for _, mf := range families {
		var sum float64
		for _, metric := range mf.GetMetric() {
			switch {
			case metric.GetCounter() != nil:
				sum += metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				sum += metric.GetGauge().GetValue()
			default:
				continue
			}
		}
		out[mf.GetName()] = sum
	}
	return out, nil
}
