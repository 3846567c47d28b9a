package api

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/okian/repcoach/pkg/metrics"
)

// StatsProvider defines the interface for getting service statistics.
type StatsProvider interface {
	GetStats() map[string]interface{}
}

// statsResponse is the body of GET /stats: the provider's view plus the
// engine counters folded across labels.
type statsResponse struct {
	Service map[string]interface{} `json:"service"`
	Totals  map[string]float64     `json:"totals,omitempty"`
}

// StatsHandler handles stats requests.
type StatsHandler struct {
	provider StatsProvider
	gatherer prometheus.Gatherer
	prefix   string
}

// NewStatsHandler creates a stats handler reporting the totals of the
// metrics registry whose names start with "repcoach_engine_".
func NewStatsHandler(provider StatsProvider) *StatsHandler {
	return &StatsHandler{
		provider: provider,
		gatherer: metrics.GetRegistry(),
		prefix:   "repcoach_engine_",
	}
}

// HandleStats handles GET /stats requests.
func (h *StatsHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", ErrMethodNotAllowed)
		return
	}

	resp := statsResponse{Service: h.provider.GetStats()}
	// Totals are best effort; the service view is always served.
	if totals, err := metrics.Totals(h.gatherer); err == nil {
		resp.Totals = make(map[string]float64, len(totals))
		for name, v := range totals {
			if strings.HasPrefix(name, h.prefix) {
				resp.Totals[strings.TrimPrefix(name, h.prefix)] = v
			}
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
