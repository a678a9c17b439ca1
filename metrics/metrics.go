package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	Registrations = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "clanhall_registrations_total", Help: "Total participant registrations accepted"},
	)
	MatchesCreated = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "clanhall_matches_created_total", Help: "Total matches added to the ledger"},
	)
	ResultsRecorded = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "clanhall_results_recorded_total", Help: "Total match results recorded"},
	)
)

func Register() {
	prometheus.MustRegister(Registrations, MatchesCreated, ResultsRecorded)
}
