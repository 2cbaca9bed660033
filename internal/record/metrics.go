package record

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals
var parseOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "captrack",
	Subsystem: "parse",
	Name:      "outcomes_total",
	Help:      "Submission outcomes by storage routing status",
}, []string{"status"})
