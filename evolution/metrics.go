package evolution

import "github.com/prometheus/client_golang/prometheus/promauto"
import "github.com/prometheus/client_golang/prometheus"

var mergesCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "lakeschema_merges_total",
	Help: "Number of schema merges attempted, by outcome",
}, []string{"outcome"})

var integerWideningsCounter = promauto.NewCounter(prometheus.CounterOpts{
	Name: "lakeschema_integer_widenings_total",
	Help: "Number of integer leaf widenings applied during schema merges",
})

var rejectedTypeChangesCounter = promauto.NewCounter(prometheus.CounterOpts{
	Name: "lakeschema_type_changes_rejected_total",
	Help: "Number of type changes rejected by the strict compatibility check",
})

func observeMerge(ok bool) {
	outcome := "conflict"
	if ok {
		outcome = "merged"
	}
	mergesCounter.WithLabelValues(outcome).Inc()
}

func observeIntegerWidening() {
	integerWideningsCounter.Inc()
}

func observeRejectedTypeChange() {
	rejectedTypeChangesCounter.Inc()
}
