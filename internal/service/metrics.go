package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	enrichmentJobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "post_service",
		Name:      "enrichment_jobs_total",
		Help:      "Post enrichment jobs by outcome.",
	}, []string{"result"})

	aiFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "post_service",
		Name:      "ai_failures_total",
		Help:      "Failed calls to the text enrichment capability by operation.",
	}, []string{"operation"})

	counterUpdateFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "post_service",
		Name:      "counter_update_failures_total",
		Help:      "User counter updates that failed and were dropped.",
	})
)
