package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	stepsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zoo_steps_total",
		Help: "Total number of optimizer steps taken",
	}, []string{"benchmark"})

	jobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zoo_jobs_total",
		Help: "Total number of finished jobs by final state",
	}, []string{"state"})

	stepDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "zoo_step_duration_seconds",
		Help:    "Wall time of one optimizer step including objective evaluations",
		Buckets: []float64{.00001, .0001, .0005, .001, .005, .01, .05, .1, .5},
	}, []string{"benchmark"})

	currentObjective = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "zoo_objective_value",
		Help: "Most recent objective value of a running job",
	}, []string{"job_id"})
)
