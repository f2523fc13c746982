package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	natsMailJobsReceivedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mail_delivery",
			Name:      "nats_jobs_received_total",
			Help:      "Total NATS mail jobs received.",
		},
		[]string{"subject"},
	)

	mailJobsProcessedCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mail_delivery",
			Name:      "jobs_processed_total",
			Help:      "Total mail jobs processed, by terminal outcome.",
		},
		[]string{"outcome"}, // rejected, sent, error, skipped
	)

	mailJobProcessingDurationHist = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mail_delivery",
			Name:      "job_processing_duration_seconds",
			Help:      "Duration of mail job processing.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)

	transportSendDurationHist = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mail_delivery",
			Name:      "transport_send_duration_seconds",
			Help:      "Duration of individual transport sends.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"transport"},
	)

	recipientsDeliveredCounter = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "mail_delivery",
			Name:      "recipients_delivered_total",
			Help:      "Total recipients successfully delivered to.",
		},
	)
)
