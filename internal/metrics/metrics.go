package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SalesCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sales_created_total",
		Help: "Total number of sales created",
	})

	SalesFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sales_failed_total",
		Help: "Total number of rejected sale attempts",
	}, []string{"reason"})

	SalesDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sales_deleted_total",
		Help: "Total number of sales moved to the deleted holding area",
	})

	SalesRestoredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sales_restored_total",
		Help: "Total number of sales restored from the deleted holding area",
	})

	SalesPurgedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sales_purged_total",
		Help: "Total number of sales permanently removed",
	})

	StockRejectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stock_rejections_total",
		Help: "Total number of sale attempts rejected for insufficient stock",
	})

	DiscountClampsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "discount_clamps_total",
		Help: "Total number of discounts clamped to the discountable base",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
