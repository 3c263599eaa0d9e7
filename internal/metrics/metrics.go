// Package metrics объявляет счетчики Prometheus, отдаваемые на /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WebhookEvents считает проверенные события шлюза по типу события и результату сверки.
	WebhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "club",
		Name:      "webhook_events_total",
		Help:      "Verified payment gateway webhook events by type and outcome.",
	}, []string{"type", "outcome"})

	// PaymentIntents считает попытки создания намерений по типу платежа и результату.
	PaymentIntents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "club",
		Name:      "payment_intents_total",
		Help:      "Payment intent creation attempts by payment type and outcome.",
	}, []string{"payment_type", "outcome"})

	// AttendanceClosed считает записи посещаемости, закрытые задачей очистки.
	AttendanceClosed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "club",
		Name:      "attendance_records_closed_total",
		Help:      "Attendance records closed by the end-of-day cleanup job.",
	})

	// NotificationsSent считает письма с платежными уведомлениями по виду и результату.
	NotificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "club",
		Name:      "notifications_sent_total",
		Help:      "Payment notification emails by kind and outcome.",
	}, []string{"kind", "outcome"})
)
