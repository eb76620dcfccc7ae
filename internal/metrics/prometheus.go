package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	IngestsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "contract_intel_ingests_total",
			Help: "Total documents ingested",
		},
	)

	ExtractionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "contract_intel_extractions_total",
			Help: "Total field extraction calls",
		},
	)

	QuestionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "contract_intel_questions_total",
			Help: "Total questions answered",
		},
	)

	AuditsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "contract_intel_audits_total",
			Help: "Total audit calls",
		},
	)

	DocumentsStored = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "contract_intel_documents_stored",
			Help: "Documents currently held in the store",
		},
	)

	WebhookDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contract_intel_webhook_deliveries_total",
			Help: "Webhook delivery attempts by outcome",
		},
		[]string{"status"},
	)

	ProviderCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contract_intel_provider_calls_total",
			Help: "Provider completion calls by provider and outcome",
		},
		[]string{"provider", "status"},
	)
)

func Init() {
	prometheus.MustRegister(IngestsTotal)
	prometheus.MustRegister(ExtractionsTotal)
	prometheus.MustRegister(QuestionsTotal)
	prometheus.MustRegister(AuditsTotal)
	prometheus.MustRegister(DocumentsStored)
	prometheus.MustRegister(WebhookDeliveries)
	prometheus.MustRegister(ProviderCalls)
}

func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
