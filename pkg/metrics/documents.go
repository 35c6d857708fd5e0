package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DocumentsIssued counts successfully committed documents per family.
	DocumentsIssued = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shopbooks",
		Name:      "documents_issued_total",
		Help:      "Documents issued, labelled by family.",
	}, []string{"family"})

	// DocumentsFailed counts rolled-back issuance attempts per family and
	// error code.
	DocumentsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shopbooks",
		Name:      "documents_failed_total",
		Help:      "Failed issuance attempts, labelled by family and error code.",
	}, []string{"family", "code"})

	// StockMovements counts movement rows written per kind.
	StockMovements = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shopbooks",
		Name:      "stock_movements_total",
		Help:      "Inventory movements recorded, labelled by kind.",
	}, []string{"kind"})
)
