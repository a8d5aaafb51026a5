package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/warp/booking-ops/derive"
	"github.com/warp/booking-ops/ingest"
)

// ─── Imports ────────────────────────────────────────────────────────────────

// ImportRows counts imported rows by paste kind and outcome.
var ImportRows = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "opsdash",
	Subsystem: "import",
	Name:      "rows_total",
	Help:      "Pasted rows processed, by kind and outcome (accepted, duplicate, rejected).",
}, []string{"kind", "outcome"})

// ImportBatches counts import requests by paste kind.
var ImportBatches = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "opsdash",
	Subsystem: "import",
	Name:      "batches_total",
	Help:      "Import requests committed, by kind.",
}, []string{"kind"})

// AutoCreated counts entities created implicitly by booking imports.
var AutoCreated = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "opsdash",
	Subsystem: "import",
	Name:      "auto_created_total",
	Help:      "Accounts and hotels auto-created from booking imports.",
}, []string{"entity"})

// ─── Sweep ──────────────────────────────────────────────────────────────────

// TechBlocks counts TECH blocks written into manual statuses.
var TechBlocks = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "opsdash",
	Subsystem: "sweep",
	Name:      "tech_blocks_total",
	Help:      "Accounts and hotels blocked by the TECH-block sweep.",
}, []string{"entity"})

// ─── Derived model ──────────────────────────────────────────────────────────

var ReadyAccounts = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "opsdash",
	Subsystem: "model",
	Name:      "ready_accounts",
	Help:      "Accounts that can take a new booking.",
})

var EligibleHotels = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "opsdash",
	Subsystem: "model",
	Name:      "eligible_hotels",
	Help:      "Hotels eligible for the next booking.",
})

var BlockedAccounts = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "opsdash",
	Subsystem: "model",
	Name:      "blocked_accounts",
	Help:      "Accounts blocked manually or by TECH rules.",
})

var PendingRewards = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "opsdash",
	Subsystem: "rewards",
	Name:      "pending_amount",
	Help:      "Total reward amount not yet paid out.",
})

var OverdueRewards = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "opsdash",
	Subsystem: "rewards",
	Name:      "overdue_rows",
	Help:      "Pending rewards whose ETA has passed.",
})

func observeImport(kind string, accepted, duplicate, rejected int) {
	ImportBatches.WithLabelValues(kind).Inc()
	ImportRows.WithLabelValues(kind, "accepted").Add(float64(accepted))
	ImportRows.WithLabelValues(kind, "duplicate").Add(float64(duplicate))
	ImportRows.WithLabelValues(kind, "rejected").Add(float64(rejected))
}

func observeBookingImport(sum ingest.BookingSummary) {
	observeImport("bookings", sum.Added, sum.DupSkipped, len(sum.Errors))
	AutoCreated.WithLabelValues("account").Add(float64(sum.AccCreated))
	AutoCreated.WithLabelValues("hotel").Add(float64(sum.HotelCreated))
}

// ObserveSweep records a sweep that wrote blocks. It is passed to the
// controller as its sweep observer.
func ObserveSweep(sum ingest.SweepSummary) {
	TechBlocks.WithLabelValues("account").Add(float64(sum.Accounts))
	TechBlocks.WithLabelValues("hotel").Add(float64(sum.Hotels))
}

func observeModel(m *derive.Model, p derive.RewardPipeline) {
	ReadyAccounts.Set(float64(len(m.AccountsReady)))
	EligibleHotels.Set(float64(len(m.HotelsEligible)))
	BlockedAccounts.Set(float64(m.Totals.Blocked))
	PendingRewards.Set(p.PendingTotal.InexactFloat64())

	overdue := 0
	for _, row := range p.Pending {
		if row.Overdue {
			overdue++
		}
	}
	OverdueRewards.Set(float64(overdue))
}
