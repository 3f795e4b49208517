package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

var (
	domainMetricsOnce sync.Once

	planOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plan_operations_total",
			Help: "Total number of plan save/update/delete attempts",
		},
		[]string{"op", "status"},
	)

	planConflictsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "plan_conflicts_total",
			Help: "Total number of plan saves rejected for overlap",
		},
	)

	friendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "friend_requests_total",
			Help: "Total number of friend request attempts",
		},
		[]string{"status"},
	)

	friendDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "friend_decisions_total",
			Help: "Total number of friend request accept/decline attempts",
		},
		[]string{"decision", "status"},
	)
)

func RegisterDomainMetrics() {
	domainMetricsOnce.Do(func() {
		prometheus.MustRegister(planOpsTotal, planConflictsTotal, friendRequestsTotal, friendDecisionsTotal)
	})
}

func IncPlanOp(op, status string) {
	RegisterDomainMetrics()
	planOpsTotal.WithLabelValues(op, status).Inc()
}

func IncPlanConflict() {
	RegisterDomainMetrics()
	planConflictsTotal.Inc()
}

func IncFriendRequest(status string) {
	RegisterDomainMetrics()
	friendRequestsTotal.WithLabelValues(status).Inc()
}

func IncFriendDecision(decision, status string) {
	RegisterDomainMetrics()
	friendDecisionsTotal.WithLabelValues(decision, status).Inc()
}
