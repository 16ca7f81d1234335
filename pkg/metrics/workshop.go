package metrics

import "github.com/prometheus/client_golang/prometheus"

// WorkshopMetrics tracks production-floor gauges refreshed by the cron worker.
type WorkshopMetrics struct {
	queueDepth      prometheus.Gauge
	activeAlerts    *prometheus.GaugeVec
	overdueTasks    prometheus.Gauge
	stockMovements  *prometheus.CounterVec
	taskTransitions *prometheus.CounterVec
}

// NewWorkshopMetrics registers the domain metrics on the provided registerer.
func NewWorkshopMetrics(reg prometheus.Registerer) *WorkshopMetrics {
	if reg == nil {
		return &WorkshopMetrics{}
	}
	queueDepth := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "production_queue_depth",
		Help: "Orders currently holding a production queue slot.",
	})
	activeAlerts := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "stock_alerts_active",
		Help: "Active stock alerts by type.",
	}, []string{"alert_type"})
	overdueTasks := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tasks_overdue",
		Help: "Open tasks past their due date.",
	})
	stockMovements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_movements_total",
		Help: "Stock ledger entries recorded, by movement type.",
	}, []string{"movement_type"})
	taskTransitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "task_transitions_total",
		Help: "Task lifecycle transitions, by target status.",
	}, []string{"status"})
	reg.MustRegister(queueDepth, activeAlerts, overdueTasks, stockMovements, taskTransitions)
	return &WorkshopMetrics{
		queueDepth:      queueDepth,
		activeAlerts:    activeAlerts,
		overdueTasks:    overdueTasks,
		stockMovements:  stockMovements,
		taskTransitions: taskTransitions,
	}
}

// SetQueueDepth records the number of queued orders.
func (w *WorkshopMetrics) SetQueueDepth(depth float64) {
	if w == nil || w.queueDepth == nil {
		return
	}
	w.queueDepth.Set(depth)
}

// SetActiveAlerts records the active alert count for a type.
func (w *WorkshopMetrics) SetActiveAlerts(alertType string, count float64) {
	if w == nil || w.activeAlerts == nil {
		return
	}
	w.activeAlerts.WithLabelValues(normalizeLabel(alertType)).Set(count)
}

// SetOverdueTasks records the overdue task count.
func (w *WorkshopMetrics) SetOverdueTasks(count float64) {
	if w == nil || w.overdueTasks == nil {
		return
	}
	w.overdueTasks.Set(count)
}

// IncStockMovement counts a recorded ledger entry.
func (w *WorkshopMetrics) IncStockMovement(movementType string) {
	if w == nil || w.stockMovements == nil {
		return
	}
	w.stockMovements.WithLabelValues(normalizeLabel(movementType)).Inc()
}

// IncTaskTransition counts a task lifecycle transition.
func (w *WorkshopMetrics) IncTaskTransition(status string) {
	if w == nil || w.taskTransitions == nil {
		return
	}
	w.taskTransitions.WithLabelValues(normalizeLabel(status)).Inc()
}
