package enums

// OutboxEventType names a domain event recorded through the outbox.
type OutboxEventType string

const (
	EventOrderCreated            OutboxEventType = "order.created"
	EventOrderStatusChanged      OutboxEventType = "order.status_changed"
	EventOrderProductionAdvanced OutboxEventType = "order.production_advanced"
	EventOrderPaymentUpdated     OutboxEventType = "order.payment_updated"
	EventOrderCancelled          OutboxEventType = "order.cancelled"
	EventOrderQueued             OutboxEventType = "order.queued"
	EventOrderPriorityEscalated  OutboxEventType = "order.priority_escalated"
	EventTaskAssigned            OutboxEventType = "task.assigned"
	EventTaskStarted             OutboxEventType = "task.started"
	EventTaskPaused              OutboxEventType = "task.paused"
	EventTaskResumed             OutboxEventType = "task.resumed"
	EventTaskCompleted           OutboxEventType = "task.completed"
	EventTaskApproved            OutboxEventType = "task.approved"
	EventTaskRejected            OutboxEventType = "task.rejected"
	EventTaskCancelled           OutboxEventType = "task.cancelled"
	EventStockMovementRecorded   OutboxEventType = "stock.movement_recorded"
	EventStockAlertRaised        OutboxEventType = "stock.alert_raised"
	EventMaterialAllocated       OutboxEventType = "stock.material_allocated"
	EventPredictionCalculated    OutboxEventType = "stock.prediction_calculated"
)

// String implements fmt.Stringer.
func (t OutboxEventType) String() string {
	return string(t)
}

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateOrder    OutboxAggregateType = "order"
	AggregateTask     OutboxAggregateType = "task"
	AggregateMaterial OutboxAggregateType = "material"
)

// String implements fmt.Stringer.
func (t OutboxAggregateType) String() string {
	return string(t)
}
