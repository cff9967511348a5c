package events

// Topic constants for domain events emitted by the platform.
const (
	TopicOrderCreated         = "order.created"
	TopicOrderPlacementFailed = "order.placement_failed"
	TopicOrderCancelled       = "order.cancelled"
	TopicOrderStatusChanged   = "order.status_changed"
	TopicDeliveryAssigned     = "delivery.assigned"
	TopicDeliveryDelivered    = "delivery.delivered"
)

// DefaultTopics returns the canonical list of topics webhook endpoints may
// subscribe to.
func DefaultTopics() []string {
	return []string{
		TopicOrderCreated,
		TopicOrderPlacementFailed,
		TopicOrderCancelled,
		TopicOrderStatusChanged,
		TopicDeliveryAssigned,
		TopicDeliveryDelivered,
	}
}
