package rabbitmq

// Обменник и ключи маршрутизации событий подписок.
const (
	SubscriptionsExchange = "subscriptions"

	RoutingKeyCreated = "subscription.created"
	RoutingKeyExpired = "subscription.expired"
)

// QueueConfig очередь и ключ, по которому она привязана к обменнику.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetSubscriptionQueues очереди для потребителей событий подписок.
func GetSubscriptionQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "subscriptions.created", RoutingKey: RoutingKeyCreated},
		{QueueName: "subscriptions.expired", RoutingKey: RoutingKeyExpired},
	}
}
