package rabbitmq

// Exchange и routing key платежных событий.
const (
	ExchangePayments     = "payments"
	RoutingKeyReconciled = "reconciled"
	RoutingKeyUnmatched  = "unmatched"
)

const prefetchCount = 10

// QueueConfig привязывает очередь к routing key exchange.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// PaymentQueues возвращает очереди, которые читает отправщик уведомлений.
func PaymentQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "payments.reconciled", RoutingKey: RoutingKeyReconciled},
		{QueueName: "payments.unmatched", RoutingKey: RoutingKeyUnmatched},
	}
}
