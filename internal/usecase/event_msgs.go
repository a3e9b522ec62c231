package usecase

// Published to Kafka on every settlement or cancellation.
type OrderStatusChangedMsg struct {
	OrderID       string `json:"orderId"`
	OrderNumber   string `json:"orderNumber"`
	CustomerID    string `json:"customerId"`
	Status        string `json:"status"`
	PaymentStatus string `json:"paymentStatus"`
	Total         int64  `json:"total"`
	Currency      string `json:"currency"`
}

// Written to the outbox inside the checkout transaction; the drainer
// publishes it to RabbitMQ for the notification consumers.
type OrderCreatedMsg struct {
	OrderID     string `json:"orderId"`
	OrderNumber string `json:"orderNumber"`
	CustomerID  string `json:"customerId"`
	Email       string `json:"email,omitempty"`
	Total       int64  `json:"total"`
	Currency    string `json:"currency"`
}

const ChannelOrderCreated = "order.created"
