package kafka

import (
	"context"
	"encoding/json"

	"github.com/IBM/sarama"

	"github.com/Koneum/sissansissan-api/internal/usecase"
)

// StatusProducer emits OrderStatusChanged events on settlement and
// cancellation. Downstream consumers (notifications, analytics) are external
// collaborators; a publish failure is logged by the caller and never rolls
// back order state.
type StatusProducer struct {
	prod  sarama.SyncProducer
	topic string
}

func NewStatusProducer(prod sarama.SyncProducer, topic string) *StatusProducer {
	return &StatusProducer{prod: prod, topic: topic}
}

func (p *StatusProducer) PublishStatusChanged(ctx context.Context, msg usecase.OrderStatusChangedMsg) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	_, _, err = p.prod.SendMessage(&sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(msg.OrderID), // per-order ordering
		Value: sarama.ByteEncoder(body),
	})
	return err
}

var _ usecase.EventProducer = (*StatusProducer)(nil)
