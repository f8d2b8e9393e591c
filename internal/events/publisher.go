package events

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"agentshop/internal/domain"
)

// Publisher emits order.confirmed events to kafka. Publishing is best-effort;
// callers log failures and move on.
type Publisher struct {
	writer *kafka.Writer
}

// NewPublisher builds a kafka publisher, or nil when no brokers are
// configured.
func NewPublisher(brokersCSV, topic string) *Publisher {
	var brokers []string
	for _, b := range strings.Split(brokersCSV, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	if len(brokers) == 0 {
		return nil
	}
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
		},
	}
}

type orderConfirmedEvent struct {
	OrderID       string    `json:"orderId"`
	CustomerEmail string    `json:"customerEmail"`
	TotalCents    int64     `json:"totalCents"`
	Currency      string    `json:"currency"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
}

func (p *Publisher) OrderConfirmed(ctx context.Context, order domain.Order) error {
	payload, err := json.Marshal(orderConfirmedEvent{
		OrderID:       order.ID,
		CustomerEmail: order.Customer.Email,
		TotalCents:    order.Totals.TotalCents,
		Currency:      order.Totals.Currency,
		Status:        order.Status,
		CreatedAt:     order.CreatedAt,
	})
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(order.ID),
		Value: payload,
		Time:  time.Now().UTC(),
	})
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
