package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/levelup/storefront/internal/domain"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type OrderPlacedEvent struct {
	EventID        uuid.UUID         `json:"event_id"`
	UserID         int64             `json:"user_id"`
	OrderID        int64             `json:"order_id"`
	Total          string            `json:"total"`
	DireccionEnvio string            `json:"direccion_envio"`
	Items          []domain.CartLine `json:"items"`
	PlacedAt       time.Time         `json:"placed_at"`
}

type Publisher struct {
	writer MessageWriter
	logger *zap.Logger
	now    func() time.Time
}

func NewPublisher(logger *zap.Logger, brokers ...string) *Publisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  OrdersTopic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	return NewPublisherWithWriter(w, logger)
}

func NewPublisherWithWriter(w MessageWriter, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{writer: w, logger: logger, now: time.Now}
}

// OrderPlaced publishes an order.placed event keyed by user id, so one user's
// orders stay on one partition.
func (p *Publisher) OrderPlaced(ctx context.Context, user domain.Identity, order domain.Order) error {
	frozen := order.Freeze()
	payload, err := json.Marshal(OrderPlacedEvent{
		EventID:        uuid.New(),
		UserID:         user.ID,
		OrderID:        frozen.ID,
		Total:          frozen.Total.String(),
		DireccionEnvio: frozen.DireccionEnvio,
		Items:          frozen.Detalles,
		PlacedAt:       p.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(user.ID, 10)),
		Value: payload,
		Headers: []kafka.Header{
			{Key: eventTypeHeader, Value: []byte(EventOrderPlaced)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish order %d: %w", order.ID, err)
	}
	p.logger.Debug("order event published", zap.Int64("order_id", order.ID))
	return nil
}

func (p *Publisher) Close() {
	if err := p.writer.Close(); err != nil {
		p.logger.Warn("error closing writer", zap.Error(err))
	}
}
