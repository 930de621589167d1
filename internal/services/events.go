package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"restaurant_pos/internal/models"
	"restaurant_pos/internal/redis"
)

const (
	EventOrderCreated       = "order.created"
	EventOrderUpdated       = "order.updated"
	EventOrderSent          = "order.sent"
	EventOrderStatusChanged = "order.status_changed"
	EventOrderCanceled      = "order.canceled"
	EventOrderPaid          = "order.paid"
	EventOrderDiscarded     = "order.discarded"
)

const eventChannelPrefix = "pos:events:"

type OrderEvent struct {
	Type      string             `json:"type"`
	OrderID   uint               `json:"order_id"`
	TableID   *uint              `json:"table_id,omitempty"`
	Status    models.OrderStatus `json:"status,omitempty"`
	Total     decimal.Decimal    `json:"total"`
	Timestamp time.Time          `json:"timestamp"`
}

func newOrderEvent(eventType string, order *models.Order) OrderEvent {
	return OrderEvent{
		Type:      eventType,
		OrderID:   order.ID,
		TableID:   order.TableID,
		Status:    order.Status,
		Total:     order.TotalAmount,
		Timestamp: time.Now(),
	}
}

// OrderEventPublisher fans committed order changes out to kitchen screens.
// Publishing is best effort and never fails the command that caused it.
type OrderEventPublisher interface {
	Publish(ctx context.Context, event OrderEvent)
}

type redisEventPublisher struct {
	client *redis.Client
}

func NewRedisEventPublisher(client *redis.Client) OrderEventPublisher {
	return &redisEventPublisher{client: client}
}

func (p *redisEventPublisher) Publish(ctx context.Context, event OrderEvent) {
	for _, channel := range []string{eventChannelPrefix + event.Type, eventChannelPrefix + "all"} {
		if err := p.client.Publish(ctx, channel, event); err != nil {
			log.WithFields(log.Fields{
				"channel":  channel,
				"order_id": event.OrderID,
			}).WithError(err).Warn("Failed to publish order event")
			return
		}
	}
}

type noopEventPublisher struct{}

func NewNoopEventPublisher() OrderEventPublisher {
	return noopEventPublisher{}
}

func (noopEventPublisher) Publish(context.Context, OrderEvent) {}
