package services

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"restaurant_pos/pkg/whatsapp"
)

// StockAlert is raised when a reservation leaves an item low or empty.
type StockAlert struct {
	Ref   StockRef   `json:"ref"`
	Name  string     `json:"name"`
	Level StockLevel `json:"level"`
}

type StockAlerter interface {
	Notify(ctx context.Context, alerts []StockAlert)
}

type whatsappStockAlerter struct {
	client *whatsapp.Client
	phone  string
}

func NewWhatsAppStockAlerter(client *whatsapp.Client, phone string) StockAlerter {
	return &whatsappStockAlerter{client: client, phone: phone}
}

func (a *whatsappStockAlerter) Notify(ctx context.Context, alerts []StockAlert) {
	if len(alerts) == 0 {
		return
	}
	if err := a.client.SendTextMessage(ctx, a.phone, formatStockAlerts(alerts)); err != nil {
		log.WithError(err).WithField("alerts", len(alerts)).Warn("Failed to send low stock alert")
	}
}

func formatStockAlerts(alerts []StockAlert) string {
	var b strings.Builder
	b.WriteString("Stock alert\n")
	for _, alert := range alerts {
		switch alert.Level {
		case StockLastUnit:
			fmt.Fprintf(&b, "- %s: last unit sold, stock is now 0\n", alert.Name)
		default:
			fmt.Fprintf(&b, "- %s: running low\n", alert.Name)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

type noopStockAlerter struct{}

func NewNoopStockAlerter() StockAlerter {
	return noopStockAlerter{}
}

func (noopStockAlerter) Notify(context.Context, []StockAlert) {}
