package firebase

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/messaging"

	"github.com/jhoicas/despensa-api/internal/application/ports"
	"github.com/jhoicas/despensa-api/internal/domain/entity"
)

// Sender subconjunto de *messaging.Client usado para enviar.
type Sender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

var _ ports.AlertDeliverer = (*MessagingDeliverer)(nil)

// MessagingDeliverer publica cada alerta en el tópico FCM del usuario (<prefix><userID>),
// al que se suscriben sus dispositivos.
type MessagingDeliverer struct {
	sender Sender
	prefix string
}

func NewMessagingDeliverer(sender Sender, topicPrefix string) *MessagingDeliverer {
	return &MessagingDeliverer{sender: sender, prefix: topicPrefix}
}

func (d *MessagingDeliverer) Deliver(ctx context.Context, c entity.AlertContent) error {
	if _, err := d.sender.Send(ctx, BuildMessage(d.prefix, c)); err != nil {
		return fmt.Errorf("fcm: enviar a %s: %w", d.prefix+c.UserID, err)
	}
	return nil
}

// BuildMessage arma el mensaje FCM. Las alertas urgentes usan prioridad alta en Android y APNs.
func BuildMessage(topicPrefix string, c entity.AlertContent) *messaging.Message {
	data := make(map[string]string, len(c.Data)+1)
	for k, v := range c.Data {
		data[k] = v
	}
	if c.StockItemID != "" {
		data["stockItemId"] = c.StockItemID
	}

	androidPriority, apnsPriority := "normal", "5"
	if c.Urgent || c.Priority == entity.PriorityHigh {
		androidPriority, apnsPriority = "high", "10"
	}

	return &messaging.Message{
		Topic: topicPrefix + c.UserID,
		Notification: &messaging.Notification{
			Title: c.Title,
			Body:  c.Body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: androidPriority,
			Notification: &messaging.AndroidNotification{
				ChannelID: "stock",
			},
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{"apns-priority": apnsPriority},
		},
	}
}
