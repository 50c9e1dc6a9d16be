package firebase_test

import (
	"context"
	"errors"
	"testing"

	"firebase.google.com/go/v4/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/despensa-api/internal/domain/entity"
	"github.com/jhoicas/despensa-api/internal/infrastructure/firebase"
)

type fakeSender struct {
	sent []*messaging.Message
	err  error
}

func (f *fakeSender) Send(_ context.Context, m *messaging.Message) (string, error) {
	f.sent = append(f.sent, m)
	return "msg-1", f.err
}

func TestBuildMessage_UrgenteUsaPrioridadAlta(t *testing.T) {
	m := firebase.BuildMessage("stock-", entity.AlertContent{
		UserID: "u1", StockItemID: "s1", Title: "Stock agotado", Body: "«Pan» se agotó.",
		Urgent: true, Priority: entity.PriorityHigh, Data: map[string]string{"kind": "expired"},
	})

	assert.Equal(t, "stock-u1", m.Topic)
	assert.Equal(t, "Stock agotado", m.Notification.Title)
	assert.Equal(t, "high", m.Android.Priority)
	assert.Equal(t, "10", m.APNS.Headers["apns-priority"])
	assert.Equal(t, "s1", m.Data["stockItemId"])
	assert.Equal(t, "expired", m.Data["kind"])
}

func TestBuildMessage_BajoUsaPrioridadNormal(t *testing.T) {
	m := firebase.BuildMessage("stock-", entity.AlertContent{UserID: "u1", Priority: entity.PriorityNormal})
	assert.Equal(t, "normal", m.Android.Priority)
	assert.Equal(t, "5", m.APNS.Headers["apns-priority"])
}

func TestDeliver_PropagaErrorDelEnvio(t *testing.T) {
	s := &fakeSender{err: errors.New("quota")}
	d := firebase.NewMessagingDeliverer(s, "stock-")

	err := d.Deliver(context.Background(), entity.AlertContent{UserID: "u1"})

	require.Error(t, err)
	assert.Len(t, s.sent, 1)
}
