package notify

import (
	"context"
	"encoding/json"
	"testing"

	"cargo-logistics-service/internal/domain"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeChannel struct {
	key  string
	msgs []amqp.Publishing
}

func (f *fakeChannel) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp.Publishing) error {
	f.key = key
	f.msgs = append(f.msgs, msg)
	return nil
}

func (f *fakeChannel) Close() error { return nil }

func TestRabbitMQNotifierPublishesPersistentJSON(t *testing.T) {
	ch := &fakeChannel{}
	n := NewRabbitMQNotifierWithChannel(ch, "notifications")

	err := n.Notify(context.Background(), domain.Notification{
		Kind:    domain.NotifyPasswordReset,
		To:      "ops@example.com",
		Subject: "Your reset code",
		Data:    map[string]string{"otp": "123456"},
	})
	require.NoError(t, err)

	require.Len(t, ch.msgs, 1)
	msg := ch.msgs[0]
	assert.Equal(t, "notifications", ch.key)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, domain.NotifyPasswordReset, msg.Type)

	var got domain.Notification
	require.NoError(t, json.Unmarshal(msg.Body, &got))
	assert.Equal(t, "123456", got.Data["otp"])
	assert.NoError(t, n.Close())
}

func TestLogNotifier(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	require.NoError(t, LogNotifier{}.Notify(context.Background(), domain.Notification{Kind: domain.NotifyContactMessage, To: "sales"}))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "sales", logs.All()[0].ContextMap()["to"])
}
