// Package kafka provides the production Notifier: a fire-and-forget
// publisher of message.updated events onto a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/akimon658/twittra/internal/domain"
	"github.com/akimon658/twittra/internal/metrics"
)

const writeTimeout = 5 * time.Second

// event is the wire shape published to the topic. Field names are the
// public contract; don't rename without a migration plan for consumers.
type event struct {
	Type      string    `json:"type"`
	MessageID string    `json:"message_id"`
	ChannelID string    `json:"channel_id"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Notifier publishes message update events to Kafka using segmentio's
// writer, which batches and retries internally.
type Notifier struct {
	writer *kafka.Writer
	log    *logrus.Entry
}

// New builds a Notifier writing to topic on the given brokers.
func New(brokers []string, topic string, log *logrus.Entry) *Notifier {
	return &Notifier{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
			Async:        false,
		},
		log: log,
	}
}

// NotifyMessageUpdated implements port.Notifier. Publish failures are
// logged and swallowed: the ingestion engine has no recovery action for a
// lost notification and must not block its crawl loop on broker health.
func (n *Notifier) NotifyMessageUpdated(ctx context.Context, message domain.Message) {
	payload, err := json.Marshal(event{
		Type:      "message.updated",
		MessageID: message.ID.String(),
		ChannelID: message.ChannelID.String(),
		UpdatedAt: message.UpdatedAt,
	})
	if err != nil {
		n.log.WithError(err).Error("failed to encode message.updated event")
		metrics.NotificationsDropped.Inc()
		return
	}

	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	err = n.writer.WriteMessages(writeCtx, kafka.Message{
		Key:   []byte(message.ID.String()),
		Value: payload,
	})
	if err != nil {
		n.log.WithError(err).WithField("message_id", message.ID).Error("failed to publish message.updated event")
		metrics.NotificationsDropped.Inc()
		return
	}

	metrics.NotificationsSent.Inc()
}

// Close flushes and closes the underlying writer.
func (n *Notifier) Close() error {
	return n.writer.Close()
}
