// Package events publishes and consumes listing price-change events over
// Apache Kafka.
package events

import (
	"context"
	"encoding/json"

	"github.com/IBM/sarama"
	"github.com/sirupsen/logrus"

	"priceradar/internal/models"
)

// Publisher sends price-change events to the listing prices topic.
type Publisher struct {
	producer sarama.SyncProducer
	topic    string
}

// SetupProducer initializes a synchronous Kafka producer for the given
// brokers.
func SetupProducer(brokers []string) sarama.SyncProducer {
	if len(brokers) == 0 {
		brokers = []string{"localhost:9092"}
	}

	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	// Large imports can change many listings at once.
	config.Producer.MaxMessageBytes = 5 * 1024 * 1024

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create Kafka producer")
	}

	logrus.WithField("brokers", brokers).Info("Kafka producer initialized")
	return producer
}

// NewPublisher wraps a producer for the given topic.
func NewPublisher(producer sarama.SyncProducer, topic string) *Publisher {
	return &Publisher{producer: producer, topic: topic}
}

// PublishPriceChanges sends one message per changed listing, keyed by
// product so consumers see a product's changes in order.
func (p *Publisher) PublishPriceChanges(_ context.Context, changes []models.PriceChange) error {
	for _, change := range changes {
		payload, err := json.Marshal(change)
		if err != nil {
			logrus.WithError(err).Error("Failed to marshal price change")
			continue
		}
		msg := &sarama.ProducerMessage{
			Topic: p.topic,
			Key:   sarama.StringEncoder(change.ProductID),
			Value: sarama.ByteEncoder(payload),
		}
		if _, _, err := p.producer.SendMessage(msg); err != nil {
			return err
		}
	}
	logrus.WithFields(logrus.Fields{
		"topic": p.topic,
		"count": len(changes),
	}).Info("Published price changes")
	return nil
}
