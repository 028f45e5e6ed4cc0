package events

import (
	"github.com/IBM/sarama"

	"github.com/sirupsen/logrus"
)

// SetupConsumer starts consuming a topic and feeds message payloads to the
// handler.
func SetupConsumer(brokers []string, topic string, handler func([]byte)) {
	if len(brokers) == 0 {
		brokers = []string{"localhost:9092"}
	}

	config := sarama.NewConfig()
	config.Consumer.Return.Errors = true

	consumer, err := sarama.NewConsumer(brokers, config)
	if err != nil {
		logrus.WithError(err).Fatal("Error creating consumer")
	}

	partitionConsumer, err := consumer.ConsumePartition(topic, 0, sarama.OffsetNewest)
	if err != nil {
		logrus.WithError(err).Fatal("Error creating partition consumer")
	}

	logrus.WithField("topic", topic).Info("Started consuming from topic")
	go func() {
		for {
			select {
			case msg := <-partitionConsumer.Messages():
				handler(msg.Value)
			case err := <-partitionConsumer.Errors():
				logrus.WithError(err).WithField("topic", topic).Error("Error consuming")
			}
		}
	}()
}
