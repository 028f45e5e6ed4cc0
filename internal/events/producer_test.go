package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/IBM/sarama/mocks"

	"priceradar/internal/models"
)

func TestPublishPriceChanges(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	defer producer.Close()

	changes := []models.PriceChange{
		{ProductID: "p1", StoreName: "eMAG", OldPrice: 100, NewPrice: 80, Currency: "RON"},
		{ProductID: "p2", StoreName: "Altex", OldPrice: 50, NewPrice: 55, Currency: "RON"},
	}

	producer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(value []byte) error {
		var change models.PriceChange
		if err := json.Unmarshal(value, &change); err != nil {
			return err
		}
		if change.ProductID != "p1" {
			return errors.New("unexpected product in first message")
		}
		return nil
	})
	producer.ExpectSendMessageAndSucceed()

	publisher := NewPublisher(producer, "LISTING_PRICES")
	if err := publisher.PublishPriceChanges(context.Background(), changes); err != nil {
		t.Fatalf("PublishPriceChanges returned error: %v", err)
	}
}

func TestPublishPriceChangesPropagatesSendError(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	defer producer.Close()

	producer.ExpectSendMessageAndFail(errors.New("broker down"))

	publisher := NewPublisher(producer, "LISTING_PRICES")
	err := publisher.PublishPriceChanges(context.Background(), []models.PriceChange{
		{ProductID: "p1", NewPrice: 10},
	})
	if err == nil {
		t.Fatal("expected send error")
	}
}
