package produce

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	ObjectExchange           = "object.exchange"
	ObjectUploadedRoutingKey = "object.uploaded"
	ObjectDeletedRoutingKey  = "object.deleted"
)

// ObjectEventMessage notifies downstream systems about catalog changes.
type ObjectEventMessage struct {
	Bucket      string `json:"bucket"`
	Key         string `json:"key"`
	Locator     string `json:"locator,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	SizeBytes   int64  `json:"size_bytes,omitempty"`
	UserID      string `json:"user_id"`
	Timestamp   int64  `json:"timestamp"`
}

type ObjectService struct {
	channel *amqp.Channel
}

// InitObjectService declares the object event exchange. Interested
// consumers bind their own queues, so none are declared here.
func InitObjectService(channel *amqp.Channel) *ObjectService {
	service := &ObjectService{
		channel: channel,
	}

	err := channel.ExchangeDeclare(
		ObjectExchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		panic("Failed to declare Object exchange: " + err.Error())
	}

	return service
}

func (s *ObjectService) PublishObjectUploaded(ctx context.Context, msg ObjectEventMessage) error {
	return s.publish(ctx, ObjectUploadedRoutingKey, msg)
}

func (s *ObjectService) PublishObjectDeleted(ctx context.Context, msg ObjectEventMessage) error {
	return s.publish(ctx, ObjectDeletedRoutingKey, msg)
}

func (s *ObjectService) publish(ctx context.Context, routingKey string, msg ObjectEventMessage) error {
	msg.Timestamp = time.Now().Unix()

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	return s.channel.PublishWithContext(
		ctx,
		ObjectExchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		},
	)
}
