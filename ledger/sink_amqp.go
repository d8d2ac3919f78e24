package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alwitt/goutils"
	"github.com/apex/log"
	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPChannel the subset of *amqp.Channel used by AMQPSink
type AMQPChannel interface {
	PublishWithContext(
		ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing,
	) error
	Close() error
}

// AMQPSink OutcomeSink publishing outcomes as JSON messages to an exchange
type AMQPSink struct {
	goutils.Component
	conn       *amqp.Connection
	channel    AMQPChannel
	exchange   string
	routingKey string
}

/*
NewAMQPSink define an OutcomeSink over an open channel

	@param channel AMQPChannel - the channel
	@param exchange string - target exchange
	@param routingKey string - message routing key
	@returns sink instance
*/
func NewAMQPSink(channel AMQPChannel, exchange, routingKey string) *AMQPSink {
	return &AMQPSink{
		Component: goutils.Component{
			LogTags: log.Fields{
				"module": "ledger", "component": "outcome-amqp", "exchange": exchange,
			},
			LogTagModifiers: []goutils.LogMetadataModifier{
				goutils.ModifyLogMetadataByRestRequestParam,
			},
		},
		channel:    channel,
		exchange:   exchange,
		routingKey: routingKey,
	}
}

/*
DialAMQPSink connect to a broker, declare a durable direct exchange and define a sink on it

	@param url string - broker URL
	@param exchange string - target exchange
	@param routingKey string - message routing key
	@returns sink instance
*/
func DialAMQPSink(url, exchange, routingKey string) (*AMQPSink, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to broker [%w]", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open broker channel [%w]", err)
	}
	if err := ch.ExchangeDeclare(exchange, "direct", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare exchange '%s' [%w]", exchange, err)
	}

	sink := NewAMQPSink(ch, exchange, routingKey)
	sink.conn = conn
	return sink, nil
}

// Publish report one outcome
func (s *AMQPSink) Publish(ctx context.Context, outcome Outcome) error {
	if outcome.Err != nil {
		outcome.Error = outcome.Err.Error()
	}
	body, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("failed to serialize outcome [%w]", err)
	}

	if err := s.channel.PublishWithContext(
		ctx,
		s.exchange,
		s.routingKey,
		false, false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			Timestamp:    time.Now(),
			DeliveryMode: amqp.Persistent,
		},
	); err != nil {
		log.WithError(err).
			WithFields(s.GetLogTagsForContext(ctx)).
			WithField("document", outcome.DocumentID).
			Error("Failed to publish ledger outcome")
		return fmt.Errorf("failed to publish outcome [%w]", err)
	}
	return nil
}

// Close release the channel, and the connection when the sink dialed it
func (s *AMQPSink) Close() error {
	if err := s.channel.Close(); err != nil {
		return err
	}
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}
