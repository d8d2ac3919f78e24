package ledger_test

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/alwitt/notary/ledger"
	mockledger "github.com/alwitt/notary/mocks/ledger"
	"github.com/apex/log"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestChannelSinkDropsWhenFull(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	uut := ledger.NewChannelSink(1)
	assert.Nil(uut.Publish(context.Background(), ledger.Outcome{DocumentID: "first"}))
	assert.Nil(uut.Publish(context.Background(), ledger.Outcome{DocumentID: "second"}))

	assert.Equal("first", (<-uut.Outcomes()).DocumentID)
	select {
	case extra := <-uut.Outcomes():
		assert.Failf("unexpected outcome", "got %s", extra.DocumentID)
	default:
	}
}

func TestSinkFunc(t *testing.T) {
	assert := assert.New(t)

	var seen []string
	uut := ledger.SinkFunc(func(_ context.Context, outcome ledger.Outcome) error {
		seen = append(seen, outcome.DocumentID)
		return nil
	})
	assert.Nil(uut.Publish(context.Background(), ledger.Outcome{DocumentID: "doc_1"}))
	assert.Nil(ledger.NewLogSink().Publish(context.Background(), ledger.Outcome{
		DocumentID: "doc_1", Status: ledger.OutcomeStatusFailed, Err: fmt.Errorf("dummy error"),
	}))
	assert.Equal([]string{"doc_1"}, seen)
}

func TestAMQPSinkPublish(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	channel := mockledger.NewAMQPChannel(t)
	uut := ledger.NewAMQPSink(channel, "notary.ledger", "outcome")

	var published amqp.Publishing
	channel.On(
		"PublishWithContext", mock.Anything, "notary.ledger", "outcome", false, false, mock.Anything,
	).Run(func(args mock.Arguments) {
		msg, ok := args.Get(5).(amqp.Publishing)
		assert.True(ok)
		published = msg
	}).Return(nil).Once()

	outcome := ledger.Outcome{
		DocumentID: "doc_1",
		Status:     ledger.OutcomeStatusFailed,
		Stage:      ledger.StageSend,
		Err:        fmt.Errorf("dummy error"),
		StartedAt:  time.Now().UTC(),
		FinishedAt: time.Now().UTC(),
	}
	assert.Nil(uut.Publish(context.Background(), outcome))

	assert.Equal("application/json", published.ContentType)
	assert.Equal(amqp.Persistent, published.DeliveryMode)
	var parsed ledger.Outcome
	assert.Nil(json.Unmarshal(published.Body, &parsed))
	assert.Equal("doc_1", parsed.DocumentID)
	assert.Equal(ledger.OutcomeStatusFailed, parsed.Status)
	assert.Equal("dummy error", parsed.Error)

	// Broker failure
	channel.On(
		"PublishWithContext", mock.Anything, "notary.ledger", "outcome", false, false, mock.Anything,
	).Return(fmt.Errorf("channel closed")).Once()
	assert.NotNil(uut.Publish(context.Background(), outcome))

	channel.On("Close").Return(nil).Once()
	assert.Nil(uut.Close())
}

func TestAMQPSinkBroker(t *testing.T) {
	assert := assert.New(t)
	log.SetLevel(log.DebugLevel)

	brokerURL := os.Getenv("NOTARY_UT_AMQP_URL")
	if brokerURL == "" {
		t.Skip("Skipping AMQP integration test: NOTARY_UT_AMQP_URL not set")
	}

	uut, err := ledger.DialAMQPSink(brokerURL, "notary.ut.ledger", "outcome")
	assert.Nil(err)
	defer func() { assert.Nil(uut.Close()) }()

	assert.Nil(uut.Publish(context.Background(), ledger.Outcome{
		DocumentID: "doc_1", Status: ledger.OutcomeStatusConfirmed,
	}))
}
