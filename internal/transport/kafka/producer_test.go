package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/require"

	"service-fleet/internal/domain"
)

func TestNewProducer_UnconfiguredReturnsNil(t *testing.T) {
	t.Parallel()

	p, err := NewProducer(nil, "topic")
	require.NoError(t, err)
	require.Nil(t, p)

	p, err = NewProducer([]string{"b:9092"}, "  ")
	require.NoError(t, err)
	require.Nil(t, p)
}

func TestProducer_NilIsSafe(t *testing.T) {
	t.Parallel()

	var p *Producer
	require.NoError(t, p.Publish(EventDTO{Type: EventAssigned}))
	require.NoError(t, p.Close())
}

func TestProducer_PublishEncodesEvent(t *testing.T) {
	t.Parallel()

	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	sp := mocks.NewSyncProducer(t, cfg)

	sp.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		key, err := msg.Key.Encode()
		require.NoError(t, err)
		require.Equal(t, "7", string(key))

		raw, err := msg.Value.Encode()
		require.NoError(t, err)
		var ev EventDTO
		require.NoError(t, json.Unmarshal(raw, &ev))
		require.Equal(t, EventAssigned, ev.Type)
		require.Equal(t, int64(7), ev.DriverID)
		require.Equal(t, int64(3), ev.VehicleID)
		require.Equal(t, "dispatcher", ev.AssignedBy)
		return nil
	})

	p := newWithSyncProducer(sp, "fleet.assignments")

	now := time.Now().UTC()
	ev := FromAssignment(EventAssigned, domain.Assignment{
		ID: 11, DriverID: 7, VehicleID: 3, AssignedBy: "dispatcher",
	}, now)

	require.NoError(t, p.Publish(ev))
	require.NoError(t, p.Close())
}

func TestProducer_PublishPropagatesBrokerError(t *testing.T) {
	t.Parallel()

	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	sp := mocks.NewSyncProducer(t, cfg)
	sp.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	p := newWithSyncProducer(sp, "fleet.assignments")
	err := p.Publish(FromAssignment(EventUnassigned, domain.Assignment{DriverID: 1}, time.Now()))
	require.Error(t, err)
	require.NoError(t, p.Close())
}
