package kafka

import (
	"context"
	"testing"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/require"
)

func newMockCluster(t *testing.T) *sarama.MockBroker {
	t.Helper()

	broker := sarama.NewMockBroker(t, 1)
	broker.SetHandlerByMap(map[string]sarama.MockResponse{
		"ApiVersionsRequest": sarama.NewMockApiVersionsResponse(t),
		"MetadataRequest": sarama.NewMockMetadataResponse(t).
			SetController(broker.BrokerID()).
			SetBroker(broker.Addr(), broker.BrokerID()),
	})

	t.Cleanup(broker.Close)

	return broker
}

func TestProducer_Ping(t *testing.T) {
	broker := newMockCluster(t)

	p, err := NewProducer([]string{broker.Addr()})
	require.NoError(t, err)

	require.NoError(t, p.Ping(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, p.Ping(ctx), context.Canceled)

	require.NoError(t, p.Close())
	require.ErrorIs(t, p.Ping(context.Background()), sarama.ErrClosedClient)
}
