package outbox

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockKafkaProducer struct {
	mock.Mock
}

func (m *MockKafkaProducer) PushMessage(ctx context.Context, key, value []byte, topic string) (int32, int64, error) {
	args := m.Called(ctx, key, value, topic)

	return args.Get(0).(int32), args.Get(1).(int64), args.Error(2)
}

type MockRabbitPublisher struct {
	mock.Mock
}

func (m *MockRabbitPublisher) Publish(ctx context.Context, messageID string, body []byte) error {
	args := m.Called(ctx, messageID, body)

	return args.Error(0)
}

func TestKafkaChannel_Publish(t *testing.T) {
	producer := new(MockKafkaProducer)
	channel := NewKafkaChannel(zap.NewNop(), producer, "withdrawal.events")

	producer.On("PushMessage", mock.Anything, []byte("event-1"), []byte(`{"a":1}`), "withdrawal.events").
		Return(int32(2), int64(42), nil).Once()

	require.NoError(t, channel.Publish(context.Background(), "event-1", []byte(`{"a":1}`)))

	producer.On("PushMessage", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(int32(0), int64(0), errors.New("leader not available")).Once()

	err := channel.Publish(context.Background(), "event-2", []byte(`{}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kafka")

	producer.AssertExpectations(t)
}

func TestRabbitMQChannel_Publish(t *testing.T) {
	publisher := new(MockRabbitPublisher)
	channel := NewRabbitMQChannel(publisher)

	publisher.On("Publish", mock.Anything, "event-1", []byte("payload")).Return(nil).Once()
	require.NoError(t, channel.Publish(context.Background(), "event-1", []byte("payload")))

	publisher.On("Publish", mock.Anything, "event-2", mock.Anything).Return(errors.New("channel closed")).Once()
	require.Error(t, channel.Publish(context.Background(), "event-2", []byte("payload")))
}

func TestLogChannel_Publish(t *testing.T) {
	assert.NoError(t, NewLogChannel(zap.NewNop()).Publish(context.Background(), "event-1", []byte("{}")))
}
