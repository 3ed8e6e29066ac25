package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func TestPublishKeysByOrder(t *testing.T) {
	fw := &fakeWriter{}
	p := NewKafkaPublisherWithWriter(fw)

	err := p.Publish(context.Background(), "o1", map[string]string{"to": "ASSIGNED"})
	require.NoError(t, err)
	require.Len(t, fw.msgs, 1)
	assert.Equal(t, "o1", string(fw.msgs[0].Key))

	var body map[string]string
	require.NoError(t, json.Unmarshal(fw.msgs[0].Value, &body))
	assert.Equal(t, "ASSIGNED", body["to"])
}

func TestPublishSurfacesWriteErrors(t *testing.T) {
	fw := &fakeWriter{err: errors.New("broker down")}
	p := NewKafkaPublisherWithWriter(fw)
	assert.Error(t, p.Publish(context.Background(), "o1", struct{}{}))
}

func TestNewWithoutBrokersIsNoop(t *testing.T) {
	p := New(nil, "order-events")
	_, ok := p.(Noop)
	assert.True(t, ok)
	assert.NoError(t, p.Publish(context.Background(), "o1", 1))
	assert.NoError(t, p.Close())
}
