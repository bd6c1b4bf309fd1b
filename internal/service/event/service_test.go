package event

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/visit-logger/pkg/messaging"
	"github.com/jwalitptl/visit-logger/pkg/metrics"
)

type recordingBroker struct {
	channel string
	sent    []interface{}
	err     error
	feed    chan []byte
}

func (b *recordingBroker) Publish(_ context.Context, channel string, msg interface{}) error {
	b.channel = channel
	b.sent = append(b.sent, msg)
	return b.err
}

func (b *recordingBroker) Subscribe(context.Context, string) (<-chan []byte, error) {
	return b.feed, nil
}

func (b *recordingBroker) Close() error { return nil }

func TestPublish(t *testing.T) {
	broker := &recordingBroker{}
	m := metrics.New("test", prometheus.NewRegistry())
	svc := NewService(broker, "events", m)
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	svc.Publish(context.Background(), VisitCreated, "doc-1", "v-1")

	require.Len(t, broker.sent, 1)
	assert.Equal(t, "events", broker.channel)
	assert.Equal(t, messaging.Event{Type: VisitCreated, DoctorID: "doc-1", EntityID: "v-1", OccurredAt: fixed}, broker.sent[0])
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsPublished.WithLabelValues(VisitCreated, "success")))
}

func TestPublishSwallowsBrokerErrors(t *testing.T) {
	broker := &recordingBroker{err: errors.New("connection refused")}
	m := metrics.New("test", prometheus.NewRegistry())
	svc := NewService(broker, "events", m)

	assert.NotPanics(t, func() {
		svc.Publish(context.Background(), PatientUpdated, "doc-1", "p-1")
	})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsPublished.WithLabelValues(PatientUpdated, "error")))
}

func TestStreamSkipsMalformedPayloads(t *testing.T) {
	feed := make(chan []byte, 2)
	good, err := json.Marshal(messaging.Event{Type: PatientCreated, EntityID: "p-1"})
	require.NoError(t, err)
	feed <- []byte("not json")
	feed <- good
	close(feed)

	svc := NewService(&recordingBroker{feed: feed}, "events", nil)
	var got []messaging.Event
	err = svc.Stream(context.Background(), func(e messaging.Event) { got = append(got, e) })

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "p-1", got[0].EntityID)
}
