package event

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/visit-logger/pkg/messaging"
	"github.com/jwalitptl/visit-logger/pkg/metrics"
)

const (
	PatientCreated     = "patient.created"
	PatientUpdated     = "patient.updated"
	VisitCreated       = "visit.created"
	VisitUpdated       = "visit.updated"
	DrugHistoryUpdated = "drug_history.updated"
)

// Publisher emits domain events after successful writes.
type Publisher interface {
	Publish(ctx context.Context, eventType, doctorID, entityID string)
}

type Service struct {
	broker  messaging.Broker
	channel string
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewService(broker messaging.Broker, channel string, m *metrics.Metrics) *Service {
	if broker == nil {
		broker = messaging.NoopBroker{}
	}
	return &Service{
		broker:  broker,
		channel: channel,
		metrics: m,
		now:     time.Now,
	}
}

// Publish is best effort. A broker failure is logged and counted, never returned.
func (s *Service) Publish(ctx context.Context, eventType, doctorID, entityID string) {
	evt := messaging.Event{
		Type:       eventType,
		DoctorID:   doctorID,
		EntityID:   entityID,
		OccurredAt: s.now().UTC(),
	}

	err := s.broker.Publish(ctx, s.channel, evt)
	s.metrics.ObserveEvent(eventType, err)
	if err != nil {
		log.Warn().
			Err(err).
			Str("event_type", eventType).
			Str("entity_id", entityID).
			Msg("failed to publish event")
	}
}

// Stream decodes events from the channel until ctx is done. Undecodable
// payloads are skipped.
func (s *Service) Stream(ctx context.Context, fn func(messaging.Event)) error {
	ch, err := s.broker.Subscribe(ctx, s.channel)
	if err != nil {
		return err
	}
	for payload := range ch {
		evt, err := messaging.DecodeEvent(payload)
		if err != nil {
			log.Debug().Err(err).Msg("skipping malformed event")
			continue
		}
		fn(evt)
	}
	return ctx.Err()
}
