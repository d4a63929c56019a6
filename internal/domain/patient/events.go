package patient

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/aliiexe/AmbuGo/internal/platform/messaging"
	"github.com/aliiexe/AmbuGo/internal/platform/websocket"
)

// Events receives patient lifecycle notifications. Implementations must not
// fail the request that triggered them.
type Events interface {
	Submitted(ctx context.Context, p *Patient)
	StatusChanged(ctx context.Context, change StatusChange)
}

type liveFeed interface {
	Publish(ctx context.Context, event websocket.Event) error
}

// Notifier fans events out to the hospital dashboard feed and the message bus.
type Notifier struct {
	feed   liveFeed
	bus    messaging.Publisher
	logger zerolog.Logger
}

// NewNotifier accepts nil for either sink.
func NewNotifier(feed liveFeed, bus messaging.Publisher, logger zerolog.Logger) *Notifier {
	if bus == nil {
		bus = messaging.Nop{}
	}
	return &Notifier{feed: feed, bus: bus, logger: logger}
}

type submittedPayload struct {
	PatientID         string `json:"patientId"`
	HospitalID        string `json:"hospitalId"`
	Name              string `json:"name"`
	Age               int    `json:"age"`
	Gender            string `json:"gender"`
	Symptoms          string `json:"symptoms"`
	ServiceType       string `json:"serviceType"`
	IsEmergency       bool   `json:"isEmergency"`
	RequiresImmediate bool   `json:"requiresImmediate"`
	Status            string `json:"status"`
	AmbulanceID       string `json:"ambulanceId,omitempty"`
}

func (n *Notifier) Submitted(ctx context.Context, p *Patient) {
	payload := submittedPayload{
		PatientID:         p.ID.String(),
		HospitalID:        p.HospitalID.String(),
		Name:              p.Name,
		Age:               p.Age,
		Gender:            p.Record.Gender,
		Symptoms:          p.Record.Symptoms,
		ServiceType:       p.Record.ServiceType,
		IsEmergency:       p.Record.IsEmergency,
		RequiresImmediate: p.Record.RequiresImmediate,
		Status:            p.Record.Status,
	}
	if p.AmbulanceID != nil {
		payload.AmbulanceID = p.AmbulanceID.String()
	}
	n.emit(ctx, websocket.EventPatientSubmitted, messaging.SubjectPatientSubmitted, payload.HospitalID, payload.PatientID, payload)
}

func (n *Notifier) StatusChanged(ctx context.Context, change StatusChange) {
	n.emit(ctx, websocket.EventPatientStatusChanged, messaging.SubjectPatientStatus,
		change.HospitalID.String(), change.PatientID.String(), change)
}

func (n *Notifier) emit(ctx context.Context, eventType, subject, hospitalID, patientID string, payload interface{}) {
	log := n.logger.With().Str("event", eventType).Str("hospital_id", hospitalID).Str("patient_id", patientID).Logger()

	if n.feed != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			log.Error().Err(err).Msg("failed to encode event payload")
			return
		}
		event := websocket.Event{
			Type:       eventType,
			Topic:      websocket.HospitalTopic(hospitalID),
			HospitalID: hospitalID,
			PatientID:  patientID,
			Timestamp:  time.Now().UTC(),
			Data:       data,
		}
		if err := n.feed.Publish(ctx, event); err != nil {
			log.Warn().Err(err).Msg("live feed publish failed")
		}
	}
	if err := n.bus.Publish(ctx, subject, payload); err != nil {
		log.Warn().Err(err).Str("subject", subject).Msg("message bus publish failed")
	}
}
