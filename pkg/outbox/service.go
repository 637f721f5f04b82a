package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/collette-backend/pkg/db/models"
	"github.com/angelmondragon/collette-backend/pkg/enums"
	"github.com/angelmondragon/collette-backend/pkg/logger"
)

const envelopeVersion = 1

// DomainEvent is what domain services hand to Emit. Version and OccurredAt
// default to the current envelope version and the emit time; Actor defaults
// to the caller recorded on ctx.
type DomainEvent struct {
	EventType     enums.OutboxEventType
	AggregateType enums.OutboxAggregateType
	AggregateID   uuid.UUID
	Actor         *ActorRef
	Data          any
	Version       int
	OccurredAt    time.Time
}

func (e DomainEvent) validate() error {
	switch {
	case !e.EventType.IsValid():
		return fmt.Errorf("outbox: unknown event type %q", e.EventType)
	case !e.AggregateType.IsValid():
		return fmt.Errorf("outbox: unknown aggregate type %q", e.AggregateType)
	case e.AggregateID == uuid.Nil:
		return errors.New("outbox: aggregate id required")
	}
	return nil
}

type Service struct {
	repo *Repository
	logg *logger.Logger
	now  func() time.Time
}

func NewService(repo *Repository, logg *logger.Logger) *Service {
	return &Service{repo: repo, logg: logg, now: time.Now}
}

// Emit writes events to the outbox on tx, so they commit or roll back with
// the state change that produced them. The outbox row id doubles as the
// envelope's eventId, which consumers use for deduplication.
func (s *Service) Emit(ctx context.Context, tx *gorm.DB, events ...DomainEvent) error {
	if tx == nil {
		return errTxRequired
	}
	for _, event := range events {
		row, err := s.envelope(ctx, event)
		if err != nil {
			return err
		}
		if err := s.repo.Insert(tx, row); err != nil {
			return fmt.Errorf("outbox: insert %s: %w", event.EventType, err)
		}
		if s.logg != nil {
			s.logg.Debug(s.logg.WithFields(ctx, map[string]any{
				"event_id":       row.ID.String(),
				"event_type":     row.EventType,
				"aggregate_type": row.AggregateType,
				"aggregate_id":   row.AggregateID.String(),
			}), "outbox event queued")
		}
	}
	return nil
}

func (s *Service) envelope(ctx context.Context, event DomainEvent) (models.OutboxEvent, error) {
	if err := event.validate(); err != nil {
		return models.OutboxEvent{}, err
	}
	data, err := json.Marshal(event.Data)
	if err != nil {
		return models.OutboxEvent{}, fmt.Errorf("outbox: encode %s data: %w", event.EventType, err)
	}

	id := uuid.New()
	env := PayloadEnvelope{
		Version:    event.Version,
		EventID:    id.String(),
		OccurredAt: event.OccurredAt,
		Actor:      event.Actor,
		Data:       data,
	}
	if env.Version == 0 {
		env.Version = envelopeVersion
	}
	if env.OccurredAt.IsZero() {
		env.OccurredAt = s.now().UTC()
	}
	if env.Actor == nil {
		env.Actor = ActorFromContext(ctx)
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return models.OutboxEvent{}, fmt.Errorf("outbox: encode envelope: %w", err)
	}
	return models.OutboxEvent{
		ID:            id,
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       payload,
	}, nil
}
