package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/ingat-go-api/internal/dto"
	"github.com/noah-isme/ingat-go-api/internal/models"
	"github.com/noah-isme/ingat-go-api/internal/observability"
)

const dispatchBufferSize = 16

// DispatchService delivers selected reminder events to every attached
// delivery shell: in-process stream subscribers plus the Redis channel
// and NATS subject that remote shells listen on. A reminder is marked
// sent only after its event has been handed to the transports, so a
// failed delivery is retried on the next tick.
type DispatchService interface {
	RunTick(ctx context.Context, now time.Time) error
	Announce(ctx context.Context, event dto.ReminderEvent) error
	Subscribe(userID string) (<-chan dto.ReminderEvent, func())
	Start(ctx context.Context)
}

type dispatchService struct {
	engine      ReminderService
	redis       *redis.Client
	redisStream string
	nats        *nats.Conn
	natsSubject string
	logger      zerolog.Logger
	broker      *eventBroker
	nodeID      string
}

type reminderEnvelope struct {
	Source string            `json:"source"`
	Event  dto.ReminderEvent `json:"event"`
	SentAt time.Time         `json:"sent_at"`
}

type eventBroker struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan dto.ReminderEvent]struct{}
}

// NewDispatchService constructs a dispatcher. channelBase names the
// shared Redis channel and NATS subject; either client may be nil, in
// which case that transport is skipped.
func NewDispatchService(engine ReminderService, redisClient *redis.Client, channelBase string, natsConn *nats.Conn, logger zerolog.Logger) DispatchService {
	stream := ""
	subject := ""
	if channelBase != "" {
		stream = channelBase + ":reminders"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".reminders"
	}

	return &dispatchService{
		engine:      engine,
		redis:       redisClient,
		redisStream: stream,
		nats:        natsConn,
		natsSubject: subject,
		logger:      logger.With().Str("component", "dispatch_service").Logger(),
		broker: &eventBroker{
			subscribers: make(map[string]map[chan dto.ReminderEvent]struct{}),
		},
		nodeID: uuid.NewString(),
	}
}

func (s *dispatchService) Start(ctx context.Context) {
	if s.redis != nil && s.redisStream != "" {
		go s.consumeRedis(ctx)
	}
	if s.nats != nil && s.natsSubject != "" {
		go s.consumeNATS(ctx)
	}
}

// RunTick performs one reconciliation pass: collect everything due at
// this instant, publish it, and mark the published reminders sent.
// Individual failures are logged and left pending rather than aborting
// the rest of the tick.
func (s *dispatchService) RunTick(ctx context.Context, now time.Time) error {
	work, err := s.engine.CollectWorkReminders(ctx, now)
	if err != nil {
		return err
	}
	for _, event := range work {
		if !s.deliver(ctx, event) {
			continue
		}
		key := models.PlanKey{UserID: event.UserID, CourseID: event.CourseID, AssignmentID: event.AssignmentID}
		if err := s.engine.MarkWorkReminderSent(ctx, key, models.WorkReminderKind(event.Threshold)); err != nil {
			s.logger.Error().Err(err).Str("user_id", event.UserID).Msg("failed to mark work reminder sent")
		}
	}

	due, err := s.engine.CollectDueReminders(ctx, now)
	if err != nil {
		return err
	}
	for _, event := range due {
		if !s.deliver(ctx, event) {
			continue
		}
		key := models.AssignmentKey{CourseID: event.CourseID, AssignmentID: event.AssignmentID}
		if err := s.engine.MarkDueReminderSent(ctx, key, models.DueReminderKind(event.Threshold)); err != nil {
			s.logger.Error().Err(err).Int64("assignment_id", event.AssignmentID).Msg("failed to mark due reminder sent")
		}
	}

	weeks, err := s.engine.CollectWeekCompletions(ctx, now)
	if err != nil {
		return err
	}
	for _, event := range weeks {
		if !s.deliver(ctx, event) {
			continue
		}
		if err := s.engine.MarkWeekNotified(ctx, event.UserID, event.WeekKey); err != nil {
			s.logger.Error().Err(err).Str("user_id", event.UserID).Msg("failed to mark week notification sent")
		}
	}

	return nil
}

// Announce delivers an event built outside the engine, such as the
// Monday digest broadcast.
func (s *dispatchService) Announce(ctx context.Context, event dto.ReminderEvent) error {
	if !s.deliver(ctx, event) {
		return fmt.Errorf("announce %s event: transport publish failed", event.Category)
	}
	return nil
}

// deliver fans an event out to local subscribers and the shared
// transports. It reports whether the event may be marked sent.
func (s *dispatchService) deliver(ctx context.Context, event dto.ReminderEvent) bool {
	s.broadcast(event)
	if err := s.publish(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("category", event.Category).Msg("failed to publish reminder event")
		return false
	}
	observability.RemindersPublished().WithLabelValues(event.Category).Inc()
	return true
}

func (s *dispatchService) Subscribe(userID string) (<-chan dto.ReminderEvent, func()) {
	channel := make(chan dto.ReminderEvent, dispatchBufferSize)

	s.broker.subscribe(userID, channel)
	observability.StreamClientsActive().Inc()

	cleanup := func() {
		s.broker.unsubscribe(userID, channel)
		observability.StreamClientsActive().Dec()
	}

	return channel, cleanup
}

func (s *dispatchService) broadcast(event dto.ReminderEvent) {
	s.broker.broadcast(event.UserID, event)
}

func (s *dispatchService) publish(ctx context.Context, event dto.ReminderEvent) error {
	envelope := reminderEnvelope{
		Source: s.nodeID,
		Event:  event,
		SentAt: time.Now().UTC(),
	}

	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	if s.redis != nil && s.redisStream != "" {
		if err := s.redis.Publish(ctx, s.redisStream, payload).Err(); err != nil {
			return err
		}
	}

	if s.nats != nil && s.natsSubject != "" {
		if err := s.nats.Publish(s.natsSubject, payload); err != nil {
			return err
		}
	}

	return nil
}

func (s *dispatchService) consumeRedis(ctx context.Context) {
	pubsub := s.redis.Subscribe(ctx, s.redisStream)
	defer func() { _ = pubsub.Close() }()

	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			s.logger.Error().Err(err).Msg("reminder redis subscription closed")
			return
		}
		s.handleEnvelope([]byte(msg.Payload))
	}
}

func (s *dispatchService) consumeNATS(ctx context.Context) {
	sub, err := s.nats.QueueSubscribe(s.natsSubject, "ingat-reminders", func(msg *nats.Msg) {
		s.handleEnvelope(msg.Data)
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to subscribe to nats reminder subject")
		return
	}

	go func() {
		<-ctx.Done()
		if err := sub.Drain(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to drain reminder nats subscription")
		}
	}()
}

func (s *dispatchService) handleEnvelope(payload []byte) {
	var envelope reminderEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		s.logger.Warn().Err(err).Msg("invalid reminder envelope payload")
		return
	}

	if envelope.Source == s.nodeID {
		return
	}

	s.broadcast(envelope.Event)
}

func (b *eventBroker) subscribe(userID string, ch chan dto.ReminderEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.subscribers[userID]; !exists {
		b.subscribers[userID] = make(map[chan dto.ReminderEvent]struct{})
	}
	b.subscribers[userID][ch] = struct{}{}
}

func (b *eventBroker) unsubscribe(userID string, ch chan dto.ReminderEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if subscribers, ok := b.subscribers[userID]; ok {
		delete(subscribers, ch)
		close(ch)
		if len(subscribers) == 0 {
			delete(b.subscribers, userID)
		}
	}
}

func (b *eventBroker) broadcast(userID string, event dto.ReminderEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	subscribers := b.subscribers[userID]
	for ch := range subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}
