package db

import (
	"context"
	"encoding/json"
	"sync/atomic"

	"photoclash/internal/game"

	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// EventLog persists room events to the events table from a background worker.
// Timer ticks are not recorded. Publish never blocks; a full buffer drops the event.
type EventLog struct {
	db      *gorm.DB
	events  chan game.Event
	dropped atomic.Int64
}

func NewEventLog(conn *gorm.DB, buffer int) *EventLog {
	if buffer <= 0 {
		buffer = 256
	}
	return &EventLog{db: conn, events: make(chan game.Event, buffer)}
}

func (l *EventLog) Publish(roomCode string, event game.Event) {
	if event.Type == game.EventTimerTick {
		return
	}
	if event.RoomCode == "" {
		event.RoomCode = roomCode
	}
	select {
	case l.events <- event:
	default:
		l.dropped.Add(1)
		log.Warn().Str("room_code", roomCode).Str("type", string(event.Type)).Msg("event log buffer full, dropping event")
	}
}

func (l *EventLog) Dropped() int64 {
	return l.dropped.Load()
}

// Run writes queued events until ctx is cancelled, then flushes what is left.
func (l *EventLog) Run(ctx context.Context) error {
	for {
		select {
		case event := <-l.events:
			l.write(ctx, event)
		case <-ctx.Done():
			l.drain()
			return nil
		}
	}
}

func (l *EventLog) drain() {
	for {
		select {
		case event := <-l.events:
			l.write(context.Background(), event)
		default:
			return
		}
	}
}

func (l *EventLog) write(ctx context.Context, event game.Event) {
	payload := []byte("{}")
	if event.Payload != nil {
		encoded, err := json.Marshal(event.Payload)
		if err != nil {
			log.Error().Err(err).Str("type", string(event.Type)).Msg("encode event payload")
			return
		}
		payload = encoded
	}
	record := Event{
		RoomID:    event.RoomID,
		RoomCode:  event.RoomCode,
		Type:      string(event.Type),
		Payload:   datatypes.JSON(payload),
		CreatedAt: event.Timestamp,
	}
	if err := l.db.WithContext(ctx).Create(&record).Error; err != nil {
		log.Error().Err(err).Str("room_code", event.RoomCode).Str("type", record.Type).Msg("persist event")
	}
}

// ListEvents returns the recorded events for a room, oldest first.
func ListEvents(ctx context.Context, conn *gorm.DB, roomCode string) ([]Event, error) {
	var events []Event
	if err := conn.WithContext(ctx).Where("room_code = ?", roomCode).Order("id ASC").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// RoomEvents replays a room's recorded events as core events with raw JSON payloads.
func (l *EventLog) RoomEvents(ctx context.Context, roomCode string) ([]game.Event, error) {
	records, err := ListEvents(ctx, l.db, roomCode)
	if err != nil {
		return nil, err
	}
	events := make([]game.Event, 0, len(records))
	for _, record := range records {
		events = append(events, game.Event{
			Type:      game.EventType(record.Type),
			RoomID:    record.RoomID,
			RoomCode:  record.RoomCode,
			Timestamp: record.CreatedAt,
			Payload:   json.RawMessage(record.Payload),
		})
	}
	return events, nil
}
