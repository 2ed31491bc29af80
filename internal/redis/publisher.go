package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"photoclash/internal/game"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	channelPrefix = "photoclash:room:"
	lastEventTTL  = 24 * time.Hour
)

type Config struct {
	Addr     string
	Password string
	DB       int
}

// Connect creates a client and checks the connection.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// Channel is the pub/sub channel carrying a room's events.
func Channel(roomCode string) string {
	return channelPrefix + roomCode
}

// Publisher relays room events to Redis so other processes can follow a room.
// Publish only enqueues; Run does the network work.
type Publisher struct {
	client  *redis.Client
	queue   chan game.Event
	dropped atomic.Int64
}

func NewPublisher(client *redis.Client, buffer int) *Publisher {
	if buffer <= 0 {
		buffer = 256
	}
	return &Publisher{client: client, queue: make(chan game.Event, buffer)}
}

func (p *Publisher) Publish(roomCode string, event game.Event) {
	if event.RoomCode == "" {
		event.RoomCode = roomCode
	}
	select {
	case p.queue <- event:
	default:
		p.dropped.Add(1)
		log.Warn().Str("room_code", roomCode).Str("type", string(event.Type)).Msg("redis publish buffer full, dropping event")
	}
}

func (p *Publisher) Dropped() int64 {
	return p.dropped.Load()
}

func (p *Publisher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case event := <-p.queue:
			if err := p.send(ctx, event); err != nil && ctx.Err() == nil {
				log.Error().Err(err).Str("room_code", event.RoomCode).Str("type", string(event.Type)).Msg("redis publish failed")
			}
		}
	}
}

// send publishes the event and keeps the room's latest non-tick event for late readers.
func (p *Publisher) send(ctx context.Context, event game.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	channel := Channel(event.RoomCode)
	pipe := p.client.Pipeline()
	pipe.Publish(ctx, channel, body)
	if event.Type != game.EventTimerTick {
		pipe.Set(ctx, channel+":last", body, lastEventTTL)
	}
	_, err = pipe.Exec(ctx)
	return err
}
