package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// Pub/Sub channel constants
const (
	EventsChannel = "channel:events"
)

// Event types published on EventsChannel.
const (
	TypeMatchMade          = "match_made"
	TypePlayerDisconnected = "player_disconnected"
	TypePlayerReconnected  = "player_reconnected"
	TypeRematchRequested   = "rematch_requested"
	TypeRematchSuccessful  = "rematch_successful"
)

// RoomUpdate is the payload published on a room channel after its game state changed.
const RoomUpdate = "update"

// RoomChannel returns the channel carrying state updates of one room.
func RoomChannel(roomID string) string {
	return fmt.Sprintf("channel:room:%s", roomID)
}

// Event represents a global message published via Pub/Sub.
type Event struct {
	Type    string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// MatchMadePayload is the payload for the "match_made" event.
type MatchMadePayload struct {
	RoomID    string   `json:"room_id"`
	PlayerIDs []string `json:"player_ids"`
}

// PlayerDisconnectedPayload is the payload for the "player_disconnected" event.
type PlayerDisconnectedPayload struct {
	RoomID   string `json:"room_id"`
	PlayerID string `json:"player_id"`
}

// PlayerReconnectedPayload is the payload for the "player_reconnected" event.
type PlayerReconnectedPayload struct {
	RoomID   string `json:"room_id"`
	PlayerID string `json:"player_id"`
}

// RematchRequestedPayload is the payload for the "rematch_requested" event.
type RematchRequestedPayload struct {
	RoomID   string `json:"room_id"`
	PlayerID string `json:"player_id"`
}

// RematchSuccessfulPayload is the payload for the "rematch_successful" event.
type RematchSuccessfulPayload struct {
	RoomID string `json:"room_id"`
}

// Publisher sends raw messages to a Pub/Sub channel.
type Publisher interface {
	Publish(ctx context.Context, channel string, message any) error
}

type redisPublisher struct {
	rdb *redis.Client
}

// NewRedisPublisher creates a Publisher backed by Redis PUBLISH.
func NewRedisPublisher(rdb *redis.Client) Publisher {
	return &redisPublisher{rdb: rdb}
}

func (p *redisPublisher) Publish(ctx context.Context, channel string, message any) error {
	return p.rdb.Publish(ctx, channel, message).Err()
}

// New wraps payload into an Event of the given type.
func New(eventType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}
	event, err := json.Marshal(Event{Type: eventType, Payload: raw})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s event: %w", eventType, err)
	}
	return event, nil
}

// Publish sends an event of the given type on EventsChannel.
func Publish(ctx context.Context, pub Publisher, eventType string, payload any) error {
	event, err := New(eventType, payload)
	if err != nil {
		return err
	}
	if err := pub.Publish(ctx, EventsChannel, event); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", eventType, err)
	}
	return nil
}

// Decode parses a message received on EventsChannel.
func Decode(raw string) (*Event, error) {
	var event Event
	if err := json.Unmarshal([]byte(raw), &event); err != nil {
		return nil, fmt.Errorf("could not unmarshal event: %w", err)
	}
	if event.Type == "" {
		return nil, fmt.Errorf("event without type: %s", raw)
	}
	return &event, nil
}

// DecodePayload unmarshals the event payload into out.
func (e *Event) DecodePayload(out any) error {
	if err := json.Unmarshal(e.Payload, out); err != nil {
		return fmt.Errorf("could not unmarshal %s payload: %w", e.Type, err)
	}
	return nil
}
