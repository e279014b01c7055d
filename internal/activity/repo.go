package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	eventKeyPrefix     = "shopping:activity:" // Recent events per list: shopping:activity:{list_id}
	eventChannelPrefix = "shopping:events:"   // Pub/Sub channel per list: shopping:events:{list_id}
	maxEvents          = 50
	eventTTL           = 30 * 24 * time.Hour
)

// Event types recorded on list activity.
const (
	EventItemAdded      = "item_added"
	EventItemUpdated    = "item_updated"
	EventItemRemoved    = "item_removed"
	EventMembersAdded   = "members_added"
	EventMembersRemoved = "members_removed"
	EventListRenamed    = "list_renamed"
)

// Event is a single activity feed entry for a list.
type Event struct {
	Type    string    `json:"type"`
	Actor   string    `json:"actor"`
	Subject string    `json:"subject,omitempty"`
	At      time.Time `json:"at"`
}

// Repository keeps a bounded per-list activity feed in Redis and publishes
// each event on the list's channel for live subscribers.
type Repository struct {
	client *redis.Client
}

func NewRepository(client *redis.Client) *Repository {
	return &Repository{client: client}
}

// Record appends the event to the list's feed, trims it to the retention
// window and publishes it.
func (r *Repository) Record(ctx context.Context, listID string, ev Event) error {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	key := r.eventKey(listID)

	pipe := r.client.Pipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, maxEvents-1)
	pipe.Expire(ctx, key, eventTTL)
	pipe.Publish(ctx, r.eventChannel(listID), data)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}
	return nil
}

// Recent returns up to n most recent events for a list, newest first.
func (r *Repository) Recent(ctx context.Context, listID string, n int) ([]Event, error) {
	if n <= 0 || n > maxEvents {
		n = maxEvents
	}

	raw, err := r.client.LRange(ctx, r.eventKey(listID), 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read events: %w", err)
	}

	out := make([]Event, 0, len(raw))
	for _, item := range raw {
		var ev Event
		if err := json.Unmarshal([]byte(item), &ev); err != nil {
			return nil, fmt.Errorf("failed to unmarshal event: %w", err)
		}
		out = append(out, ev)
	}
	return out, nil
}

func (r *Repository) eventKey(listID string) string {
	return fmt.Sprintf("%s%s", eventKeyPrefix, listID)
}

func (r *Repository) eventChannel(listID string) string {
	return fmt.Sprintf("%s%s", eventChannelPrefix, listID)
}
