package changefeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tessera3d/tessera/pkg/changeset"
	"github.com/tessera3d/tessera/pkg/geometry"
)

// Client provides briefcase-scoped Redis operations for the change feed.
// All keys and channels are automatically namespaced with the briefcase
// name. The client is safe for concurrent use.
type Client struct {
	rdb       *redis.Client
	briefcase string
}

// NewClient creates a feed client for the given briefcase.
func NewClient(redisOpts *redis.Options, briefcase string) (*Client, error) {
	if briefcase == "" {
		return nil, fmt.Errorf("briefcase name cannot be empty")
	}

	return &Client{
		rdb:       redis.NewClient(redisOpts),
		briefcase: briefcase,
	}, nil
}

// Briefcase returns the briefcase this client is scoped to.
func (c *Client) Briefcase() string {
	return c.briefcase
}

// Close closes the Redis connection. Implements io.Closer.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping verifies Redis connectivity.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// PublishSave journals a save event and broadcasts it to subscribers.
// The event's Seq is assigned here, from the briefcase's sequence counter,
// and written back into e. The journal write happens before the broadcast,
// so a subscriber that misses the message can recover it with JournalSince.
func (c *Client) PublishSave(ctx context.Context, e *changeset.SaveEvent) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("invalid save event: %w", err)
	}
	if e.Briefcase != c.briefcase {
		return fmt.Errorf("save event briefcase %q does not match client briefcase %q", e.Briefcase, c.briefcase)
	}

	seq, err := c.rdb.Incr(ctx, SeqKey(c.briefcase)).Result()
	if err != nil {
		return fmt.Errorf("failed to assign save seq: %w", err)
	}
	e.Seq = seq

	eventJSON, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal save event: %w", err)
	}

	z := redis.Z{
		Score:  JournalScore(e.Seq),
		Member: string(eventJSON),
	}
	if err := c.rdb.ZAdd(ctx, JournalKey(c.briefcase), z).Err(); err != nil {
		return fmt.Errorf("failed to journal save event: %w", err)
	}

	if err := c.rdb.Publish(ctx, SaveEventsChannel(c.briefcase), eventJSON).Err(); err != nil {
		return fmt.Errorf("failed to publish save event: %w", err)
	}

	return nil
}

// LatestSeq returns the sequence number of the most recent save, or zero
// when nothing has been published yet.
func (c *Client) LatestSeq(ctx context.Context) (int64, error) {
	seq, err := c.rdb.Get(ctx, SeqKey(c.briefcase)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read save seq: %w", err)
	}
	return seq, nil
}

// JournalSince returns every journaled save event with a sequence number
// greater than afterSeq, in sequence order. Late-joining subscribers use it
// to catch up before consuming live events.
func (c *Client) JournalSince(ctx context.Context, afterSeq int64) ([]changeset.SaveEvent, error) {
	opt := &redis.ZRangeBy{
		Min: fmt.Sprintf("(%d", afterSeq),
		Max: "+inf",
	}
	members, err := c.rdb.ZRangeByScore(ctx, JournalKey(c.briefcase), opt).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read save journal: %w", err)
	}

	out := make([]changeset.SaveEvent, 0, len(members))
	for _, member := range members {
		var e changeset.SaveEvent
		if err := json.Unmarshal([]byte(member), &e); err != nil {
			return nil, fmt.Errorf("failed to unmarshal journaled save event: %w", err)
		}
		out = append(out, e)
	}
	return out, nil
}

// PublishScopeEvent broadcasts a scope lifecycle event. Publishing a
// ScopeEnded event also clears the save journal: the journal exists so
// subscribers can reconstruct the active scope's pending edits, and once the
// scope is gone those edits are committed state, not pending ones.
func (c *Client) PublishScopeEvent(ctx context.Context, e ScopeEvent) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("invalid scope event: %w", err)
	}

	if e.Kind == ScopeEnded {
		if err := c.rdb.Del(ctx, JournalKey(c.briefcase)).Err(); err != nil {
			return fmt.Errorf("failed to clear save journal: %w", err)
		}
	}

	eventJSON, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal scope event: %w", err)
	}

	if err := c.rdb.Publish(ctx, ScopeEventsChannel(c.briefcase), eventJSON).Err(); err != nil {
		return fmt.Errorf("failed to publish scope event: %w", err)
	}

	return nil
}

// SetModelRange records a model's committed range and registers the model
// in the briefcase's model set.
func (c *Client) SetModelRange(ctx context.Context, model changeset.ModelID, rng geometry.Range3) error {
	if err := model.Validate(); err != nil {
		return err
	}

	state := &ModelState{
		Model:       model,
		Range:       rng,
		UpdatedAtMs: time.Now().UnixMilli(),
	}
	hash, err := ModelStateToHash(state)
	if err != nil {
		return fmt.Errorf("failed to serialize model state: %w", err)
	}

	if err := c.rdb.HSet(ctx, ModelKey(c.briefcase, model), hash).Err(); err != nil {
		return fmt.Errorf("failed to write model state to Redis: %w", err)
	}
	if err := c.rdb.SAdd(ctx, ModelsKey(c.briefcase), string(model)).Err(); err != nil {
		return fmt.Errorf("failed to index model id: %w", err)
	}

	return nil
}

// ModelRange retrieves a model's committed range.
// Returns redis.Nil if the model is unknown; use IsNotFound to check.
func (c *Client) ModelRange(ctx context.Context, model changeset.ModelID) (geometry.Range3, error) {
	hashData, err := c.rdb.HGetAll(ctx, ModelKey(c.briefcase, model)).Result()
	if err != nil {
		return geometry.Range3{}, fmt.Errorf("failed to read model state from Redis: %w", err)
	}

	// HGetAll returns an empty map for non-existent keys.
	if len(hashData) == 0 {
		return geometry.Range3{}, redis.Nil
	}

	state, err := HashToModelState(hashData)
	if err != nil {
		return geometry.Range3{}, fmt.Errorf("failed to deserialize model state: %w", err)
	}
	return state.Range, nil
}

// ListModels returns the ids of every model the briefcase has recorded, in
// ascending order.
func (c *Client) ListModels(ctx context.Context) ([]changeset.ModelID, error) {
	members, err := c.rdb.SMembers(ctx, ModelsKey(c.briefcase)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}

	ids := make([]changeset.ElementID, 0, len(members))
	for _, m := range members {
		ids = append(ids, changeset.ElementID(m))
	}
	changeset.SortElementIDs(ids)

	models := make([]changeset.ModelID, 0, len(ids))
	for _, id := range ids {
		models = append(models, changeset.ModelID(id))
	}
	return models, nil
}

// SaveSubscription is an active Pub/Sub subscription to save events.
// Caller must call Close() when done to clean up resources.
type SaveSubscription struct {
	events <-chan *changeset.SaveEvent
	errors <-chan error
	cancel func()
	once   sync.Once
}

// Events returns the channel of save events. The channel is closed when
// the subscription is closed or its context is cancelled.
func (s *SaveSubscription) Events() <-chan *changeset.SaveEvent {
	return s.events
}

// Errors returns the channel of subscription errors. Errors are non-fatal;
// the offending message is skipped and the subscription continues.
func (s *SaveSubscription) Errors() <-chan error {
	return s.errors
}

// Close stops the subscription. Implements io.Closer. Safe to call
// multiple times.
func (s *SaveSubscription) Close() error {
	s.once.Do(s.cancel)
	return nil
}

// ScopeSubscription is an active Pub/Sub subscription to scope lifecycle
// events. Caller must call Close() when done.
type ScopeSubscription struct {
	events <-chan ScopeEvent
	errors <-chan error
	cancel func()
	once   sync.Once
}

// Events returns the channel of scope events.
func (s *ScopeSubscription) Events() <-chan ScopeEvent {
	return s.events
}

// Errors returns the channel of subscription errors.
func (s *ScopeSubscription) Errors() <-chan error {
	return s.errors
}

// Close stops the subscription. Implements io.Closer.
func (s *ScopeSubscription) Close() error {
	s.once.Do(s.cancel)
	return nil
}

// SubscribeSaves subscribes to save events for this briefcase.
// Caller must call subscription.Close() when done; context cancellation
// also stops the subscription.
//
// Events are delivered on a buffered channel (size 10). Redis Pub/Sub is
// at-most-once; slow subscribers reconcile through JournalSince.
func (c *Client) SubscribeSaves(ctx context.Context) (*SaveSubscription, error) {
	pubsub := c.rdb.Subscribe(ctx, SaveEventsChannel(c.briefcase))

	eventsChan := make(chan *changeset.SaveEvent, 10)
	errorsChan := make(chan error, 10)

	subCtx, cancelFunc := context.WithCancel(ctx)

	go func() {
		defer close(eventsChan)
		defer close(errorsChan)
		defer pubsub.Close()

		ch := pubsub.Channel()

		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var e changeset.SaveEvent
				if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
					select {
					case errorsChan <- fmt.Errorf("failed to unmarshal save event: %w", err):
					case <-subCtx.Done():
						return
					}
					continue
				}

				select {
				case eventsChan <- &e:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return &SaveSubscription{
		events: eventsChan,
		errors: errorsChan,
		cancel: cancelFunc,
	}, nil
}

// SubscribeScopeEvents subscribes to scope lifecycle events for this
// briefcase. Caller must call subscription.Close() when done.
func (c *Client) SubscribeScopeEvents(ctx context.Context) (*ScopeSubscription, error) {
	pubsub := c.rdb.Subscribe(ctx, ScopeEventsChannel(c.briefcase))

	eventsChan := make(chan ScopeEvent, 10)
	errorsChan := make(chan error, 10)

	subCtx, cancelFunc := context.WithCancel(ctx)

	go func() {
		defer close(eventsChan)
		defer close(errorsChan)
		defer pubsub.Close()

		ch := pubsub.Channel()

		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				var e ScopeEvent
				if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
					select {
					case errorsChan <- fmt.Errorf("failed to unmarshal scope event: %w", err):
					case <-subCtx.Done():
						return
					}
					continue
				}

				select {
				case eventsChan <- e:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return &ScopeSubscription{
		events: eventsChan,
		errors: errorsChan,
		cancel: cancelFunc,
	}, nil
}

// IsNotFound returns true if the error is a Redis "key not found" error
// (redis.Nil). Use this to check if ModelRange returned "not found".
func IsNotFound(err error) bool {
	return errors.Is(err, redis.Nil)
}
