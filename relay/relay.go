// Package relay publishes newly appended facts to external systems.
//
// The relay is a boundary action: it follows the fact log from a durable
// checkpoint, converts each stored fact into a Notice through a translator,
// and hands batches to destination publishers (Kafka, SNS, webhooks). The
// log itself is the durable queue, so delivery is at-least-once from the
// checkpoint with no secondary outbox table. Retry policy lives here, never
// inside the pure core.
package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/factlog/factlog"
	"github.com/factlog/factlog/adapters"
)

// Notice is the external representation of a fact change.
type Notice struct {
	// Entity identifies the entity the fact is about.
	Entity string `json:"entity_id"`

	// Attribute is the attribute name.
	Attribute string `json:"attribute"`

	// Operation is "assert" or "retract".
	Operation string `json:"operation"`

	// Time is when the fact became true.
	Time time.Time `json:"time"`

	// Seq is the fact's global sequence number.
	Seq uint64 `json:"seq"`

	// Payload is the body handed to the publisher.
	Payload []byte `json:"-"`

	// Destination is the routing target (e.g. "kafka:facts", "webhook:https://...").
	Destination string `json:"-"`

	// Headers are forwarded to the publisher as message attributes.
	Headers map[string]string `json:"-"`
}

// Publisher delivers notices to an external system.
type Publisher interface {
	// Publish sends one or more notices to the external system.
	Publish(ctx context.Context, notices []*Notice) error

	// Destination returns the destination prefix this publisher handles
	// (e.g. "webhook", "kafka", "sns").
	Destination() string
}

// Route selects which facts reach a destination and how they are rendered.
type Route struct {
	// Attributes lists the attribute names this route matches. Empty matches all.
	Attributes []string

	// Entities lists entity prefixes this route matches. Empty matches all.
	Entities []string

	// Destination is the target (e.g. "kafka:facts", "sns:arn:...", "webhook:https://...").
	Destination string

	// Transform renders a stored fact into the notice payload.
	// When nil, the default JSON envelope is used.
	Transform factlog.Translator[factlog.StoredFact, []byte]
}

func (r *Route) matches(sf factlog.StoredFact) bool {
	if len(r.Attributes) > 0 && !contains(r.Attributes, sf.Attribute) {
		return false
	}
	if len(r.Entities) > 0 {
		matched := false
		for _, prefix := range r.Entities {
			if strings.HasPrefix(sf.Entity, prefix) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// DefaultTransform renders a stored fact as the JSON fact-record envelope:
// {entity_id, attribute, value, time, operation}.
func DefaultTransform(sf factlog.StoredFact) ([]byte, error) {
	envelope := map[string]interface{}{
		"entity_id": sf.Entity,
		"attribute": sf.Attribute,
		"time":      sf.Time.Format(time.RFC3339Nano),
		"operation": sf.Operation.String(),
	}
	if sf.Operation == factlog.OpAssert {
		envelope["value"] = json.RawMessage(sf.Value)
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		return nil, factlog.NewTranslatorError("envelope", err.Error())
	}
	return data, nil
}

// Option configures a Relay.
type Option func(*Relay)

// WithRoute adds a route.
func WithRoute(route Route) Option {
	return func(r *Relay) {
		r.routes = append(r.routes, route)
	}
}

// WithPublisher registers a publisher for its destination prefix.
func WithPublisher(p Publisher) Option {
	return func(r *Relay) {
		r.publishers[p.Destination()] = p
	}
}

// WithBatchSize sets the maximum number of facts to relay per poll.
func WithBatchSize(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

// WithPollInterval sets how often the relay polls for new facts.
func WithPollInterval(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.pollInterval = d
		}
	}
}

// WithMaxRetries sets the delivery attempts per batch before the relay faults.
func WithMaxRetries(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.maxRetries = n
		}
	}
}

// WithRetryBackoff sets the pause between delivery attempts.
func WithRetryBackoff(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.retryBackoff = d
		}
	}
}

// WithLogger sets the relay's logger.
func WithLogger(l factlog.Logger) Option {
	return func(r *Relay) {
		r.logger = l
	}
}

// Relay follows the fact feed and publishes matching facts.
type Relay struct {
	name       string
	store      *factlog.FactStore
	checkpoint adapters.CheckpointAdapter
	routes     []Route
	publishers map[string]Publisher
	logger     factlog.Logger

	batchSize    int
	pollInterval time.Duration
	maxRetries   int
	retryBackoff time.Duration

	running  atomic.Bool
	stopCh   chan struct{}
	wg       sync.WaitGroup
	position atomic.Uint64
}

// New creates a relay named name reading from store.
// The store's adapter must support the fact feed; the checkpoint is stored
// under "relay:" + name when the adapter supports checkpoints.
func New(name string, store *factlog.FactStore, opts ...Option) (*Relay, error) {
	if _, ok := store.Adapter().(adapters.FeedAdapter); !ok {
		return nil, factlog.ErrFeedNotSupported
	}

	r := &Relay{
		name:         name,
		store:        store,
		publishers:   make(map[string]Publisher),
		logger:       factlog.NopLogger(),
		batchSize:    100,
		pollInterval: time.Second,
		maxRetries:   5,
		retryBackoff: time.Second,
		stopCh:       make(chan struct{}),
	}
	if cp, ok := store.Adapter().(adapters.CheckpointAdapter); ok {
		r.checkpoint = cp
	}

	for _, opt := range opts {
		opt(r)
	}

	if len(r.routes) == 0 {
		return nil, fmt.Errorf("relay: at least one route is required")
	}
	for _, route := range r.routes {
		prefix := destinationPrefix(route.Destination)
		if _, ok := r.publishers[prefix]; !ok {
			return nil, fmt.Errorf("relay: no publisher registered for destination %q", route.Destination)
		}
	}

	return r, nil
}

// Start begins relaying in a background goroutine.
func (r *Relay) Start(ctx context.Context) error {
	if !r.running.CompareAndSwap(false, true) {
		return fmt.Errorf("relay: %q already running", r.name)
	}

	from := uint64(0)
	if r.checkpoint != nil {
		seq, err := r.checkpoint.GetCheckpoint(ctx, r.checkpointName())
		if err != nil {
			r.running.Store(false)
			return fmt.Errorf("relay: %q checkpoint: %w", r.name, err)
		}
		from = seq
	}
	r.position.Store(from)

	r.wg.Add(1)
	go r.run(ctx)

	r.logger.Info("relay: started", "name", r.name, "from", from)
	return nil
}

// Stop halts the relay and waits for the poll loop to exit.
func (r *Relay) Stop() {
	if !r.running.CompareAndSwap(true, false) {
		return
	}
	close(r.stopCh)
	r.wg.Wait()
}

// Position returns the last relayed sequence number.
func (r *Relay) Position() uint64 {
	return r.position.Load()
}

// Drain synchronously relays every fact currently beyond the checkpoint.
// Useful in tests and for shutdown flushes.
func (r *Relay) Drain(ctx context.Context) error {
	for {
		n, err := r.relayBatch(ctx)
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
	}
}

func (r *Relay) run(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.relayBatch(ctx); err != nil {
				r.logger.Error("relay: faulted", "name", r.name, "error", err)
				r.running.Store(false)
				return
			}
		}
	}
}

func (r *Relay) relayBatch(ctx context.Context) (int, error) {
	facts, err := r.store.LoadFromSeq(ctx, r.position.Load(), r.batchSize)
	if err != nil {
		return 0, err
	}
	if len(facts) == 0 {
		return 0, nil
	}

	grouped := make(map[string][]*Notice)
	for _, sf := range facts {
		for i := range r.routes {
			route := &r.routes[i]
			if !route.matches(sf) {
				continue
			}

			notice, err := r.buildNotice(sf, route)
			if err != nil {
				return 0, fmt.Errorf("relay: transform seq %d: %w", sf.Seq, err)
			}
			prefix := destinationPrefix(route.Destination)
			grouped[prefix] = append(grouped[prefix], notice)
		}
	}

	for prefix, notices := range grouped {
		if err := r.publishWithRetry(ctx, r.publishers[prefix], notices); err != nil {
			return 0, err
		}
	}

	r.position.Store(facts[len(facts)-1].Seq)
	if r.checkpoint != nil {
		if err := r.checkpoint.SetCheckpoint(ctx, r.checkpointName(), r.position.Load()); err != nil {
			return 0, fmt.Errorf("relay: %q checkpoint: %w", r.name, err)
		}
	}

	return len(facts), nil
}

func (r *Relay) buildNotice(sf factlog.StoredFact, route *Route) (*Notice, error) {
	transform := route.Transform
	if transform == nil {
		transform = DefaultTransform
	}

	payload, err := transform(sf)
	if err != nil {
		return nil, err
	}

	return &Notice{
		Entity:      sf.Entity,
		Attribute:   sf.Attribute,
		Operation:   sf.Operation.String(),
		Time:        sf.Time,
		Seq:         sf.Seq,
		Payload:     payload,
		Destination: route.Destination,
		Headers: map[string]string{
			"entity":    sf.Entity,
			"attribute": sf.Attribute,
			"operation": sf.Operation.String(),
		},
	}, nil
}

func (r *Relay) publishWithRetry(ctx context.Context, pub Publisher, notices []*Notice) error {
	var lastErr error
	for attempt := 1; attempt <= r.maxRetries; attempt++ {
		lastErr = pub.Publish(ctx, notices)
		if lastErr == nil {
			return nil
		}

		r.logger.Warn("relay: publish failed", "name", r.name, "destination", pub.Destination(),
			"attempt", attempt, "error", lastErr)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.retryBackoff):
		}
	}
	return fmt.Errorf("relay: publish to %q failed after %d attempts: %w", pub.Destination(), r.maxRetries, lastErr)
}

func (r *Relay) checkpointName() string {
	return "relay:" + r.name
}

func destinationPrefix(destination string) string {
	if idx := strings.Index(destination, ":"); idx > 0 {
		return destination[:idx]
	}
	return destination
}
